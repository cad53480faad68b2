package sqlite

import (
	"context"
	"dnacore/pkg/domain"
	"path/filepath"
	"reflect"
	"testing"
)

func buildDesign(t *testing.T, store *Store) domain.Result {
	t.Helper()
	res, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		g, err := tx.CreateGrid(domain.PlaneXY, domain.Vec3{}, domain.GridSquare)
		if err != nil {
			return err
		}
		h, err := tx.AddHelix(g.ID, domain.GridPoint{X: 0, Y: 0}, 16)
		if err != nil {
			return err
		}
		refs, err := tx.GetHelixSub(h.ID, 2, 9, domain.Forward)
		if err != nil {
			return err
		}
		_, err = tx.CreateStrand(refs, "ACGTACGT", "")
		return err
	})
	if err != nil {
		t.Fatalf("build design: %v", err)
	}
	return res
}

func TestSQLiteStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "design.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	buildDesign(t, store)
	want := store.ExportState()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reloaded, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	t.Cleanup(func() { _ = reloaded.Close() })
	if got := reloaded.ExportState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("reloaded state differs")
	}
	if reloaded.Path() != path {
		t.Fatalf("unexpected path %s", reloaded.Path())
	}
}

func TestSQLiteStorePersistsRevertAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	res := buildDesign(t, store)
	ctx := context.Background()
	if err := store.Revert(ctx, res.Changes); err != nil {
		t.Fatalf("revert: %v", err)
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil || count != 4 {
		t.Fatalf("expected four buckets, got %d %v", count, err)
	}
	reverted, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(reverted.ListGrids()) != 0 || reverted.Counters() != (domain.Counters{}) {
		t.Fatalf("revert must be persisted, got %+v", reverted.Counters())
	}
	_ = reverted.Close()

	if err := store.Replay(ctx, res.Changes); err != nil {
		t.Fatalf("replay: %v", err)
	}
	replayed, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer func() { _ = replayed.Close() }()
	if len(replayed.ListStrands()) != 1 {
		t.Fatalf("replay must be persisted")
	}
}

func TestSQLiteStoreFailedTransactionDoesNotPersist(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "design.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = store.Close() }()
	if _, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		return tx.DeleteGrid(7)
	}); err == nil {
		t.Fatalf("expected missing grid error")
	}
	var count int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM state`).Scan(&count); err != nil || count != 0 {
		t.Fatalf("expected no persisted buckets, got %d %v", count, err)
	}
}

func TestSQLiteStoreRejectsCorruptSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "design.db")
	store, err := NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if _, err := store.DB().Exec(`INSERT INTO state(bucket,payload) VALUES('counters', '{')`); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_ = store.Close()
	if _, err := NewStore(path, domain.NewRulesEngine()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSQLiteStoreRollsBackWhenPersistFails(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "design.db"), domain.NewRulesEngine())
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	res := buildDesign(t, store)
	want := store.ExportState()
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	ctx := context.Background()

	out, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateGrid(domain.PlaneXZ, domain.Vec3{}, domain.GridHoneycomb)
		return err
	})
	if err == nil {
		t.Fatalf("expected persist error on closed database")
	}
	if len(out.Changes) != 0 {
		t.Fatalf("failed write must not report changes, got %d", len(out.Changes))
	}
	if got := store.ExportState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("transaction must be rolled back, counters %+v", got.Counters)
	}

	if err := store.Revert(ctx, res.Changes); err == nil {
		t.Fatalf("expected revert persist error")
	}
	if got := store.ExportState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("revert must be rolled back, counters %+v", got.Counters)
	}

	if err := store.Restore(ctx, domain.Snapshot{}); err == nil {
		t.Fatalf("expected restore persist error")
	}
	if got := store.ExportState(); !reflect.DeepEqual(got, want) {
		t.Fatalf("restore must be rolled back, counters %+v", got.Counters)
	}
}
