// Package archivetest holds the behaviour every archive driver must share.
package archivetest

import (
	"bytes"
	"context"
	"dnacore/internal/archive"
	"errors"
	"io"
	"testing"
)

// RunContract exercises a fresh, empty store through the archive.Store
// contract.
func RunContract(t *testing.T, store archive.Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Head(ctx, "designs/missing.json"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from head, got %v", err)
	}
	if _, _, err := store.Get(ctx, "designs/missing.json"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get, got %v", err)
	}
	if ok, err := store.Delete(ctx, "designs/missing.json"); err != nil || ok {
		t.Fatalf("expected delete of missing key to report false, got %v %v", ok, err)
	}

	payload := []byte(`{"format":"dnacore-design"}`)
	opts := archive.PutOptions{ContentType: archive.ContentType, Metadata: map[string]string{"strands": "3"}}
	info, err := store.Put(ctx, "designs/a.json", bytes.NewReader(payload), opts)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if info.Key != "designs/a.json" || info.Size != int64(len(payload)) {
		t.Fatalf("unexpected info %+v", info)
	}
	if _, err := store.Put(ctx, "designs/a.json", bytes.NewReader(payload), opts); !errors.Is(err, archive.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
	if _, err := store.Put(ctx, "other/b.json", bytes.NewReader([]byte("{}")), archive.PutOptions{}); err != nil {
		t.Fatalf("put second: %v", err)
	}

	got, rc, err := store.Get(ctx, "designs/a.json")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	data, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil || !bytes.Equal(data, payload) {
		t.Fatalf("unexpected content %q %v", data, err)
	}
	if got.ContentType != archive.ContentType || got.Metadata["strands"] != "3" {
		t.Fatalf("metadata not preserved: %+v", got)
	}

	head, err := store.Head(ctx, "designs/a.json")
	if err != nil || head.Size != int64(len(payload)) {
		t.Fatalf("head: %+v %v", head, err)
	}

	list, err := store.List(ctx, "designs/")
	if err != nil || len(list) != 1 || list[0].Key != "designs/a.json" {
		t.Fatalf("list prefix: %+v %v", list, err)
	}
	all, err := store.List(ctx, "")
	if err != nil || len(all) != 2 || all[0].Key != "designs/a.json" {
		t.Fatalf("list all: %+v %v", all, err)
	}

	if ok, err := store.Delete(ctx, "designs/a.json"); err != nil || !ok {
		t.Fatalf("delete: %v %v", ok, err)
	}
	if _, err := store.Head(ctx, "designs/a.json"); !errors.Is(err, archive.ErrNotFound) {
		t.Fatalf("expected deleted key to be gone, got %v", err)
	}
}
