// Package sqlite persists the document store to a single SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"dnacore/internal/document"
	"dnacore/internal/infra/persistence"
	"dnacore/pkg/domain"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var _ domain.PersistentStore = (*Store)(nil)

// DefaultPath is used when NewStore is given an empty path.
const DefaultPath = "dnacore.db"

// Store keeps the document in memory and snapshots it to SQLite as JSON
// buckets after every successful mutation.
type Store struct {
	*document.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) the database at path and hydrates the document
// from any saved snapshot.
func NewStore(path string, engine *domain.RulesEngine) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	s := &Store{Store: document.NewStore(engine), db: db, path: path}
	if err := s.load(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	snapshot, found, err := persistence.DecodeBuckets(payloads)
	if err != nil || !found {
		return err
	}
	if err := s.Store.Restore(ctx, snapshot); err != nil {
		return fmt.Errorf("restore %s: %w", s.path, err)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	payloads, err := persistence.EncodeBuckets(s.ExportState())
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range persistence.Buckets {
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`, bucket, payloads[bucket]); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// RunInTransaction applies fn, then snapshots the document to SQLite if it
// committed. The in-memory document is rolled back when the snapshot fails.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx domain.Transaction) error) (domain.Result, error) {
	var res domain.Result
	err := s.mutate(ctx, func() error {
		var err error
		res, err = s.Store.RunInTransaction(ctx, fn)
		return err
	})
	if err != nil {
		return domain.Result{Violations: res.Violations}, err
	}
	return res, nil
}

// Revert undoes changes and persists the result.
func (s *Store) Revert(ctx context.Context, changes []domain.Change) error {
	return s.mutate(ctx, func() error { return s.Store.Revert(ctx, changes) })
}

// Replay reapplies changes and persists the result.
func (s *Store) Replay(ctx context.Context, changes []domain.Change) error {
	return s.mutate(ctx, func() error { return s.Store.Replay(ctx, changes) })
}

// Restore replaces the document and persists it.
func (s *Store) Restore(ctx context.Context, snapshot domain.Snapshot) error {
	return s.mutate(ctx, func() error { return s.Store.Restore(ctx, snapshot) })
}

// mutate runs apply and persists the outcome. A failed write puts the
// previous document back so memory never runs ahead of the database.
func (s *Store) mutate(ctx context.Context, apply func() error) error {
	prev := s.Store.ExportState()
	if err := apply(); err != nil {
		return err
	}
	if err := s.persist(ctx); err != nil {
		s.Store.ImportState(prev)
		return err
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }
