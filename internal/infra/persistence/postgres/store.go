// Package postgres provides a Postgres-backed document store that mirrors the
// in-memory semantics and snapshots the design into a JSONB state table.
package postgres

import (
	"context"
	"database/sql"
	"dnacore/internal/document"
	"dnacore/internal/infra/persistence"
	"dnacore/pkg/domain"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
)

// Compile-time contract assertion ensuring the store satisfies the domain interface.
var _ domain.PersistentStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	// DefaultDSN is used when NewStore is given an empty DSN.
	DefaultDSN = "postgres://localhost/dnacore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists the document to Postgres while reusing the in-memory
// implementation for transactions.
type Store struct {
	*document.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using dsn (falls back to DefaultDSN),
// ensures the state table exists and hydrates the document from any snapshot.
func NewStore(dsn string, engine *domain.RulesEngine) (*Store, error) {
	if dsn == "" {
		dsn = DefaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	doc, err := hydrate(context.Background(), db, engine)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Store: doc, db: db}, nil
}

// RunInTransaction applies fn, then snapshots the document to Postgres if it
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

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

func hydrate(ctx context.Context, db *sql.DB, engine *domain.RulesEngine) (*document.Store, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureStateTable(ctx, db); err != nil {
		return nil, err
	}
	snapshot, found, err := loadSnapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	doc := document.NewStore(engine)
	if found {
		if err := doc.Restore(ctx, snapshot); err != nil {
			return nil, fmt.Errorf("restore snapshot: %w", err)
		}
	}
	return doc, nil
}

func ensureStateTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure state table: %w", err)
	}
	return nil
}

func loadSnapshot(ctx context.Context, db *sql.DB) (domain.Snapshot, bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	payloads := make(map[string][]byte)
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return domain.Snapshot{}, false, fmt.Errorf("scan state: %w", err)
		}
		payloads[bucket] = payload
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("iterate state: %w", err)
	}
	return persistence.DecodeBuckets(payloads)
}

func (s *Store) persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payloads, err := persistence.EncodeBuckets(s.ExportState())
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, bucket := range persistence.Buckets {
		if _, err := tx.ExecContext(ctx, `INSERT INTO state(bucket,payload) VALUES($1,$2) ON CONFLICT(bucket) DO UPDATE SET payload=EXCLUDED.payload`, bucket, payloads[bucket]); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
