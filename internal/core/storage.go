package core

import (
	"context"
	"dnacore/internal/archive"
	"dnacore/internal/archive/fs"
	"dnacore/internal/archive/memory"
	"dnacore/internal/archive/s3"
	"dnacore/internal/config"
	"dnacore/internal/document"
	"dnacore/internal/infra/persistence/postgres"
	"dnacore/internal/infra/persistence/sqlite"
	"dnacore/pkg/domain"
	"fmt"
)

// OpenPersistentStore selects a document store backend from cfg. A nil engine
// gets the default invariant rules.
func OpenPersistentStore(cfg config.StorageConfig, engine *domain.RulesEngine) (domain.PersistentStore, error) {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	switch cfg.Driver {
	case config.StorageMemory, "":
		return document.NewStore(engine), nil
	case config.StorageSQLite:
		store, err := sqlite.NewStore(cfg.SQLitePath, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoragePostgres:
		store, err := postgres.NewStore(cfg.PostgresDSN, engine)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
}

// OpenArchive selects a design archive backend from cfg.
func OpenArchive(ctx context.Context, cfg config.ArchiveConfig) (archive.Store, error) {
	switch cfg.Driver {
	case config.ArchiveFS, "":
		store, err := fs.New(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.ArchiveMemory:
		return memory.New(), nil
	case config.ArchiveS3:
		store, err := s3.New(ctx, s3.Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			PathStyle: cfg.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive driver %s", cfg.Driver)
	}
}
