package storage

import (
	"context"
	"fmt"

	"places_backend/platform/config"
	"places_backend/platform/db"
	"places_backend/platform/logger"
)

// Open builds the backend named by cfg.GetHistoryStore().
func Open(ctx context.Context, cfg config.StoreConfig, log *logger.Logger) (KeyValueStore, error) {
	backend := cfg.GetHistoryStore()

	var (
		store KeyValueStore
		err   error
	)

	switch backend {
	case config.StoreMemory:
		store = NewMemoryStore()
	case config.StoreFile:
		store, err = NewFileStore(cfg.GetHistoryDir())
	case config.StoreSQLite:
		store, err = NewSQLiteStore(ctx, cfg.GetHistorySQLitePath())
	case config.StoreRedis:
		store, err = NewRedisStore(ctx, cfg.GetRedisURL(), cfg.GetRedisTLSInsecure(), cfg.GetHistoryRedisPrefix())
	case config.StorePostgres:
		store, err = openPostgres(ctx, cfg)
	case config.StoreMinIO:
		store, err = NewMinIOStore(ctx, cfg, cfg.GetHistoryMinIOBucket())
	default:
		return nil, fmt.Errorf("unknown history store %q", backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", backend, err)
	}

	log.Info("history store opened", "backend", backend)
	return store, nil
}

func openPostgres(ctx context.Context, cfg config.StoreConfig) (KeyValueStore, error) {
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return NewPostgresStore(pool, true), nil
}
