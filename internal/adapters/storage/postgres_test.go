package storage

import (
	"context"
	"os"
	"testing"

	"places_backend/platform/config"
	"places_backend/platform/logger"
)

func TestPostgresStoreRejectsBadKeyBeforeQuery(t *testing.T) {
	store := NewPostgresStore(nil, false)
	ctx := context.Background()

	if _, _, err := store.Get(ctx, "../escape"); err == nil {
		t.Fatalf("expected get with path-like key to fail")
	}
	if err := store.Set(ctx, "", "x"); err == nil {
		t.Fatalf("expected set with empty key to fail")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("expected close of a borrowed pool to succeed, got %v", err)
	}
}

// Runs against a live database when HISTORY_TEST_DATABASE_URL is set.
func TestPostgresStore(t *testing.T) {
	url := os.Getenv("HISTORY_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("HISTORY_TEST_DATABASE_URL not set")
	}

	cfg := &config.Config{HistoryStore: config.StorePostgres, DatabaseURL: url}
	store, err := Open(context.Background(), cfg, logger.Discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	runStoreContract(t, store)
}
