// Command history-copy copies the persisted search history from one store
// backend to another, e.g. when moving from the file store to postgres.
//
//	history-copy -from file -to postgres [-merge]
//
// All other settings (paths, URLs, key) come from the usual environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"places_backend/internal/adapters/storage"
	"places_backend/internal/domain"
	"places_backend/internal/history"
	"places_backend/platform/config"
	"places_backend/platform/logger"
)

const copyTimeout = time.Minute

func main() {
	from := flag.String("from", "", "source store backend")
	to := flag.String("to", "", "destination store backend")
	merge := flag.Bool("merge", false, "merge into the destination history instead of replacing it")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting history copy", "from", *from, "to", *to, "merge", *merge)

	if *from == "" || *to == "" || *from == *to {
		log.Error("both -from and -to are required and must differ")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), copyTimeout)
	defer cancel()

	copied, err := copyHistory(ctx, withStore(cfg, *from), withStore(cfg, *to), *merge, log)
	if err != nil {
		log.Error("history copy failed", "error", err)
		os.Exit(1)
	}
	log.Info("history copy complete", "entries", copied)
}

func withStore(cfg *config.Config, backend string) *config.Config {
	clone := *cfg
	clone.HistoryStore = backend
	return &clone
}

// copyHistory loads the source list and replays it oldest first into the
// destination cache, so order, dedupe and the size cap follow the usual rules.
func copyHistory(ctx context.Context, src, dst *config.Config, merge bool, log *logger.Logger) (int, error) {
	srcStore, err := storage.Open(ctx, src, log)
	if err != nil {
		return 0, err
	}
	defer srcStore.Close()

	dstStore, err := storage.Open(ctx, dst, log)
	if err != nil {
		return 0, err
	}
	defer dstStore.Close()

	source := history.NewCache(srcStore, history.Options{Key: src.HistoryKey}, log)
	defer source.Close()
	items := source.Load(ctx)

	target := history.NewCache(dstStore, history.Options{Key: dst.HistoryKey}, log)
	defer target.Close()

	if !merge {
		target.Clear(ctx)
	}
	if err := replay(ctx, target, items); err != nil {
		return 0, err
	}

	if err := target.Flush(ctx); err != nil {
		return 0, fmt.Errorf("persist destination: %w", err)
	}
	return len(target.List()), nil
}

func replay(ctx context.Context, target *history.Cache, items []domain.Place) error {
	for i := len(items) - 1; i >= 0; i-- {
		if err := target.UpsertMostRecent(ctx, items[i]); err != nil {
			return fmt.Errorf("copy %s: %w", items[i].PlaceID, err)
		}
	}
	return nil
}
