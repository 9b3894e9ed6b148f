package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"places_backend/internal/adapters/storage"
	"places_backend/internal/events"
	"places_backend/internal/history"
	apphttp "places_backend/internal/http"
	"places_backend/internal/http/router"
	"places_backend/internal/places"
	"places_backend/internal/scheduler"
	"places_backend/internal/selection"
	"places_backend/internal/stream"
	"places_backend/platform/config"
	"places_backend/platform/logger"
	"places_backend/platform/validator"

	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "historyStore", cfg.HistoryStore)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var store storage.KeyValueStore
	if err := withRetry(ctx, log, "history store", 5, 2*time.Second, func() error {
		s, err := storage.Open(ctx, cfg, log)
		if err != nil {
			return err
		}
		store = s
		return nil
	}); err != nil {
		log.Error("failed to open history store", "error", err)
		panic("failed to open history store: " + err.Error())
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("failed to close history store", "error", err)
		}
	}()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	defer eventBus.Close()

	retryScheduler, closeScheduler := initRetryScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	// Stream subscribes first so it sees the startup load and advisory.
	streamModule := stream.NewModule(eventBus, log)
	defer streamModule.Close()

	historyModule := history.NewModule(ctx, cfg, store, retryScheduler, eventBus, val, log)
	defer historyModule.Close()

	placesModule := places.NewModule(cfg, eventBus, log)
	placesModule.CheckCredential(ctx)

	selectionModule := selection.NewModule(placesModule.Service(), historyModule.Cache(), eventBus, val, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   storage.NewHealthCheck(store),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			placesModule,
			historyModule,
			selectionModule,
			streamModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		streamModule.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := historyModule.Cache().Flush(shutdownCtx); err != nil {
			log.Warn("history not fully persisted at shutdown", "error", err)
		}
		return nil
	})

	if retryScheduler != nil {
		worker, err := scheduler.NewWorker(cfg, historyModule.Cache(), log)
		if err != nil {
			log.Error("failed to initialize retry worker", "error", err)
		} else {
			g.Go(func() error {
				worker.Run(gctx)
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		panic(err.Error())
	}
}

// initRetryScheduler returns nil when redis is not configured; failed history
// writes are then only logged and healed by the next mutation.
func initRetryScheduler(cfg config.SchedulerConfig, log *logger.Logger) (history.RetryScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; history persist retries disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize retry scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
