package history

import (
	"context"

	"places_backend/internal/adapters/storage"
	"places_backend/internal/events"
	apphttp "places_backend/internal/http"
	"places_backend/platform/config"
	"places_backend/platform/logger"
	"places_backend/platform/validator"
)

// Module is the history bounded context module.
type Module struct {
	cache   *Cache
	handler *Handler
}

// NewModule creates the cache over store. retry may be nil, in which case a
// failed write is only logged and the next mutation overwrites it.
func NewModule(ctx context.Context, cfg config.HistoryConfig, store storage.KeyValueStore, retry RetryScheduler, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	cache := NewCache(store, Options{
		Key:        cfg.GetHistoryKey(),
		Bus:        bus,
		Retry:      retry,
		RetryDelay: cfg.GetHistoryRetryDelay(),
	}, log)

	items := cache.Load(ctx)
	log.Info("history loaded", "key", cache.Key(), "entries", len(items))

	return &Module{
		cache:   cache,
		handler: NewHandler(cache, val),
	}
}

// Cache returns the history cache for other modules.
func (m *Module) Cache() *Cache {
	return m.cache
}

// Close flushes pending writes.
func (m *Module) Close() {
	m.cache.Close()
}

func (m *Module) Name() string {
	return "history"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/history")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Add)
	group.POST("/delete", m.handler.Delete)
	group.DELETE("", m.handler.Clear)

	ctx.Protected.GET("/selection", m.handler.Selected)
}

var _ apphttp.Module = (*Module)(nil)
