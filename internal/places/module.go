package places

import (
	"context"

	"places_backend/internal/events"
	apphttp "places_backend/internal/http"
	"places_backend/internal/places/client"
	"places_backend/internal/places/handler"
	"places_backend/internal/places/service"
	"places_backend/platform/config"
	"places_backend/platform/logger"
)

// Module is the place lookup bounded context module.
type Module struct {
	service *service.Service
	handler *handler.Handler
	log     *logger.Logger
}

// NewModule creates the lookup client, service and HTTP handler.
func NewModule(cfg config.PlacesConfig, bus events.Bus, log *logger.Logger) *Module {
	apiClient := client.New(cfg.GetPlacesBaseURL(), cfg.GetGoogleMapsAPIKey(), cfg.GetPlacesTimeout(), log)
	limiter := service.NewLimiter(cfg.GetPlacesRateQPS(), cfg.GetPlacesRateBurst())
	svc := service.New(apiClient, limiter, bus, log)

	return &Module{
		service: svc,
		handler: handler.New(svc),
		log:     log,
	}
}

// Service returns the lookup service for other modules.
func (m *Module) Service() *service.Service {
	return m.service
}

// CheckCredential runs the startup credential probe. A failing probe is
// logged and never stops startup.
func (m *Module) CheckCredential(ctx context.Context) {
	advisory, err := m.service.CheckCredential(ctx)
	if err != nil {
		m.log.Warn("places credential probe failed", "error", err)
		return
	}
	if advisory.Active {
		m.log.Warn("places lookups disabled", "reason", advisory.Message)
	}
}

func (m *Module) Name() string {
	return "places"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/places")
	group.GET("/suggest", m.handler.Suggest)
	group.GET("/search", m.handler.Search)
	group.GET("/photo-url", m.handler.PhotoURL)
	group.GET("/advisory", m.handler.GetAdvisory)
	group.POST("/advisory/check", m.handler.CheckAdvisory)
	group.DELETE("/advisory", m.handler.ClearAdvisory)
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ Lookup         = (*service.Service)(nil)
)
