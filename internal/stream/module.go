package stream

import (
	"places_backend/internal/events"
	apphttp "places_backend/internal/http"
	"places_backend/platform/logger"
)

type Module struct {
	service *Service
}

// NewModule subscribes the stream to every bus event.
func NewModule(bus events.Bus, log *logger.Logger) *Module {
	svc := New(log)
	bus.Subscribe(events.Wildcard, svc)
	return &Module{service: svc}
}

func (m *Module) Name() string {
	return "stream"
}

func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) Close() {
	m.service.Close()
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/stream", m.service.Handler())
}
