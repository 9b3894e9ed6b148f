package selection

import (
	"places_backend/internal/events"
	apphttp "places_backend/internal/http"
	"places_backend/internal/places"
	"places_backend/platform/logger"
	"places_backend/platform/validator"
)

// Module is the selection bounded context module.
type Module struct {
	coord   *Coordinator
	handler *Handler
}

func NewModule(lookup places.Lookup, cache Committer, bus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	coord := New(lookup, cache, bus, log)
	return &Module{
		coord:   coord,
		handler: NewHandler(coord, val),
	}
}

// Coordinator returns the coordinator for other modules.
func (m *Module) Coordinator() *Coordinator {
	return m.coord
}

func (m *Module) Name() string {
	return "selection"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/selection")
	group.POST("", m.handler.SelectByID)
	group.POST("/place", m.handler.SelectPlace)
	group.GET("/status", m.handler.Status)
}

var _ apphttp.Module = (*Module)(nil)
