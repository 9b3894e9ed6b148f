package http

import (
	"context"

	"places_backend/internal/events"
	"places_backend/platform/config"
	"places_backend/platform/logger"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is satisfied by storage.HealthCheck.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what cmd/api hands to router.New: the places, history, selection and
// stream modules plus the shared infrastructure they were built with.
type App struct {
	// Config carries CORS, listen address and the optional JWT secret.
	Config RouterConfig
	Logger *logger.Logger
	// Health is used for readiness checks against the history store. May be nil.
	Health HealthChecker
	// EventBus carries history, selection and advisory changes.
	EventBus events.Bus
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
