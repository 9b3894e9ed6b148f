// Package storage provides the string key-value stores the search history is
// persisted in. Every backend satisfies KeyValueStore; Open picks one from
// configuration.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// KeyValueStore is an asynchronous string key-value store.
type KeyValueStore interface {
	// Get returns the value for key. found is false when the key is absent;
	// absence is not an error.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key succeeds.
	Remove(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// Config defines the configuration interface for the MinIO backend.
type Config interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	IsMinIOEnabled() bool
}

const healthKey = "healthcheck"

// HealthCheck adapts a store to the readiness probe by reading a sentinel key.
type HealthCheck struct {
	store KeyValueStore
}

func NewHealthCheck(store KeyValueStore) *HealthCheck {
	return &HealthCheck{store: store}
}

// Ping succeeds when the backend answers a read; the key need not exist.
func (h *HealthCheck) Ping(ctx context.Context) error {
	_, _, err := h.store.Get(ctx, healthKey)
	return err
}
