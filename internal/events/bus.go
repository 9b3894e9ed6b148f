package events

import (
	platformevents "places_backend/platform/events"
	"places_backend/platform/logger"
)

type InMemoryBus = platformevents.InMemoryBus

// NewInMemoryBus creates the process bus that history, selection and places
// publish on and the stream subscribes to.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
