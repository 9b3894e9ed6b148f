// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"places_backend/internal/domain"
	"places_backend/platform/events"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// Wildcard subscribes a handler to every event.
const Wildcard = events.Wildcard

// =============================================================================
// History Domain Events
// =============================================================================

// HistoryChanged is published after every in-memory history mutation. Items
// is the full list, most recent first.
type HistoryChanged struct {
	BaseEvent
	Reason string         `json:"reason"`
	Items  []domain.Place `json:"items"`
}

func (e HistoryChanged) EventName() string { return "history.changed" }

// SelectionChanged is published when the selected place is set or cleared.
type SelectionChanged struct {
	BaseEvent
	Place *domain.Place `json:"place,omitempty"`
}

func (e SelectionChanged) EventName() string { return "selection.changed" }

// =============================================================================
// Selection Attempt Events
// =============================================================================

// SelectionResolving is published when a slot starts resolving a place id.
type SelectionResolving struct {
	BaseEvent
	Slot        string `json:"slot"`
	PlaceID     string `json:"placeId"`
	Description string `json:"description,omitempty"`
	Token       uint64 `json:"token"`
}

func (e SelectionResolving) EventName() string { return "selection.resolving" }

// SelectionSucceeded is published when the current attempt of a slot commits.
type SelectionSucceeded struct {
	BaseEvent
	Slot  string       `json:"slot"`
	Place domain.Place `json:"place"`
	Token uint64       `json:"token"`
}

func (e SelectionSucceeded) EventName() string { return "selection.succeeded" }

// SelectionFailed is published when the current attempt of a slot could not
// be resolved. Nothing was mutated.
type SelectionFailed struct {
	BaseEvent
	Slot    string `json:"slot"`
	PlaceID string `json:"placeId"`
	Reason  string `json:"reason"`
	Token   uint64 `json:"token"`
}

func (e SelectionFailed) EventName() string { return "selection.failed" }

// =============================================================================
// Places Lookup Events
// =============================================================================

// LookupFailed is published whenever a provider call is degraded to an empty
// or absent result.
type LookupFailed struct {
	BaseEvent
	Operation string `json:"operation"`
	Error     string `json:"error"`
}

func (e LookupFailed) EventName() string { return "places.lookup_failed" }

// AdvisoryChanged is published when the credential advisory is raised or lifted.
type AdvisoryChanged struct {
	BaseEvent
	Active  bool   `json:"active"`
	Message string `json:"message,omitempty"`
}

func (e AdvisoryChanged) EventName() string { return "places.advisory_changed" }
