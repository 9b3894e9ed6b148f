// Package selection resolves a chosen place id into a Place and commits it to
// the history and the selected slot. A newer attempt for the same slot
// supersedes an older one; the older result is discarded when it arrives.
package selection

import (
	"context"
	"strings"
	"sync"

	"places_backend/internal/domain"
	"places_backend/internal/events"
	"places_backend/internal/places"
	"places_backend/platform/apperr"
	"places_backend/platform/logger"
)

// DefaultSlot is used when a request names no slot.
const DefaultSlot = "main"

// State is the lifecycle of one selection attempt.
type State string

const (
	StateIdle       State = "idle"
	StateResolving  State = "resolving"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
	StateSuperseded State = "superseded"
)

// Failure reasons reported in Attempt.Reason.
const (
	ReasonNotFound    = "details_unavailable"
	ReasonNoGeometry  = "missing_geometry"
	ReasonInvalid     = "invalid_place"
	ReasonUnavailable = "lookup_disabled"
)

// Committer is the part of the history cache the coordinator writes to.
// Load must be idempotent once the stored list has been read.
type Committer interface {
	Load(ctx context.Context) []domain.Place
	CommitSelection(ctx context.Context, place domain.Place) error
}

// Request starts an attempt. Description is shown while resolving.
type Request struct {
	Slot        string `json:"slot"`
	PlaceID     string `json:"placeId" validate:"placeid"`
	Description string `json:"description"`
}

// Attempt is the current state of a slot.
type Attempt struct {
	Slot        string        `json:"slot"`
	State       State         `json:"state"`
	PlaceID     string        `json:"placeId,omitempty"`
	Description string        `json:"description,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Token       uint64        `json:"token"`
	Place       *domain.Place `json:"place,omitempty"`
}

// Outcome is what a finished call observed. Superseded means a newer attempt
// took over the slot and this result was dropped.
type Outcome struct {
	State  State         `json:"state"`
	Place  *domain.Place `json:"place,omitempty"`
	Reason string        `json:"reason,omitempty"`
	Token  uint64        `json:"token"`
}

// Coordinator runs selection attempts per slot.
type Coordinator struct {
	lookup places.Lookup
	cache  Committer
	bus    events.Bus
	log    *logger.Logger

	mu    sync.Mutex
	slots map[string]*Attempt
	next  uint64
}

// New creates a coordinator.
func New(lookup places.Lookup, cache Committer, bus events.Bus, log *logger.Logger) *Coordinator {
	return &Coordinator{
		lookup: lookup,
		cache:  cache,
		bus:    bus,
		log:    log,
		slots:  make(map[string]*Attempt),
	}
}

// SelectByID resolves req.PlaceID and, if this attempt is still current when
// the lookup returns, commits the place.
func (c *Coordinator) SelectByID(ctx context.Context, req Request) (Outcome, error) {
	slot := normalizeSlot(req.Slot)
	placeID := strings.TrimSpace(req.PlaceID)
	if placeID == "" {
		return Outcome{}, apperr.Validation("placeId is required")
	}
	if c.lookup.AdvisoryActive() {
		return Outcome{}, apperr.Unavailable("place lookup is disabled until the API key is fixed")
	}

	ctx = context.WithValue(ctx, logger.SlotKey, slot)
	token := c.begin(ctx, slot, placeID, strings.TrimSpace(req.Description))

	detail, ok := c.lookup.Details(ctx, placeID)
	if !ok {
		return c.fail(ctx, slot, token, placeID, ReasonNotFound), nil
	}

	place, err := detail.ToPlace(placeID)
	if err != nil {
		reason := ReasonInvalid
		if !detail.HasGeometry() {
			reason = ReasonNoGeometry
		}
		return c.fail(ctx, slot, token, placeID, reason), nil
	}

	return c.commit(ctx, slot, token, place)
}

// SelectPlace commits an already-resolved place without a lookup. It still
// supersedes any attempt in flight for the slot.
func (c *Coordinator) SelectPlace(ctx context.Context, slot string, place domain.Place) (Outcome, error) {
	slot = normalizeSlot(slot)
	if err := place.Validate(); err != nil {
		return Outcome{}, apperr.Validation(err.Error())
	}

	ctx = context.WithValue(ctx, logger.SlotKey, slot)
	token := c.begin(ctx, slot, place.PlaceID, place.Name)
	return c.commit(ctx, slot, token, place)
}

// Status returns the latest attempt of slot.
func (c *Coordinator) Status(slot string) Attempt {
	slot = normalizeSlot(slot)

	c.mu.Lock()
	defer c.mu.Unlock()

	if a, ok := c.slots[slot]; ok {
		cp := *a
		return cp
	}
	return Attempt{Slot: slot, State: StateIdle}
}

func (c *Coordinator) begin(ctx context.Context, slot, placeID, description string) uint64 {
	c.mu.Lock()
	c.next++
	token := c.next
	c.slots[slot] = &Attempt{
		Slot:        slot,
		State:       StateResolving,
		PlaceID:     placeID,
		Description: description,
		Token:       token,
	}
	c.publish(ctx, events.SelectionResolving{
		BaseEvent:   events.NewBaseEvent(),
		Slot:        slot,
		PlaceID:     placeID,
		Description: description,
		Token:       token,
	})
	c.mu.Unlock()

	return token
}

// commit holds the coordinator lock across the cache write, so a newer
// attempt cannot begin between the token check and the commit. The stored
// list is read before taking the lock so a slow store never blocks Status or
// other slots.
func (c *Coordinator) commit(ctx context.Context, slot string, token uint64, place domain.Place) (Outcome, error) {
	c.cache.Load(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(slot, token) {
		c.log.WithContext(ctx).Debug("selection superseded", "placeId", place.PlaceID, "token", token)
		return Outcome{State: StateSuperseded, Token: token}, nil
	}

	if err := c.cache.CommitSelection(ctx, place); err != nil {
		c.markFailedLocked(ctx, slot, token, place.PlaceID, ReasonInvalid)
		return Outcome{}, err
	}

	a := c.slots[slot]
	a.State = StateSucceeded
	a.Place = &place
	c.publish(ctx, events.SelectionSucceeded{
		BaseEvent: events.NewBaseEvent(),
		Slot:      slot,
		Place:     place,
		Token:     token,
	})

	return Outcome{State: StateSucceeded, Place: &place, Token: token}, nil
}

func (c *Coordinator) fail(ctx context.Context, slot string, token uint64, placeID, reason string) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.currentLocked(slot, token) {
		return Outcome{State: StateSuperseded, Token: token}
	}

	c.markFailedLocked(ctx, slot, token, placeID, reason)
	return Outcome{State: StateFailed, Reason: reason, Token: token}
}

func (c *Coordinator) markFailedLocked(ctx context.Context, slot string, token uint64, placeID, reason string) {
	a := c.slots[slot]
	a.State = StateFailed
	a.Reason = reason

	c.log.WithContext(ctx).Info("selection failed", "placeId", placeID, "reason", reason)
	c.publish(ctx, events.SelectionFailed{
		BaseEvent: events.NewBaseEvent(),
		Slot:      slot,
		PlaceID:   placeID,
		Reason:    reason,
		Token:     token,
	})
}

func (c *Coordinator) currentLocked(slot string, token uint64) bool {
	a, ok := c.slots[slot]
	return ok && a.Token == token
}

func (c *Coordinator) publish(ctx context.Context, e events.Event) {
	if c.bus != nil {
		c.bus.Publish(ctx, e)
	}
}

func normalizeSlot(slot string) string {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return DefaultSlot
	}
	return slot
}
