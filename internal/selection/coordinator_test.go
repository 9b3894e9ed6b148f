package selection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"places_backend/internal/adapters/storage"
	"places_backend/internal/domain"
	"places_backend/internal/history"
	"places_backend/internal/places/client"
	placesservice "places_backend/internal/places/service"
	"places_backend/internal/places/transport"
	"places_backend/platform/apperr"
	"places_backend/platform/logger"
)

type fakeLookup struct {
	mu       sync.Mutex
	details  map[string]*transport.PlaceDetail
	gates    map[string]chan struct{}
	started  chan string
	advisory bool
	calls    int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		details: make(map[string]*transport.PlaceDetail),
		gates:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

func (f *fakeLookup) Details(_ context.Context, placeID string) (*transport.PlaceDetail, bool) {
	f.mu.Lock()
	f.calls++
	gate := f.gates[placeID]
	detail := f.details[placeID]
	f.mu.Unlock()

	f.started <- placeID
	if gate != nil {
		<-gate
	}
	if detail == nil {
		return nil, false
	}
	cp := *detail
	return &cp, true
}

func (f *fakeLookup) AdvisoryActive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.advisory
}

func (f *fakeLookup) add(id, name string, lat, lng float64) {
	f.details[id] = &transport.PlaceDetail{
		PlaceID:  id,
		Name:     name,
		Location: &transport.Location{Lat: lat, Lng: lng},
	}
}

func newTestCoordinator(t *testing.T, lookup *fakeLookup) (*Coordinator, *history.Cache) {
	t.Helper()
	cache := history.NewCache(storage.NewMemoryStore(), history.Options{}, logger.Discard())
	t.Cleanup(cache.Close)
	return New(lookup, cache, nil, logger.Discard()), cache
}

func TestStaleResultIsDiscarded(t *testing.T) {
	lookup := newFakeLookup()
	lookup.add("A", "Place A", 10, 10)
	lookup.add("B", "Place B", 20, 20)
	gate := make(chan struct{})
	lookup.gates["A"] = gate

	coord, cache := newTestCoordinator(t, lookup)
	ctx := context.Background()

	resultA := make(chan Outcome, 1)
	go func() {
		outcome, _ := coord.SelectByID(ctx, Request{PlaceID: "A"})
		resultA <- outcome
	}()
	if id := <-lookup.started; id != "A" {
		t.Fatalf("expected A to start first, got %s", id)
	}

	outB, err := coord.SelectByID(ctx, Request{PlaceID: "B"})
	if err != nil || outB.State != StateSucceeded {
		t.Fatalf("expected B to succeed, got %+v err=%v", outB, err)
	}

	close(gate)
	outA := <-resultA
	if outA.State != StateSuperseded {
		t.Fatalf("expected A to be superseded, got %+v", outA)
	}

	items := cache.List()
	if len(items) != 1 || items[0].PlaceID != "B" {
		t.Fatalf("expected history [B], got %+v", items)
	}
	if selected := cache.Selected(); selected == nil || selected.PlaceID != "B" {
		t.Fatalf("expected B selected, got %+v", selected)
	}
	if status := coord.Status(""); status.State != StateSucceeded || status.PlaceID != "B" {
		t.Fatalf("unexpected slot status %+v", status)
	}
}

func TestFailedResolutionLeavesStateUnchanged(t *testing.T) {
	lookup := newFakeLookup()
	coord, cache := newTestCoordinator(t, lookup)
	ctx := context.Background()

	before := domain.NewPlace("old", "Old", "", domain.NewCoordinates(5, 5, domain.DetailSpan), "")
	if err := cache.CommitSelection(ctx, before); err != nil {
		t.Fatalf("seed: %v", err)
	}

	outcome, err := coord.SelectByID(ctx, Request{PlaceID: "missing", Description: "Somewhere"})
	if err != nil {
		t.Fatalf("a failed resolution is not an error, got %v", err)
	}
	if outcome.State != StateFailed || outcome.Reason != ReasonNotFound {
		t.Fatalf("unexpected outcome %+v", outcome)
	}

	items := cache.List()
	if len(items) != 1 || items[0] != before {
		t.Fatalf("expected history unchanged, got %+v", items)
	}
	if selected := cache.Selected(); selected == nil || *selected != before {
		t.Fatalf("expected selection unchanged, got %+v", selected)
	}
	if status := coord.Status(DefaultSlot); status.State != StateFailed || status.Description != "Somewhere" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestMissingGeometryFails(t *testing.T) {
	lookup := newFakeLookup()
	lookup.details["p1"] = &transport.PlaceDetail{PlaceID: "p1", Name: "No geometry"}
	coord, cache := newTestCoordinator(t, lookup)

	outcome, _ := coord.SelectByID(context.Background(), Request{PlaceID: "p1"})
	if outcome.State != StateFailed || outcome.Reason != ReasonNoGeometry {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if len(cache.List()) != 0 || cache.Selected() != nil {
		t.Fatalf("expected no mutation")
	}
}

func TestAdvisoryBlocksSelection(t *testing.T) {
	lookup := newFakeLookup()
	lookup.advisory = true
	coord, _ := newTestCoordinator(t, lookup)

	_, err := coord.SelectByID(context.Background(), Request{PlaceID: "p1"})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
	if lookup.calls != 0 {
		t.Fatalf("expected no lookup while advisory is active")
	}
}

func TestSlotsAreIndependent(t *testing.T) {
	lookup := newFakeLookup()
	lookup.add("A", "Place A", 10, 10)
	lookup.add("B", "Place B", 20, 20)
	gate := make(chan struct{})
	lookup.gates["A"] = gate

	coord, cache := newTestCoordinator(t, lookup)
	ctx := context.Background()

	resultA := make(chan Outcome, 1)
	go func() {
		outcome, _ := coord.SelectByID(ctx, Request{Slot: "left", PlaceID: "A"})
		resultA <- outcome
	}()
	<-lookup.started

	if out, _ := coord.SelectByID(ctx, Request{Slot: "right", PlaceID: "B"}); out.State != StateSucceeded {
		t.Fatalf("expected B to succeed, got %+v", out)
	}
	close(gate)

	if out := <-resultA; out.State != StateSucceeded {
		t.Fatalf("expected A in another slot to succeed, got %+v", out)
	}
	if len(cache.List()) != 2 {
		t.Fatalf("expected both places in history, got %+v", cache.List())
	}
}

func TestSelectPlaceSupersedesInFlightLookup(t *testing.T) {
	lookup := newFakeLookup()
	lookup.add("A", "Place A", 10, 10)
	gate := make(chan struct{})
	lookup.gates["A"] = gate

	coord, cache := newTestCoordinator(t, lookup)
	ctx := context.Background()

	resultA := make(chan Outcome, 1)
	go func() {
		outcome, _ := coord.SelectByID(ctx, Request{PlaceID: "A"})
		resultA <- outcome
	}()
	<-lookup.started

	known := domain.NewPlace("H", "From history", "", domain.NewCoordinates(3, 4, domain.DetailSpan), "")
	if out, err := coord.SelectPlace(ctx, "", known); err != nil || out.State != StateSucceeded {
		t.Fatalf("expected shortcut to succeed, got %+v err=%v", out, err)
	}
	close(gate)

	if out := <-resultA; out.State != StateSuperseded {
		t.Fatalf("expected A superseded, got %+v", out)
	}
	if selected := cache.Selected(); selected == nil || selected.PlaceID != "H" {
		t.Fatalf("expected H selected, got %+v", selected)
	}
	if lookup.calls != 1 {
		t.Fatalf("expected the shortcut not to call the lookup, got %d calls", lookup.calls)
	}
}

func TestSelectPlaceRejectsInvalidPlace(t *testing.T) {
	coord, _ := newTestCoordinator(t, newFakeLookup())

	_, err := coord.SelectPlace(context.Background(), "", domain.Place{PlaceID: "p1"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSelectEndToEnd(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/place/details/json" || r.URL.Query().Get("place_id") != "p1" {
			_, _ = w.Write([]byte(`{"status":"NOT_FOUND"}`))
			return
		}
		_, _ = w.Write([]byte(`{"status":"OK","result":{"place_id":"p1","name":"Cafe X","geometry":{"location":{"lat":1,"lng":2}}}}`))
	}))
	defer provider.Close()

	log := logger.Discard()
	lookup := placesservice.New(client.New(provider.URL, "key-1", time.Second, log), nil, nil, log)
	cache := history.NewCache(storage.NewMemoryStore(), history.Options{}, log)
	defer cache.Close()
	coord := New(lookup, cache, nil, log)

	outcome, err := coord.SelectByID(context.Background(), Request{PlaceID: "p1", Description: "Cafe X"})
	if err != nil || outcome.State != StateSucceeded {
		t.Fatalf("expected success, got %+v err=%v", outcome, err)
	}

	want := domain.NewPlace("p1", "Cafe X", "", domain.NewCoordinates(1, 2, domain.DetailSpan), "")
	items := cache.List()
	if len(items) != 1 || items[0] != want {
		t.Fatalf("expected history [%+v], got %+v", want, items)
	}
	if selected := cache.Selected(); selected == nil || *selected != want {
		t.Fatalf("expected selected %+v, got %+v", want, selected)
	}
}

func TestCommittedPlaceKeepsRequestedID(t *testing.T) {
	lookup := newFakeLookup()
	lookup.details["p1"] = &transport.PlaceDetail{
		PlaceID:  "p1-canonical",
		Name:     "Cafe X",
		Location: &transport.Location{Lat: 1, Lng: 2},
	}
	coord, cache := newTestCoordinator(t, lookup)
	ctx := context.Background()

	outcome, err := coord.SelectByID(ctx, Request{PlaceID: "p1"})
	if err != nil || outcome.State != StateSucceeded {
		t.Fatalf("expected success, got %+v err=%v", outcome, err)
	}
	if outcome.Place.PlaceID != "p1" {
		t.Fatalf("expected outcome keyed by p1, got %q", outcome.Place.PlaceID)
	}

	items := cache.List()
	if len(items) != 1 || items[0].PlaceID != "p1" {
		t.Fatalf("expected history [p1], got %+v", items)
	}
	if selected := cache.Selected(); selected == nil || selected.PlaceID != "p1" {
		t.Fatalf("expected p1 selected, got %+v", selected)
	}
	if status := coord.Status(""); status.PlaceID != items[0].PlaceID {
		t.Fatalf("expected status id %q to match history, got %q", items[0].PlaceID, status.PlaceID)
	}

	if removed := cache.DeleteMany(ctx, []string{"p1"}); removed != 1 {
		t.Fatalf("expected delete by requested id to remove one entry, got %d", removed)
	}
}

// blockingLoadCache reads the slot status from inside Load; that only
// returns if the coordinator lock is free while the history loads.
type blockingLoadCache struct {
	*history.Cache
	coord  *Coordinator
	loaded chan State
}

func (b *blockingLoadCache) Load(ctx context.Context) []domain.Place {
	b.loaded <- b.coord.Status("").State
	return b.Cache.Load(ctx)
}

func TestHistoryLoadRunsOutsideCoordinatorLock(t *testing.T) {
	lookup := newFakeLookup()
	lookup.add("A", "Place A", 10, 10)

	cache := history.NewCache(storage.NewMemoryStore(), history.Options{}, logger.Discard())
	t.Cleanup(cache.Close)
	wrapped := &blockingLoadCache{Cache: cache, loaded: make(chan State, 1)}
	coord := New(lookup, wrapped, nil, logger.Discard())
	wrapped.coord = coord

	done := make(chan Outcome, 1)
	go func() {
		outcome, _ := coord.SelectByID(context.Background(), Request{PlaceID: "A"})
		done <- outcome
	}()

	select {
	case state := <-wrapped.loaded:
		if state != StateResolving {
			t.Fatalf("expected slot to be resolving during load, got %s", state)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("history load blocked on the coordinator lock")
	}

	select {
	case outcome := <-done:
		if outcome.State != StateSucceeded {
			t.Fatalf("expected success, got %+v", outcome)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("selection did not finish")
	}
}
