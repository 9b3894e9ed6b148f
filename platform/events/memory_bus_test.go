package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"places_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
	seq  int
}

func (e testEvent) EventName() string { return e.name }

func TestPublishPreservesOrderAndWildcard(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	defer bus.Close()

	named := make(chan int, 10)
	all := make(chan string, 10)
	bus.Subscribe("history.changed", HandlerFunc(func(_ context.Context, e Event) error {
		named <- e.(testEvent).seq
		return nil
	}))
	bus.Subscribe(Wildcard, HandlerFunc(func(_ context.Context, e Event) error {
		all <- e.EventName()
		return nil
	}))

	for i := 0; i < 3; i++ {
		bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "history.changed", seq: i})
	}
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "selection.changed"})

	for want := 0; want < 3; want++ {
		select {
		case got := <-named:
			if got != want {
				t.Fatalf("expected seq %d, got %d", want, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", want)
		}
	}

	seen := 0
	timeout := time.After(time.Second)
	for seen < 4 {
		select {
		case <-all:
			seen++
		case <-timeout:
			t.Fatalf("expected 4 wildcard deliveries, got %d", seen)
		}
	}
}

func TestPublishSyncJoinsErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	defer bus.Close()

	boom := errors.New("boom")
	bus.Subscribe("x", HandlerFunc(func(context.Context, Event) error { return boom }))

	err := bus.PublishSync(context.Background(), testEvent{name: "x"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined handler error, got %v", err)
	}
}
