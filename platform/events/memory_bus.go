package events

import (
	"context"
	"errors"
	"sync"

	"places_backend/platform/logger"
)

const defaultQueueSize = 256

type envelope struct {
	ctx   context.Context
	event Event
}

// InMemoryBus is a single-process Bus. Publish hands events to one dispatch
// goroutine so handlers observe them in publish order; when the queue is full
// the event is dropped rather than blocking the publisher.
type InMemoryBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	queue    chan envelope
	done     chan struct{}
	once     sync.Once
	log      *logger.Logger
}

// NewInMemoryBus creates a bus and starts its dispatch goroutine.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	b := &InMemoryBus{
		handlers: make(map[string][]Handler),
		queue:    make(chan envelope, defaultQueueSize),
		done:     make(chan struct{}),
		log:      log,
	}
	go b.dispatch()
	return b
}

// Subscribe registers a handler for eventName.
func (b *InMemoryBus) Subscribe(eventName string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

// Publish queues the event for asynchronous, ordered delivery.
func (b *InMemoryBus) Publish(ctx context.Context, event Event) {
	select {
	case <-b.done:
		return
	default:
	}

	// Handlers outlive the publishing request.
	ctx = context.WithoutCancel(ctx)

	select {
	case b.queue <- envelope{ctx: ctx, event: event}:
	default:
		if b.log != nil {
			b.log.Warn("event dropped, bus queue full", "event", event.EventName())
		}
	}
}

// PublishSync runs every matching handler inline and joins their errors.
func (b *InMemoryBus) PublishSync(ctx context.Context, event Event) error {
	var errs []error
	for _, h := range b.matching(event.EventName()) {
		if err := h.Handle(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close stops the dispatch goroutine. Queued events that were not yet
// delivered are discarded.
func (b *InMemoryBus) Close() {
	b.once.Do(func() { close(b.done) })
}

func (b *InMemoryBus) dispatch() {
	for {
		select {
		case <-b.done:
			return
		case env := <-b.queue:
			for _, h := range b.matching(env.event.EventName()) {
				if err := h.Handle(env.ctx, env.event); err != nil && b.log != nil {
					b.log.Error("event handler failed", "event", env.event.EventName(), "error", err)
				}
			}
		}
	}
}

func (b *InMemoryBus) matching(name string) []Handler {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Handler, 0, len(b.handlers[name])+len(b.handlers[Wildcard]))
	out = append(out, b.handlers[name]...)
	if name != Wildcard {
		out = append(out, b.handlers[Wildcard]...)
	}
	return out
}

var _ Bus = (*InMemoryBus)(nil)
