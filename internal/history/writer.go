package history

import (
	"context"
	"errors"
	"sync"
	"time"

	"places_backend/internal/adapters/storage"
	"places_backend/platform/logger"
)

const writeTimeout = 10 * time.Second

var errWriterClosed = errors.New("history writer is closed")

// RetryScheduler schedules a later re-persist of key after a failed write.
type RetryScheduler interface {
	SchedulePersistRetry(ctx context.Context, key string, delay time.Duration) error
}

// writeOp is one full-list snapshot, or a removal of the key.
type writeOp struct {
	version uint64
	remove  bool
	value   string
}

type flushWaiter struct {
	version uint64
	ch      chan struct{}
}

// Writer applies snapshots to the store from a single goroutine. Only the
// newest queued snapshot is kept, so the last committed write always matches
// the last mutation, whatever order the callers raced in.
type Writer struct {
	store      storage.KeyValueStore
	key        string
	retry      RetryScheduler
	retryDelay time.Duration
	log        *logger.Logger

	mu       sync.Mutex
	pending  *writeOp
	enqueued uint64
	applied  uint64
	lastErr  error
	waiters  []flushWaiter
	closed   bool
	signal   chan struct{}
	stop     chan struct{}
	done     chan struct{}
}

// NewWriter starts the writer goroutine. retry may be nil.
func NewWriter(store storage.KeyValueStore, key string, retry RetryScheduler, retryDelay time.Duration, log *logger.Logger) *Writer {
	w := &Writer{
		store:      store,
		key:        key,
		retry:      retry,
		retryDelay: retryDelay,
		log:        log,
		signal:     make(chan struct{}, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go w.run()
	return w
}

// Enqueue queues op. Ops older than one already queued are ignored. It never
// blocks, so callers may hold their own locks.
func (w *Writer) Enqueue(op writeOp) {
	w.mu.Lock()
	if w.closed || op.version <= w.enqueued {
		w.mu.Unlock()
		return
	}
	w.pending = &op
	w.enqueued = op.version
	w.mu.Unlock()

	select {
	case w.signal <- struct{}{}:
	default:
	}
}

// Flush waits until everything enqueued before the call has been attempted
// and returns the error of the latest attempt.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	if w.applied >= w.enqueued {
		err := w.lastErr
		w.mu.Unlock()
		return err
	}
	if w.closed {
		w.mu.Unlock()
		return errWriterClosed
	}
	waiter := flushWaiter{version: w.enqueued, ch: make(chan struct{})}
	w.waiters = append(w.waiters, waiter)
	w.mu.Unlock()

	select {
	case <-waiter.ch:
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.lastErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is still queued and stops the goroutine.
func (w *Writer) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return
	}
	w.closed = true
	w.mu.Unlock()

	close(w.stop)
	<-w.done
}

func (w *Writer) run() {
	defer close(w.done)
	for {
		select {
		case <-w.signal:
			w.drain()
		case <-w.stop:
			w.drain()
			w.releaseWaiters()
			return
		}
	}
}

func (w *Writer) drain() {
	for {
		w.mu.Lock()
		op := w.pending
		w.pending = nil
		w.mu.Unlock()

		if op == nil {
			return
		}

		err := w.apply(*op)

		w.mu.Lock()
		w.applied = op.version
		w.lastErr = err
		remaining := w.waiters[:0]
		for _, waiter := range w.waiters {
			if waiter.version <= w.applied {
				close(waiter.ch)
				continue
			}
			remaining = append(remaining, waiter)
		}
		w.waiters = remaining
		w.mu.Unlock()
	}
}

func (w *Writer) releaseWaiters() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, waiter := range w.waiters {
		close(waiter.ch)
	}
	w.waiters = nil
}

func (w *Writer) apply(op writeOp) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	var err error
	operation := "set"
	if op.remove {
		operation = "remove"
		err = w.store.Remove(ctx, w.key)
	} else {
		err = w.store.Set(ctx, w.key, op.value)
	}
	if err == nil {
		return nil
	}

	w.log.PersistenceFailure(operation, w.key, err)
	if w.retry != nil {
		if retryErr := w.retry.SchedulePersistRetry(ctx, w.key, w.retryDelay); retryErr != nil {
			w.log.Error("failed to schedule history persist retry", "key", w.key, "error", retryErr)
		}
	}
	return err
}
