package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"places_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type fakeResyncer struct {
	key   string
	err   error
	calls int
}

func (f *fakeResyncer) Key() string { return f.key }

func (f *fakeResyncer) Resync(context.Context) error {
	f.calls++
	return f.err
}

func newTask(t *testing.T, key string) *asynq.Task {
	t.Helper()
	task, err := NewHistoryPersistRetryTask(HistoryPersistRetryPayload{Key: key, RequestedAt: time.Now()})
	if err != nil {
		t.Fatalf("NewHistoryPersistRetryTask: %v", err)
	}
	return task
}

func TestPersistRetryResyncsMatchingKey(t *testing.T) {
	target := &fakeResyncer{key: "searchHistory"}
	w := &Worker{target: target, log: logger.Discard()}

	if err := w.handleHistoryPersistRetry(context.Background(), newTask(t, "searchHistory")); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if target.calls != 1 {
		t.Fatalf("expected one resync, got %d", target.calls)
	}
}

func TestPersistRetryReturnsStoreError(t *testing.T) {
	target := &fakeResyncer{key: "searchHistory", err: errors.New("disk full")}
	w := &Worker{target: target, log: logger.Discard()}

	if err := w.handleHistoryPersistRetry(context.Background(), newTask(t, "searchHistory")); err == nil {
		t.Fatalf("expected the store error so the task is retried")
	}
}

func TestPersistRetryIgnoresUnknownKey(t *testing.T) {
	target := &fakeResyncer{key: "searchHistory"}
	w := &Worker{target: target, log: logger.Discard()}

	if err := w.handleHistoryPersistRetry(context.Background(), newTask(t, "other")); err != nil {
		t.Fatalf("expected unknown key to be dropped, got %v", err)
	}
	if target.calls != 0 {
		t.Fatalf("expected no resync for unknown key")
	}
}

func TestPersistRetryRejectsBadPayload(t *testing.T) {
	w := &Worker{target: &fakeResyncer{}, log: logger.Discard()}

	err := w.handleHistoryPersistRetry(context.Background(), asynq.NewTask(TaskHistoryPersistRetry, []byte("{")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry for a bad payload, got %v", err)
	}
}

func TestNilClientIsNoop(t *testing.T) {
	var c *Client
	if err := c.SchedulePersistRetry(context.Background(), "searchHistory", time.Second); err != nil {
		t.Fatalf("expected nil client to be a no-op, got %v", err)
	}
}
