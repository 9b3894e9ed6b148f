package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskHistoryPersistRetry = "history.persist_retry"

// HistoryPersistRetryPayload asks the worker to write the in-memory history
// of Key to the store again.
type HistoryPersistRetryPayload struct {
	Key         string    `json:"key"`
	RequestedAt time.Time `json:"requestedAt"`
}

func NewHistoryPersistRetryTask(payload HistoryPersistRetryPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHistoryPersistRetry, data), nil
}

func ParseHistoryPersistRetryPayload(task *asynq.Task) (HistoryPersistRetryPayload, error) {
	var payload HistoryPersistRetryPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HistoryPersistRetryPayload{}, err
	}
	return payload, nil
}
