package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskSessionsPrune is the task type that deletes expired session records.
	TaskSessionsPrune = "auth:sessions:prune"
)

// SessionsPrunePayload describes a prune request. Trigger is informational.
type SessionsPrunePayload struct {
	Trigger string `json:"trigger"`
}

// NewSessionsPruneTask constructs an Asynq task.
func NewSessionsPruneTask(trigger string) (*asynq.Task, error) {
	data, err := json.Marshal(SessionsPrunePayload{Trigger: trigger})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSessionsPrune, data, asynq.Queue(QueueDefault)), nil
}
