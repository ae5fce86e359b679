package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Queue and task type identifiers.
const (
	QueueDefault = "default"

	TaskDashboardWarmup = "analytics:dashboard_warmup"
)

// DashboardWarmupPayload scopes a warmup run.
type DashboardWarmupPayload struct {
	// Months is the rollup window to precompute; zero means the default.
	Months int `json:"months"`
}

// NewDashboardWarmupTask builds the warmup task.
func NewDashboardWarmupTask(payload DashboardWarmupPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDashboardWarmup, raw, asynq.Queue(QueueDefault)), nil
}
