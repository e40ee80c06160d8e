package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRevenueWarmup re-primes the rolling-year revenue cache.
	TaskRevenueWarmup = "revenue:warmup"
	// TaskRevenueIntegrity rechecks stored aggregates against raw invoices.
	TaskRevenueIntegrity = "revenue:integrity"
)

// RevenueWarmupPayload configures a cache warmup run.
type RevenueWarmupPayload struct {
	Reason string `json:"reason,omitempty"`
}

// NewRevenueWarmupTask constructs an Asynq task for cache warmup.
func NewRevenueWarmupTask(payload RevenueWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRevenueWarmup, data), nil
}

// RevenueIntegrityPayload configures an integrity scan run.
type RevenueIntegrityPayload struct {
	WindowMonths int `json:"windowMonths,omitempty"`
}

// NewRevenueIntegrityTask constructs an Asynq task for the integrity scan.
func NewRevenueIntegrityTask(payload RevenueIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRevenueIntegrity, data), nil
}
