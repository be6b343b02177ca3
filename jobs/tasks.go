package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerSweep is the task type for the nightly invoice ledger sweep.
	TaskLedgerSweep = "billing:ledger_sweep"
	// TaskIdempotencyCleanup is the task type for expiring processed
	// idempotency keys.
	TaskIdempotencyCleanup = "shared:idempotency_cleanup"
)

// LedgerSweepPayload configures a ledger sweep run.
type LedgerSweepPayload struct {
	Concurrency int `json:"concurrency"`
}

// NewLedgerSweepTask constructs an Asynq task for the ledger sweep.
func NewLedgerSweepTask(concurrency int) (*asynq.Task, error) {
	data, err := json.Marshal(LedgerSweepPayload{Concurrency: concurrency})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerSweep, data), nil
}

// IdempotencyCleanupPayload configures a key cleanup run.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task for key cleanup.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
