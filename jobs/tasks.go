package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDepreciationRun posts the monthly depreciation batch.
	TaskDepreciationRun = "depreciation:run"
	// TaskGLIntegrityScan verifies that every posted journal balances.
	TaskGLIntegrityScan = "gl:integrity"
	// TaskIdempotencyCleanup prunes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// DepreciationRunPayload selects the scope and period for a batch run.
// Zero tenant and company means every scope with active assets; an empty
// period means the month before the run.
type DepreciationRunPayload struct {
	TenantID  int64  `json:"tenant_id,omitempty"`
	CompanyID int64  `json:"company_id,omitempty"`
	Period    string `json:"period,omitempty"`
}

// NewDepreciationRunTask constructs the depreciation batch task.
func NewDepreciationRunTask(payload DepreciationRunPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDepreciationRun, data), nil
}

// GLIntegrityPayload bounds the integrity scan window in days. Zero scans
// everything.
type GLIntegrityPayload struct {
	WindowDays int `json:"window_days,omitempty"`
}

// NewGLIntegrityTask constructs the ledger integrity scan task.
func NewGLIntegrityTask(payload GLIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskGLIntegrityScan, data), nil
}

// IdempotencyCleanupPayload overrides the configured retention in hours.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours,omitempty"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
