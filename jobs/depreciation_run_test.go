package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/aurora-books/aurora-books/internal/assets"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	appshared "github.com/aurora-books/aurora-books/internal/shared"
)

type fakeRunner struct {
	runs []struct {
		Scope  shared.Scope
		Period string
	}
	err error
}

func (r *fakeRunner) RunMonthly(ctx context.Context, scope shared.Scope, period string) (assets.RunResult, error) {
	r.runs = append(r.runs, struct {
		Scope  shared.Scope
		Period string
	}{scope, period})
	if r.err != nil {
		return assets.RunResult{}, r.err
	}
	return assets.RunResult{Period: period, AssetsProcessed: 1, TotalAmount: decimal.NewFromInt(200)}, nil
}

func depreciationTask(t *testing.T, payload DepreciationRunPayload) *asynq.Task {
	t.Helper()
	task, err := NewDepreciationRunTask(payload)
	require.NoError(t, err)
	return task
}

func TestDepreciationRunHandlesExplicitScope(t *testing.T) {
	runner := &fakeRunner{}
	job := NewDepreciationRunJob(runner, nil, nil)

	task := depreciationTask(t, DepreciationRunPayload{TenantID: 1, CompanyID: 2, Period: "2025-03"})
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, runner.runs, 1)
	require.Equal(t, shared.Scope{TenantID: 1, CompanyID: 2}, runner.runs[0].Scope)
	require.Equal(t, "2025-03", runner.runs[0].Period)
}

func TestDepreciationRunDefaultsToPreviousMonth(t *testing.T) {
	runner := &fakeRunner{}
	job := NewDepreciationRunJob(runner, nil, nil)
	job.clock = func() time.Time { return time.Date(2025, 7, 1, 3, 0, 0, 0, time.UTC) }

	task := depreciationTask(t, DepreciationRunPayload{TenantID: 1, CompanyID: 2})
	require.NoError(t, job.Handle(context.Background(), task))

	require.Len(t, runner.runs, 1)
	require.Equal(t, "2025-06", runner.runs[0].Period)
}

func TestDepreciationRunToleratesConcurrentRun(t *testing.T) {
	runner := &fakeRunner{err: appshared.ErrIdempotencyConflict}
	job := NewDepreciationRunJob(runner, nil, nil)

	task := depreciationTask(t, DepreciationRunPayload{TenantID: 1, CompanyID: 2, Period: "2025-03"})
	require.NoError(t, job.Handle(context.Background(), task))
}

func TestDepreciationRunPropagatesFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("db down")}
	job := NewDepreciationRunJob(runner, nil, nil)

	task := depreciationTask(t, DepreciationRunPayload{TenantID: 1, CompanyID: 2, Period: "2025-03"})
	require.Error(t, job.Handle(context.Background(), task))
}

func TestDepreciationRunRejectsGarbagePayload(t *testing.T) {
	job := NewDepreciationRunJob(&fakeRunner{}, nil, nil)

	task := asynq.NewTask(TaskDepreciationRun, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
}

func TestTaskPayloadRoundTrip(t *testing.T) {
	task := depreciationTask(t, DepreciationRunPayload{TenantID: 7, CompanyID: 9, Period: "2025-01"})
	var payload DepreciationRunPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, int64(7), payload.TenantID)
	require.Equal(t, "2025-01", payload.Period)
}
