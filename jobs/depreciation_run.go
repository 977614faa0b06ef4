package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aurora-books/aurora-books/internal/assets"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	appshared "github.com/aurora-books/aurora-books/internal/shared"
)

// DepreciationRunner is the slice of the assets service the job needs.
type DepreciationRunner interface {
	RunMonthly(ctx context.Context, scope shared.Scope, period string) (assets.RunResult, error)
}

// DepreciationRunJob posts the monthly depreciation batch per scope.
type DepreciationRunJob struct {
	Service DepreciationRunner
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewDepreciationRunJob initialises the depreciation batch handler.
func NewDepreciationRunJob(service DepreciationRunner, pool *pgxpool.Pool, logger *slog.Logger) *DepreciationRunJob {
	return &DepreciationRunJob{
		Service: service,
		Pool:    pool,
		Logger:  logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one depreciation batch run.
func (j *DepreciationRunJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Service == nil {
		return errors.New("depreciation run: handler not configured")
	}
	var payload DepreciationRunPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	period := payload.Period
	if period == "" {
		// The scheduled run on the 1st depreciates the month that just ended.
		period = j.now().AddDate(0, -1, 0).Format("2006-01")
	}

	logger := j.logger().With(slog.String("period", period))

	scopes, err := j.scopes(ctx, payload)
	if err != nil {
		logger.Error("resolve scopes", slog.Any("error", err))
		return err
	}
	if len(scopes) == 0 {
		logger.Info("no scopes with active assets")
		return nil
	}

	var failed int
	for _, scope := range scopes {
		result, err := j.Service.RunMonthly(ctx, scope, period)
		if err != nil {
			if errors.Is(err, appshared.ErrIdempotencyConflict) {
				logger.Info("depreciation run already in progress",
					slog.Int64("tenant_id", scope.TenantID),
					slog.Int64("company_id", scope.CompanyID))
				continue
			}
			failed++
			logger.Error("depreciation run failed",
				slog.Int64("tenant_id", scope.TenantID),
				slog.Int64("company_id", scope.CompanyID),
				slog.Any("error", err))
			continue
		}
		logger.Info("depreciation run completed",
			slog.Int64("tenant_id", scope.TenantID),
			slog.Int64("company_id", scope.CompanyID),
			slog.Int("assets", result.AssetsProcessed),
			slog.String("total", result.TotalAmount.StringFixed(2)))
	}
	if failed > 0 {
		return errors.New("depreciation run: one or more scopes failed")
	}
	return nil
}

// scopes returns the explicit payload scope, or every scope holding active
// assets when the payload is unscoped.
func (j *DepreciationRunJob) scopes(ctx context.Context, payload DepreciationRunPayload) ([]shared.Scope, error) {
	if payload.TenantID > 0 && payload.CompanyID > 0 {
		return []shared.Scope{{TenantID: payload.TenantID, CompanyID: payload.CompanyID}}, nil
	}
	if j.Pool == nil {
		return nil, errors.New("depreciation run: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT tenant_id, company_id FROM fixed_assets WHERE status='ACTIVE' ORDER BY tenant_id, company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var scopes []shared.Scope
	for rows.Next() {
		var scope shared.Scope
		if err := rows.Scan(&scope.TenantID, &scope.CompanyID); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

func (j *DepreciationRunJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDepreciationRun))
	}
	return slog.Default().With(slog.String("job", TaskDepreciationRun))
}

func (j *DepreciationRunJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
