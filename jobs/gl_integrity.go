package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GLIntegrityJob verifies that every journal entry balances and that no
// stock balance has gone negative. Violations indicate a bug or manual
// tampering, never normal operation.
type GLIntegrityJob struct {
	Pool   *pgxpool.Pool
	Logger *slog.Logger
	clock  func() time.Time
}

// NewGLIntegrityJob initialises the integrity scan handler.
func NewGLIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *GLIntegrityJob {
	return &GLIntegrityJob{
		Pool:   pool,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

type glViolation struct {
	JournalID int64
	TenantID  int64
	CompanyID int64
	Debits    string
	Credits   string
}

// Handle executes the integrity scan.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("gl integrity: handler not configured")
	}
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := j.now()
	logger := j.logger()
	logger.Info("starting ledger integrity scan", slog.Int("window_days", payload.WindowDays))

	violations, err := j.scanUnbalanced(ctx, payload.WindowDays)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}
	for _, v := range violations {
		logger.Error("unbalanced journal entry",
			slog.Int64("journal_id", v.JournalID),
			slog.Int64("tenant_id", v.TenantID),
			slog.Int64("company_id", v.CompanyID),
			slog.String("debits", v.Debits),
			slog.String("credits", v.Credits),
		)
	}

	negative, err := j.scanNegativeStock(ctx)
	if err != nil {
		logger.Error("stock scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed ledger integrity scan",
		slog.Int("unbalanced", len(violations)),
		slog.Int("negative_stock", negative),
		slog.Duration("duration", time.Since(start)),
	)
	if len(violations) > 0 || negative > 0 {
		return fmt.Errorf("gl integrity: %d unbalanced entries, %d negative stock rows", len(violations), negative)
	}
	return nil
}

// Column names must match what the journals and inventory repositories
// write; gl_integrity_test.go pins them.
const (
	unbalancedScanQuery = `SELECT je.id, je.tenant_id, je.company_id, SUM(jl.debit)::text, SUM(jl.credit)::text
FROM journal_entries je
JOIN journal_lines jl ON jl.je_id = je.id`

	negativeStockQuery = `SELECT COUNT(*) FROM stock_balances WHERE qty < 0`
)

func (j *GLIntegrityJob) scanUnbalanced(ctx context.Context, windowDays int) ([]glViolation, error) {
	query := unbalancedScanQuery
	args := []any{}
	if windowDays > 0 {
		query += ` WHERE je.created_at >= $1`
		args = append(args, j.now().AddDate(0, 0, -windowDays))
	}
	query += ` GROUP BY je.id, je.tenant_id, je.company_id HAVING SUM(jl.debit) <> SUM(jl.credit)`

	rows, err := j.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var violations []glViolation
	for rows.Next() {
		var v glViolation
		if err := rows.Scan(&v.JournalID, &v.TenantID, &v.CompanyID, &v.Debits, &v.Credits); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

func (j *GLIntegrityJob) scanNegativeStock(ctx context.Context) (int, error) {
	var count int
	err := j.Pool.QueryRow(ctx, negativeStockQuery).Scan(&count)
	return count, err
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskGLIntegrityScan))
	}
	return slog.Default().With(slog.String("job", TaskGLIntegrityScan))
}

func (j *GLIntegrityJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
