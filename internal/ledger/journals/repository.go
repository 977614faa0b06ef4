package journals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository exposes read operations outside a posting transaction.
type Repository interface {
	List(ctx context.Context, scope shared.Scope) ([]JournalEntry, error)
	GetWithLines(ctx context.Context, scope shared.Scope, entryID int64) (JournalEntry, error)
}

// TxRepository exposes the journal operations available within one posting
// or void transaction. Construct it from the transaction handle so every
// participating write shares the same commit or rollback.
type TxRepository interface {
	InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error)
	InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error
	LinkSource(ctx context.Context, scope shared.Scope, module string, sourceID uuid.UUID, entryID int64) error
	ListBySourceForUpdate(ctx context.Context, scope shared.Scope, module string, sourceID uuid.UUID) ([]JournalEntry, error)
	GetLines(ctx context.Context, entryID int64) ([]JournalLine, error)
	UpdateJournalStatus(ctx context.Context, entryID int64, from, to JournalStatus, voidReason string) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, tenant_id, company_id, number, date, memo, reference, source_module, source_id, correlation_id, status, void_reason, posted_at, created_at, updated_at`

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.TenantID, &e.CompanyID, &e.Number, &e.Date, &e.Memo, &e.Reference,
		&e.SourceModule, &e.SourceID, &e.CorrelationID, &e.Status, &e.VoidReason, &e.PostedAt, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func queryEntries(ctx context.Context, q querier, sql string, args ...any) ([]JournalEntry, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func queryLines(ctx context.Context, q querier, entryID int64) ([]JournalLine, error) {
	rows, err := q.Query(ctx, `SELECT id, je_id, account_id, debit, credit, memo, created_at
FROM journal_lines WHERE je_id=$1 ORDER BY id ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalLine
	for rows.Next() {
		var line JournalLine
		if err := rows.Scan(&line.ID, &line.JournalID, &line.AccountID, &line.Debit, &line.Credit, &line.Memo, &line.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, scope shared.Scope) ([]JournalEntry, error) {
	return queryEntries(ctx, r.db, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 AND company_id=$2 ORDER BY number DESC`, scope.TenantID, scope.CompanyID)
}

func (r *repository) GetWithLines(ctx context.Context, scope shared.Scope, entryID int64) (JournalEntry, error) {
	entry, err := scanEntry(r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 AND company_id=$2 AND id=$3`, scope.TenantID, scope.CompanyID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrJournalNotFound
		}
		return JournalEntry{}, err
	}
	entry.Lines, err = queryLines(ctx, r.db, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps a transaction handle with journal operations.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

// InsertJournalEntry persists a validated entry as POSTED. Draft entries
// exist only in memory: a half-written draft must never be observable.
func (r *txRepository) InsertJournalEntry(ctx context.Context, in PostingInput) (JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return JournalEntry{}, err
	}
	row := r.tx.QueryRow(ctx, `INSERT INTO journal_entries
(tenant_id, company_id, date, memo, reference, source_module, source_id, correlation_id, status, posted_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'POSTED',NOW())
RETURNING id, number, posted_at, created_at, updated_at`,
		in.Scope.TenantID, in.Scope.CompanyID, in.Date, in.Memo, in.Reference, in.SourceModule, in.SourceID, in.CorrelationID)
	entry := JournalEntry{
		TenantID:      in.Scope.TenantID,
		CompanyID:     in.Scope.CompanyID,
		Date:          in.Date,
		Memo:          in.Memo,
		Reference:     in.Reference,
		SourceModule:  in.SourceModule,
		SourceID:      in.SourceID,
		CorrelationID: in.CorrelationID,
		Status:        JournalStatusPosted,
	}
	if err := row.Scan(&entry.ID, &entry.Number, &entry.PostedAt, &entry.CreatedAt, &entry.UpdatedAt); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertJournalLines(ctx context.Context, entryID int64, lines []PostingLineInput) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_lines (je_id, account_id, debit, credit, memo)
VALUES ($1,$2,$3,$4,$5)`, entryID, line.AccountID, line.Debit, line.Credit, line.Memo); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) LinkSource(ctx context.Context, scope shared.Scope, module string, sourceID uuid.UUID, entryID int64) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO source_links (tenant_id, company_id, module, ref_id, je_id)
VALUES ($1,$2,$3,$4,$5)`, scope.TenantID, scope.CompanyID, module, sourceID, entryID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return shared.ErrSourceConflict
		}
		return err
	}
	return nil
}

func (r *txRepository) ListBySourceForUpdate(ctx context.Context, scope shared.Scope, module string, sourceID uuid.UUID) ([]JournalEntry, error) {
	return queryEntries(ctx, r.tx, `SELECT `+entryColumns+` FROM journal_entries
WHERE tenant_id=$1 AND company_id=$2 AND source_module=$3 AND source_id=$4
ORDER BY id ASC FOR UPDATE`, scope.TenantID, scope.CompanyID, module, sourceID)
}

func (r *txRepository) GetLines(ctx context.Context, entryID int64) ([]JournalLine, error) {
	return queryLines(ctx, r.tx, entryID)
}

// UpdateJournalStatus enforces monotonic transitions by matching the
// expected current status in the WHERE clause.
func (r *txRepository) UpdateJournalStatus(ctx context.Context, entryID int64, from, to JournalStatus, voidReason string) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET status=$3, void_reason=$4, updated_at=NOW()
WHERE id=$1 AND status=$2`, entryID, from, to, voidReason)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrInvalidStatus
	}
	return nil
}
