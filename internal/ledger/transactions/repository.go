package transactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// Repository exposes read operations for reporting callers.
type Repository interface {
	List(ctx context.Context, scope shared.Scope) ([]Transaction, error)
}

// TxRepository exposes operations available inside a posting transaction.
type TxRepository interface {
	Insert(ctx context.Context, txn Transaction) (Transaction, error)
	VoidByCorrelation(ctx context.Context, scope shared.Scope, correlationID uuid.UUID) (int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, scope shared.Scope) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, company_id, type, amount, currency, date, status, je_id, correlation_id, created_at, updated_at
FROM transactions WHERE tenant_id=$1 AND company_id=$2 ORDER BY date DESC, id DESC`, scope.TenantID, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txns []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.TenantID, &t.CompanyID, &t.Type, &t.Amount, &t.Currency, &t.Date, &t.Status, &t.JournalEntryID, &t.CorrelationID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps a transaction handle with sub-ledger operations.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) Insert(ctx context.Context, txn Transaction) (Transaction, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO transactions (tenant_id, company_id, type, amount, currency, date, status, je_id, correlation_id)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at, updated_at`,
		txn.TenantID, txn.CompanyID, txn.Type, txn.Amount, txn.Currency, txn.Date, txn.Status, txn.JournalEntryID, txn.CorrelationID).
		Scan(&txn.ID, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) VoidByCorrelation(ctx context.Context, scope shared.Scope, correlationID uuid.UUID) (int64, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE transactions SET status='VOIDED', updated_at=NOW()
WHERE tenant_id=$1 AND company_id=$2 AND correlation_id=$3 AND status='POSTED'`,
		scope.TenantID, scope.CompanyID, correlationID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
