package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

type Repository interface {
	List(ctx context.Context, scope shared.Scope) ([]Account, error)
	Get(ctx context.Context, scope shared.Scope, id int64) (Account, error)
	Ensure(ctx context.Context, acc Account) (Account, error)
	Deactivate(ctx context.Context, scope shared.Scope, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context, scope shared.Scope) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT id, tenant_id, company_id, code, name, type, purpose, is_active, created_at, updated_at
FROM accounts WHERE tenant_id=$1 AND company_id=$2 ORDER BY code`, scope.TenantID, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []Account
	for rows.Next() {
		var a Account
		err := rows.Scan(&a.ID, &a.TenantID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Purpose, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) Get(ctx context.Context, scope shared.Scope, id int64) (Account, error) {
	var a Account
	err := r.db.QueryRow(ctx, `SELECT id, tenant_id, company_id, code, name, type, purpose, is_active, created_at, updated_at
FROM accounts WHERE tenant_id=$1 AND company_id=$2 AND id=$3`, scope.TenantID, scope.CompanyID, id).
		Scan(&a.ID, &a.TenantID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.Purpose, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

// Ensure inserts the account if no row with the same code exists in scope,
// returning the stored row either way. Used for lazy provisioning.
func (r *repository) Ensure(ctx context.Context, acc Account) (Account, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO accounts (tenant_id, company_id, code, name, type, purpose, is_active)
VALUES ($1,$2,$3,$4,$5,$6,TRUE)
ON CONFLICT (tenant_id, company_id, code) DO UPDATE SET updated_at=NOW()
RETURNING id, tenant_id, company_id, code, name, type, purpose, is_active, created_at, updated_at`,
		acc.TenantID, acc.CompanyID, acc.Code, acc.Name, acc.Type, acc.Purpose).
		Scan(&acc.ID, &acc.TenantID, &acc.CompanyID, &acc.Code, &acc.Name, &acc.Type, &acc.Purpose, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt)
	if err != nil {
		return Account{}, err
	}
	return acc, nil
}

func (r *repository) Deactivate(ctx context.Context, scope shared.Scope, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET is_active=FALSE, updated_at=NOW()
WHERE tenant_id=$1 AND company_id=$2 AND id=$3`, scope.TenantID, scope.CompanyID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
