package purposes

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

type Repository interface {
	Get(ctx context.Context, scope shared.Scope, purpose Purpose) (AccountMapping, error)
	Put(ctx context.Context, mapping AccountMapping) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

// Get resolves an account mapping for the specified purpose.
func (r *repository) Get(ctx context.Context, scope shared.Scope, purpose Purpose) (AccountMapping, error) {
	if err := purpose.Validate(); err != nil {
		return AccountMapping{}, err
	}
	var mapping AccountMapping
	err := r.db.QueryRow(ctx, `SELECT tenant_id, company_id, purpose, account_id, created_at, updated_at
FROM account_mappings WHERE tenant_id=$1 AND company_id=$2 AND purpose=$3`,
		scope.TenantID, scope.CompanyID, string(purpose)).
		Scan(&mapping.TenantID, &mapping.CompanyID, &mapping.Purpose, &mapping.AccountID, &mapping.CreatedAt, &mapping.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AccountMapping{}, shared.ErrMappingNotFound
		}
		return AccountMapping{}, err
	}
	return mapping, nil
}

// Put upserts a mapping. Used by chart setup and lazy provisioning.
func (r *repository) Put(ctx context.Context, mapping AccountMapping) error {
	if err := mapping.Purpose.Validate(); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx, `INSERT INTO account_mappings (tenant_id, company_id, purpose, account_id)
VALUES ($1,$2,$3,$4)
ON CONFLICT (tenant_id, company_id, purpose) DO UPDATE SET account_id=EXCLUDED.account_id, updated_at=NOW()`,
		mapping.TenantID, mapping.CompanyID, string(mapping.Purpose), mapping.AccountID)
	return err
}
