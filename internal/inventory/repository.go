package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// Repository exposes reads outside a posting transaction.
type Repository interface {
	GetStock(ctx context.Context, scope shared.Scope, productID int64) (StockBalance, error)
	ListMovements(ctx context.Context, scope shared.Scope, productID int64) ([]Movement, error)
}

// TxRepository exposes the inventory operations available within one
// posting or void transaction.
type TxRepository interface {
	InsertMovement(ctx context.Context, m Movement) (Movement, error)
	GetStockForUpdate(ctx context.Context, scope shared.Scope, productID int64) (StockBalance, error)
	UpsertStock(ctx context.Context, balance StockBalance) error
	ListMovementsByCorrelation(ctx context.Context, scope shared.Scope, correlationID uuid.UUID) ([]Movement, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const movementColumns = `id, tenant_id, company_id, product_id, qty, type, unit_cost, source_module, source_id, correlation_id, physical, moved_at, created_at`

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	defer rows.Close()
	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.TenantID, &m.CompanyID, &m.ProductID, &m.Quantity, &m.Type, &m.UnitCost,
			&m.SourceModule, &m.SourceID, &m.CorrelationID, &m.Physical, &m.MovedAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

func (r *repository) GetStock(ctx context.Context, scope shared.Scope, productID int64) (StockBalance, error) {
	var b StockBalance
	err := r.db.QueryRow(ctx, `SELECT tenant_id, company_id, product_id, qty, updated_at
FROM stock_balances WHERE tenant_id=$1 AND company_id=$2 AND product_id=$3`,
		scope.TenantID, scope.CompanyID, productID).
		Scan(&b.TenantID, &b.CompanyID, &b.ProductID, &b.Qty, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockBalance{TenantID: scope.TenantID, CompanyID: scope.CompanyID, ProductID: productID}, ErrBalanceNotFound
		}
		return StockBalance{}, err
	}
	return b, nil
}

func (r *repository) ListMovements(ctx context.Context, scope shared.Scope, productID int64) ([]Movement, error) {
	rows, err := r.db.Query(ctx, `SELECT `+movementColumns+` FROM inventory_movements
WHERE tenant_id=$1 AND company_id=$2 AND product_id=$3 ORDER BY id ASC`,
		scope.TenantID, scope.CompanyID, productID)
	if err != nil {
		return nil, err
	}
	return scanMovements(rows)
}

type txRepository struct {
	tx pgx.Tx
}

// NewTxRepository wraps a transaction handle with inventory operations.
func NewTxRepository(tx pgx.Tx) TxRepository {
	return &txRepository{tx: tx}
}

func (r *txRepository) InsertMovement(ctx context.Context, m Movement) (Movement, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_movements
(tenant_id, company_id, product_id, qty, type, unit_cost, source_module, source_id, correlation_id, physical, moved_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11) RETURNING id, created_at`,
		m.TenantID, m.CompanyID, m.ProductID, m.Quantity, m.Type, m.UnitCost,
		m.SourceModule, m.SourceID, m.CorrelationID, m.Physical, m.MovedAt).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return Movement{}, err
	}
	return m, nil
}

// GetStockForUpdate locks the balance row so concurrent postings against
// the same product serialize their read-modify-write.
func (r *txRepository) GetStockForUpdate(ctx context.Context, scope shared.Scope, productID int64) (StockBalance, error) {
	var b StockBalance
	err := r.tx.QueryRow(ctx, `SELECT tenant_id, company_id, product_id, qty, updated_at
FROM stock_balances WHERE tenant_id=$1 AND company_id=$2 AND product_id=$3 FOR UPDATE`,
		scope.TenantID, scope.CompanyID, productID).
		Scan(&b.TenantID, &b.CompanyID, &b.ProductID, &b.Qty, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockBalance{TenantID: scope.TenantID, CompanyID: scope.CompanyID, ProductID: productID}, ErrBalanceNotFound
		}
		return StockBalance{}, err
	}
	return b, nil
}

func (r *txRepository) UpsertStock(ctx context.Context, balance StockBalance) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO stock_balances (tenant_id, company_id, product_id, qty)
VALUES ($1,$2,$3,$4)
ON CONFLICT (tenant_id, company_id, product_id) DO UPDATE SET qty=EXCLUDED.qty, updated_at=NOW()`,
		balance.TenantID, balance.CompanyID, balance.ProductID, balance.Qty)
	return err
}

func (r *txRepository) ListMovementsByCorrelation(ctx context.Context, scope shared.Scope, correlationID uuid.UUID) ([]Movement, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+movementColumns+` FROM inventory_movements
WHERE tenant_id=$1 AND company_id=$2 AND correlation_id=$3 ORDER BY id ASC`,
		scope.TenantID, scope.CompanyID, correlationID)
	if err != nil {
		return nil, err
	}
	return scanMovements(rows)
}
