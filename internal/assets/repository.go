package assets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// AssetRepository persists fixed assets.
type AssetRepository interface {
	Create(ctx context.Context, asset FixedAsset) (FixedAsset, error)
	Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (FixedAsset, error)
	ListActive(ctx context.Context, scope shared.Scope) ([]FixedAsset, error)
	MarkDisposed(ctx context.Context, scope shared.Scope, id uuid.UUID) error
}

// RecordRepository persists per-period depreciation records.
type RecordRepository interface {
	Exists(ctx context.Context, assetID uuid.UUID, period string) (bool, error)
	LastAccumulated(ctx context.Context, assetID uuid.UUID) (DepreciationRecord, error)
	Insert(ctx context.Context, rec DepreciationRecord) (DepreciationRecord, error)
	ListByAsset(ctx context.Context, assetID uuid.UUID) ([]DepreciationRecord, error)
}

type assetRepository struct {
	db *pgxpool.Pool
}

func NewAssetRepository(db *pgxpool.Pool) AssetRepository {
	return &assetRepository{db: db}
}

const assetColumns = `id, tenant_id, company_id, name, cost, salvage, life_years, method, acquired_at, status, created_at, updated_at`

func scanAsset(row pgx.Row) (FixedAsset, error) {
	var a FixedAsset
	err := row.Scan(&a.ID, &a.TenantID, &a.CompanyID, &a.Name, &a.Cost, &a.Salvage, &a.LifeYears,
		&a.Method, &a.AcquiredAt, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *assetRepository) Create(ctx context.Context, asset FixedAsset) (FixedAsset, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO fixed_assets
(id, tenant_id, company_id, name, cost, salvage, life_years, method, acquired_at, status)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'ACTIVE')
RETURNING created_at, updated_at`,
		asset.ID, asset.TenantID, asset.CompanyID, asset.Name, asset.Cost, asset.Salvage,
		asset.LifeYears, asset.Method, asset.AcquiredAt).
		Scan(&asset.CreatedAt, &asset.UpdatedAt)
	if err != nil {
		return FixedAsset{}, err
	}
	asset.Status = AssetStatusActive
	return asset, nil
}

func (r *assetRepository) Get(ctx context.Context, scope shared.Scope, id uuid.UUID) (FixedAsset, error) {
	a, err := scanAsset(r.db.QueryRow(ctx, `SELECT `+assetColumns+` FROM fixed_assets
WHERE tenant_id=$1 AND company_id=$2 AND id=$3`, scope.TenantID, scope.CompanyID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FixedAsset{}, ErrAssetNotFound
		}
		return FixedAsset{}, err
	}
	return a, nil
}

func (r *assetRepository) ListActive(ctx context.Context, scope shared.Scope) ([]FixedAsset, error) {
	rows, err := r.db.Query(ctx, `SELECT `+assetColumns+` FROM fixed_assets
WHERE tenant_id=$1 AND company_id=$2 AND status='ACTIVE' ORDER BY acquired_at, id`,
		scope.TenantID, scope.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var assets []FixedAsset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *assetRepository) MarkDisposed(ctx context.Context, scope shared.Scope, id uuid.UUID) error {
	cmd, err := r.db.Exec(ctx, `UPDATE fixed_assets SET status='DISPOSED', updated_at=NOW()
WHERE tenant_id=$1 AND company_id=$2 AND id=$3 AND status='ACTIVE'`, scope.TenantID, scope.CompanyID, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrAssetNotFound
	}
	return nil
}

type recordRepository struct {
	db *pgxpool.Pool
}

func NewRecordRepository(db *pgxpool.Pool) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Exists(ctx context.Context, assetID uuid.UUID, period string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM depreciation_records WHERE asset_id=$1 AND period=$2)`,
		assetID, period).Scan(&exists)
	return exists, err
}

// LastAccumulated returns the most recent record, or a zero record when the
// asset has no depreciation history yet.
func (r *recordRepository) LastAccumulated(ctx context.Context, assetID uuid.UUID) (DepreciationRecord, error) {
	var rec DepreciationRecord
	err := r.db.QueryRow(ctx, `SELECT id, asset_id, period, amount, accumulated, created_at
FROM depreciation_records WHERE asset_id=$1 ORDER BY period DESC LIMIT 1`, assetID).
		Scan(&rec.ID, &rec.AssetID, &rec.Period, &rec.Amount, &rec.Accumulated, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DepreciationRecord{AssetID: assetID}, nil
		}
		return DepreciationRecord{}, err
	}
	return rec, nil
}

func (r *recordRepository) Insert(ctx context.Context, rec DepreciationRecord) (DepreciationRecord, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO depreciation_records (asset_id, period, amount, accumulated)
VALUES ($1,$2,$3,$4) RETURNING id, created_at`,
		rec.AssetID, rec.Period, rec.Amount, rec.Accumulated).
		Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return DepreciationRecord{}, ErrRecordExists
		}
		return DepreciationRecord{}, err
	}
	return rec, nil
}

func (r *recordRepository) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]DepreciationRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, asset_id, period, amount, accumulated, created_at
FROM depreciation_records WHERE asset_id=$1 ORDER BY period ASC`, assetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []DepreciationRecord
	for rows.Next() {
		var rec DepreciationRecord
		if err := rows.Scan(&rec.ID, &rec.AssetID, &rec.Period, &rec.Amount, &rec.Accumulated, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
