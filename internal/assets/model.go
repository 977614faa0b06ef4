package assets

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AssetStatus enumerates fixed asset lifecycle values.
type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "ACTIVE"
	AssetStatusDisposed AssetStatus = "DISPOSED"
)

// FixedAsset models one depreciable asset.
type FixedAsset struct {
	ID         uuid.UUID
	TenantID   int64
	CompanyID  int64
	Name       string
	Cost       decimal.Decimal
	Salvage    decimal.Decimal
	LifeYears  int
	Method     Method
	AcquiredAt time.Time
	Status     AssetStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks the depreciation parameters.
func (a FixedAsset) Validate() error {
	if a.ID == uuid.Nil {
		return errors.New("assets: asset id required")
	}
	if a.Name == "" {
		return errors.New("assets: asset name required")
	}
	if !a.Cost.IsPositive() {
		return errors.New("assets: cost must be positive")
	}
	if a.Salvage.IsNegative() {
		return errors.New("assets: salvage must be non-negative")
	}
	if a.Salvage.GreaterThan(a.Cost) {
		return errors.New("assets: salvage exceeds cost")
	}
	if a.LifeYears <= 0 {
		return errors.New("assets: useful life must be positive")
	}
	switch a.Method {
	case MethodStraightLine, MethodDecliningBalance, MethodSumOfYearsDigits:
	default:
		return errors.New("assets: unknown depreciation method")
	}
	if a.AcquiredAt.IsZero() {
		return errors.New("assets: acquisition date required")
	}
	return nil
}

// DepreciableBase returns cost minus salvage, the ceiling for accumulated
// depreciation.
func (a FixedAsset) DepreciableBase() decimal.Decimal {
	return a.Cost.Sub(a.Salvage)
}

// DepreciationRecord stores one period's depreciation for an asset.
// At most one record exists per (asset, period); accumulated is
// non-decreasing and never exceeds cost minus salvage.
type DepreciationRecord struct {
	ID          int64
	AssetID     uuid.UUID
	Period      string
	Amount      decimal.Decimal
	Accumulated decimal.Decimal
	CreatedAt   time.Time
}

// ErrAssetNotFound indicates a missing asset row.
var ErrAssetNotFound = errors.New("assets: asset not found")

// ErrAssetDisposed indicates an operation against a disposed asset.
var ErrAssetDisposed = errors.New("assets: asset already disposed")

// ErrRecordExists indicates a duplicate (asset, period) record.
var ErrRecordExists = errors.New("assets: depreciation record already exists for period")
