package inventory

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType enumerates supported inventory movements.
type MovementType string

const (
	// MovementTypeSale represents an outbound movement from a sale.
	MovementTypeSale MovementType = "SALE"
	// MovementTypePurchase represents an inbound movement.
	MovementTypePurchase MovementType = "PURCHASE"
	// MovementTypeAdjust indicates manual adjustments.
	MovementTypeAdjust MovementType = "ADJUST"
	// MovementTypeVoid marks the sign-inverted restoration of a prior movement.
	MovementTypeVoid MovementType = "VOID"
)

// Movement records one signed quantity change for a product. Quantity is
// negative for outflow. Movements are append-only: a void adds an inverted
// row rather than touching the original.
type Movement struct {
	ID            int64
	TenantID      int64
	CompanyID     int64
	ProductID     int64
	Quantity      decimal.Decimal
	Type          MovementType
	UnitCost      decimal.Decimal
	SourceModule  string
	SourceID      uuid.UUID
	CorrelationID uuid.UUID
	Physical      bool
	MovedAt       time.Time
	CreatedAt     time.Time
}

// Inverted returns the restoring movement for a void operation.
func (m Movement) Inverted(correlationID uuid.UUID, at time.Time) Movement {
	return Movement{
		TenantID:      m.TenantID,
		CompanyID:     m.CompanyID,
		ProductID:     m.ProductID,
		Quantity:      m.Quantity.Neg(),
		Type:          MovementTypeVoid,
		UnitCost:      m.UnitCost,
		SourceModule:  m.SourceModule,
		SourceID:      m.SourceID,
		CorrelationID: correlationID,
		Physical:      m.Physical,
		MovedAt:       at,
	}
}

// StockBalance summarises on-hand quantity per product.
type StockBalance struct {
	TenantID  int64
	CompanyID int64
	ProductID int64
	Qty       decimal.Decimal
	UpdatedAt time.Time
}

// ErrNegativeStock triggered when a movement would drive committed stock
// below zero for a physical product.
var ErrNegativeStock = errors.New("inventory: negative stock not allowed")

// ErrInvalidQuantity indicates invalid qty.
var ErrInvalidQuantity = errors.New("inventory: quantity must be non zero")

// ErrInvalidUnitCost indicates invalid cost value.
var ErrInvalidUnitCost = errors.New("inventory: unit cost must be >= 0")

// ErrBalanceNotFound indicates missing balance row.
var ErrBalanceNotFound = errors.New("inventory: balance not found")
