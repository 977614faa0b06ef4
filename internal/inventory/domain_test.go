package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestInvertedMovement(t *testing.T) {
	original := Movement{
		TenantID:      1,
		CompanyID:     1,
		ProductID:     77,
		Quantity:      decimal.NewFromInt(-5),
		Type:          MovementTypeSale,
		UnitCost:      decimal.NewFromInt(10),
		SourceModule:  "billing:invoice",
		SourceID:      uuid.New(),
		CorrelationID: uuid.New(),
		Physical:      true,
		MovedAt:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	voidCorrelation := uuid.New()
	at := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	inverted := original.Inverted(voidCorrelation, at)

	require.True(t, inverted.Quantity.Equal(decimal.NewFromInt(5)))
	require.Equal(t, MovementTypeVoid, inverted.Type)
	require.Equal(t, voidCorrelation, inverted.CorrelationID)
	require.Equal(t, original.SourceID, inverted.SourceID)
	require.Equal(t, original.ProductID, inverted.ProductID)
	require.True(t, inverted.UnitCost.Equal(original.UnitCost))
	require.True(t, inverted.Physical)
	require.Equal(t, at, inverted.MovedAt)

	// The pair nets to zero.
	require.True(t, original.Quantity.Add(inverted.Quantity).IsZero())
}

func TestInvertedKeepsNonPhysicalFlag(t *testing.T) {
	original := Movement{
		TenantID: 1, CompanyID: 1, ProductID: 88,
		Quantity: decimal.NewFromInt(-3),
		Type:     MovementTypeSale,
		Physical: false,
	}
	inverted := original.Inverted(uuid.New(), time.Now())
	require.False(t, inverted.Physical)
}
