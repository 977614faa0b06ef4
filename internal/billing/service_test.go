package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/posting"
)

type fakeEngine struct {
	posted  []posting.Document
	voided  []uuid.UUID
	postErr error
}

func (e *fakeEngine) Post(ctx context.Context, doc posting.Document) (posting.PostedResult, error) {
	if e.postErr != nil {
		return posting.PostedResult{}, e.postErr
	}
	e.posted = append(e.posted, doc)
	return posting.PostedResult{EntryID: int64(len(e.posted)), CorrelationID: uuid.New()}, nil
}

func (e *fakeEngine) Void(ctx context.Context, scope shared.Scope, sourceModule string, sourceID uuid.UUID, reason string) (posting.VoidResult, error) {
	e.voided = append(e.voided, sourceID)
	return posting.VoidResult{VoidedEntryIDs: []int64{1}, CorrelationID: uuid.New()}, nil
}

type fixedRates map[string]string

func (r fixedRates) Rate(ctx context.Context, scope shared.Scope, code string) (decimal.Decimal, error) {
	raw, ok := r[code]
	if !ok {
		return decimal.Zero, errors.New("unknown tax code")
	}
	return decimal.RequireFromString(raw), nil
}

func testInvoice() Invoice {
	return Invoice{
		Scope:      shared.Scope{TenantID: 1, CompanyID: 1},
		ID:         uuid.New(),
		Number:     "INV-2025-001",
		CustomerID: 42,
		Date:       time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Currency:   "USD",
		Lines: []InvoiceLine{
			{
				Description: "Widget",
				ProductID:   77,
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromInt(100),
				TaxCode:     "VAT10",
				Physical:    true,
				UnitCost:    decimal.NewFromInt(10),
			},
		},
	}
}

func legAmount(t *testing.T, doc posting.Document, purpose purposes.Purpose) decimal.Decimal {
	t.Helper()
	for _, leg := range doc.Legs {
		if leg.Purpose == purpose {
			return leg.Amount
		}
	}
	t.Fatalf("no leg for purpose %s", purpose)
	return decimal.Zero
}

func TestBuildDocumentTotals(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{"VAT10": "0.10"})

	doc, totals, err := svc.BuildDocument(context.Background(), testInvoice())
	require.NoError(t, err)

	require.True(t, totals.Net.Equal(decimal.NewFromInt(200)), "net = %s", totals.Net)
	require.True(t, totals.Tax.Equal(decimal.NewFromInt(20)), "tax = %s", totals.Tax)
	require.True(t, totals.Total.Equal(decimal.NewFromInt(220)), "total = %s", totals.Total)

	require.True(t, legAmount(t, doc, purposes.PurposeAR).Equal(decimal.NewFromInt(220)))
	require.True(t, legAmount(t, doc, purposes.PurposeRevenue).Equal(decimal.NewFromInt(200)))
	require.True(t, legAmount(t, doc, purposes.PurposeTaxPayable).Equal(decimal.NewFromInt(20)))

	require.Len(t, doc.Inventory, 1)
	require.Equal(t, int64(77), doc.Inventory[0].ProductID)
	require.True(t, doc.Inventory[0].Quantity.Equal(decimal.NewFromInt(2)))
	require.NotNil(t, doc.SubLedger)
	require.Equal(t, "INVOICE", doc.SubLedger.Type)
	require.Equal(t, SourceModule, doc.SourceModule)
}

func TestBuildDocumentRoundsPerLine(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{"VAT7": "0.07"})

	inv := testInvoice()
	inv.Lines = []InvoiceLine{
		{Description: "A", Quantity: decimal.NewFromInt(3), UnitPrice: decimal.RequireFromString("33.335"), TaxCode: "VAT7"},
		{Description: "B", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.RequireFromString("0.015"), TaxCode: "VAT7"},
	}

	doc, totals, err := svc.BuildDocument(context.Background(), inv)
	require.NoError(t, err)

	// 3 x 33.335 = 100.005 -> 100.01 (tax 7.00); 0.015 -> 0.02 (tax 0.00).
	require.True(t, totals.Net.Equal(decimal.RequireFromString("100.03")), "net = %s", totals.Net)
	require.True(t, totals.Tax.Equal(decimal.RequireFromString("7.00")), "tax = %s", totals.Tax)
	require.True(t, legAmount(t, doc, purposes.PurposeAR).Equal(totals.Total))
}

func TestBuildDocumentAppliesDiscount(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{"VAT10": "0.10"})

	inv := testInvoice()
	inv.Lines[0].Discount = decimal.NewFromInt(50)

	_, totals, err := svc.BuildDocument(context.Background(), inv)
	require.NoError(t, err)
	require.True(t, totals.Net.Equal(decimal.NewFromInt(150)))
	require.True(t, totals.Tax.Equal(decimal.NewFromInt(15)))
}

func TestBuildDocumentRejectsExcessDiscount(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{})

	inv := testInvoice()
	inv.Lines[0].TaxCode = ""
	inv.Lines[0].Discount = decimal.NewFromInt(500)

	_, _, err := svc.BuildDocument(context.Background(), inv)
	require.Error(t, err)
	require.Contains(t, err.Error(), "discount exceeds")
}

func TestBuildDocumentRejectsInvalidInvoice(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{})

	inv := testInvoice()
	inv.Currency = "US"
	_, _, err := svc.BuildDocument(context.Background(), inv)
	require.Error(t, err)

	inv = testInvoice()
	inv.Lines = nil
	_, _, err = svc.BuildDocument(context.Background(), inv)
	require.Error(t, err)
}

func TestBuildDocumentUnknownTaxCode(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{})

	_, _, err := svc.BuildDocument(context.Background(), testInvoice())
	require.Error(t, err)
	require.Contains(t, err.Error(), "tax rate")
}

func TestServiceLinesWithoutProductSkipInventory(t *testing.T) {
	svc := NewService(&fakeEngine{}, fixedRates{"VAT10": "0.10"})

	inv := testInvoice()
	inv.Lines[0].ProductID = 0
	doc, _, err := svc.BuildDocument(context.Background(), inv)
	require.NoError(t, err)
	require.Empty(t, doc.Inventory)
}

func TestPostAndVoidInvoice(t *testing.T) {
	engine := &fakeEngine{}
	svc := NewService(engine, fixedRates{"VAT10": "0.10"})
	inv := testInvoice()

	_, err := svc.PostInvoice(context.Background(), inv)
	require.NoError(t, err)
	require.Len(t, engine.posted, 1)
	require.Equal(t, inv.ID, engine.posted[0].SourceID)

	_, err = svc.VoidInvoice(context.Background(), inv.Scope, inv.ID, "customer cancelled")
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{inv.ID}, engine.voided)
}
