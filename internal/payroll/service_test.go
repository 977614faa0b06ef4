package payroll

import (
	"context"
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
	posted []posting.Document
	voided []uuid.UUID
}

func (e *fakeEngine) Post(ctx context.Context, doc posting.Document) (posting.PostedResult, error) {
	e.posted = append(e.posted, doc)
	return posting.PostedResult{EntryID: int64(len(e.posted)), CorrelationID: uuid.New()}, nil
}

func (e *fakeEngine) Void(ctx context.Context, scope shared.Scope, sourceModule string, sourceID uuid.UUID, reason string) (posting.VoidResult, error) {
	e.voided = append(e.voided, sourceID)
	return posting.VoidResult{}, nil
}

func testRun() Run {
	return Run{
		Scope:     shared.Scope{TenantID: 1, CompanyID: 1},
		ID:        uuid.New(),
		PeriodKey: "2025-06",
		Date:      time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Currency:  "USD",
		Gross:     decimal.NewFromInt(10000),
		Deductions: []Deduction{
			{Category: "Income tax", Purpose: purposes.PurposeTaxWithheld, Amount: decimal.NewFromInt(2000)},
			{Category: "Health insurance", Purpose: purposes.PurposeBenefitsPayable, Amount: decimal.NewFromInt(500)},
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

func TestBuildDocumentSplitsGross(t *testing.T) {
	svc := NewService(&fakeEngine{})

	doc, err := svc.BuildDocument(testRun())
	require.NoError(t, err)

	require.True(t, legAmount(t, doc, purposes.PurposeWagesExpense).Equal(decimal.NewFromInt(10000)))
	require.True(t, legAmount(t, doc, purposes.PurposeTaxWithheld).Equal(decimal.NewFromInt(2000)))
	require.True(t, legAmount(t, doc, purposes.PurposeBenefitsPayable).Equal(decimal.NewFromInt(500)))
	require.True(t, legAmount(t, doc, purposes.PurposeWagesPayable).Equal(decimal.NewFromInt(7500)))

	debit, credit := decimal.Zero, decimal.Zero
	for _, leg := range doc.Legs {
		if leg.Side == posting.SideDebit {
			debit = debit.Add(leg.Amount)
		} else {
			credit = credit.Add(leg.Amount)
		}
	}
	require.True(t, debit.Equal(credit))

	require.Equal(t, SourceModule, doc.SourceModule)
	require.NotNil(t, doc.SubLedger)
	require.Equal(t, "PAYROLL", doc.SubLedger.Type)
}

func TestBuildDocumentNoDeductions(t *testing.T) {
	svc := NewService(&fakeEngine{})

	run := testRun()
	run.Deductions = nil
	doc, err := svc.BuildDocument(run)
	require.NoError(t, err)
	require.True(t, legAmount(t, doc, purposes.PurposeWagesPayable).Equal(run.Gross.Round(2)))
}

func TestBuildDocumentRejectsExcessDeductions(t *testing.T) {
	svc := NewService(&fakeEngine{})

	run := testRun()
	run.Deductions[0].Amount = decimal.NewFromInt(11000)
	_, err := svc.BuildDocument(run)
	require.Error(t, err)
	require.Contains(t, err.Error(), "exceed gross")
}

func TestBuildDocumentRejectsNonPositiveGross(t *testing.T) {
	svc := NewService(&fakeEngine{})

	run := testRun()
	run.Gross = decimal.Zero
	_, err := svc.BuildDocument(run)
	require.Error(t, err)

	run.Gross = decimal.NewFromInt(-100)
	_, err = svc.BuildDocument(run)
	require.Error(t, err)
}

func TestBuildDocumentRejectsNegativeDeduction(t *testing.T) {
	svc := NewService(&fakeEngine{})

	run := testRun()
	run.Deductions[1].Amount = decimal.NewFromInt(-500)
	_, err := svc.BuildDocument(run)
	require.Error(t, err)
}

func TestBuildDocumentValidatesRun(t *testing.T) {
	svc := NewService(&fakeEngine{})

	run := testRun()
	run.Currency = "DOLLARS"
	_, err := svc.BuildDocument(run)
	require.Error(t, err)

	run = testRun()
	run.PeriodKey = ""
	_, err = svc.BuildDocument(run)
	require.Error(t, err)
}

func TestPostAndVoidRun(t *testing.T) {
	engine := &fakeEngine{}
	svc := NewService(engine)
	run := testRun()

	_, err := svc.PostRun(context.Background(), run)
	require.NoError(t, err)
	require.Len(t, engine.posted, 1)
	require.Equal(t, run.ID, engine.posted[0].SourceID)

	_, err = svc.VoidRun(context.Background(), run.Scope, run.ID, "duplicate run")
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{run.ID}, engine.voided)
}
