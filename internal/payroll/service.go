package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/posting"
)

// SourceModule tags payroll postings in the journal.
const SourceModule = "payroll:run"

// PostingEngine is the slice of the posting engine payroll needs.
type PostingEngine interface {
	Post(ctx context.Context, doc posting.Document) (posting.PostedResult, error)
	Void(ctx context.Context, scope shared.Scope, sourceModule string, sourceID uuid.UUID, reason string) (posting.VoidResult, error)
}

// Service posts payroll runs: debit wages expense for gross, credit each
// withholding liability, credit wages payable for net.
type Service struct {
	engine   PostingEngine
	validate *validator.Validate
}

func NewService(engine PostingEngine) *Service {
	return &Service{engine: engine, validate: validator.New()}
}

// BuildDocument derives the balanced legs for a payroll run.
func (s *Service) BuildDocument(run Run) (posting.Document, error) {
	if err := run.Scope.Validate(); err != nil {
		return posting.Document{}, err
	}
	if err := s.validate.Struct(run); err != nil {
		return posting.Document{}, fmt.Errorf("payroll: invalid run: %w", err)
	}
	if !run.Gross.IsPositive() {
		return posting.Document{}, errors.New("payroll: gross pay must be positive")
	}

	gross := run.Gross.Round(2)
	legs := []posting.Leg{
		{Purpose: purposes.PurposeWagesExpense, Amount: gross, Side: posting.SideDebit, Memo: "Gross pay"},
	}
	withheld := decimal.Zero
	for idx, d := range run.Deductions {
		if d.Amount.IsNegative() {
			return posting.Document{}, fmt.Errorf("payroll: deduction %d negative amount", idx)
		}
		amount := d.Amount.Round(2)
		withheld = withheld.Add(amount)
		legs = append(legs, posting.Leg{
			Purpose: d.Purpose,
			Amount:  amount,
			Side:    posting.SideCredit,
			Memo:    d.Category,
		})
	}
	net := gross.Sub(withheld)
	if net.IsNegative() {
		return posting.Document{}, errors.New("payroll: deductions exceed gross pay")
	}
	legs = append(legs, posting.Leg{
		Purpose: purposes.PurposeWagesPayable,
		Amount:  net,
		Side:    posting.SideCredit,
		Memo:    "Net pay",
	})

	return posting.Document{
		Scope:        run.Scope,
		SourceModule: SourceModule,
		SourceID:     run.ID,
		Date:         run.Date,
		Memo:         fmt.Sprintf("Payroll %s", run.PeriodKey),
		Reference:    run.PeriodKey,
		Legs:         legs,
		SubLedger: &posting.SubLedgerEntry{
			Type:     "PAYROLL",
			Amount:   gross,
			Currency: run.Currency,
		},
	}, nil
}

// PostRun posts one payroll period.
func (s *Service) PostRun(ctx context.Context, run Run) (posting.PostedResult, error) {
	doc, err := s.BuildDocument(run)
	if err != nil {
		return posting.PostedResult{}, err
	}
	return s.engine.Post(ctx, doc)
}

// VoidRun reverses a posted payroll run.
func (s *Service) VoidRun(ctx context.Context, scope shared.Scope, runID uuid.UUID, reason string) (posting.VoidResult, error) {
	return s.engine.Void(ctx, scope, SourceModule, runID, reason)
}
