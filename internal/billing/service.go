package billing

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/posting"
)

// SourceModule tags invoice postings in the journal.
const SourceModule = "billing:invoice"

// PostingEngine is the slice of the posting engine billing needs.
type PostingEngine interface {
	Post(ctx context.Context, doc posting.Document) (posting.PostedResult, error)
	Void(ctx context.Context, scope shared.Scope, sourceModule string, sourceID uuid.UUID, reason string) (posting.VoidResult, error)
}

// TaxRateResolver supplies effective tax rates per code. The posting core
// treats its output as an opaque numeric input.
type TaxRateResolver interface {
	Rate(ctx context.Context, scope shared.Scope, code string) (decimal.Decimal, error)
}

// Service turns invoices into posting documents and drives post/void.
type Service struct {
	engine   PostingEngine
	taxes    TaxRateResolver
	validate *validator.Validate
}

func NewService(engine PostingEngine, taxes TaxRateResolver) *Service {
	return &Service{engine: engine, taxes: taxes, validate: validator.New()}
}

// BuildDocument derives the balanced legs for an invoice. Rounding is
// applied per computed amount at the line level, so line-level rounding
// error cannot surface as an unbalanced entry later.
func (s *Service) BuildDocument(ctx context.Context, inv Invoice) (posting.Document, Totals, error) {
	if err := inv.Scope.Validate(); err != nil {
		return posting.Document{}, Totals{}, err
	}
	if err := s.validate.Struct(inv); err != nil {
		return posting.Document{}, Totals{}, fmt.Errorf("billing: invalid invoice: %w", err)
	}

	totals := Totals{Net: decimal.Zero, Tax: decimal.Zero, Total: decimal.Zero}
	var instructions []posting.InventoryInstruction
	for idx, line := range inv.Lines {
		if line.Quantity.IsNegative() || line.UnitPrice.IsNegative() || line.Discount.IsNegative() {
			return posting.Document{}, Totals{}, fmt.Errorf("billing: line %d negative amount", idx)
		}

		gross := line.Quantity.Mul(line.UnitPrice).Round(2)
		net := gross.Sub(line.Discount.Round(2))
		if net.IsNegative() {
			return posting.Document{}, Totals{}, fmt.Errorf("billing: line %d discount exceeds amount", idx)
		}

		tax := decimal.Zero
		if line.TaxCode != "" && net.IsPositive() {
			rate, err := s.taxes.Rate(ctx, inv.Scope, line.TaxCode)
			if err != nil {
				return posting.Document{}, Totals{}, fmt.Errorf("billing: resolve tax rate %q: %w", line.TaxCode, err)
			}
			tax = net.Mul(rate).Round(2)
		}

		totals.Net = totals.Net.Add(net)
		totals.Tax = totals.Tax.Add(tax)
		totals.Total = totals.Total.Add(net.Add(tax))

		if line.ProductID != 0 && line.Quantity.IsPositive() {
			instructions = append(instructions, posting.InventoryInstruction{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				UnitCost:  line.UnitCost,
				Physical:  line.Physical,
			})
		}
	}

	doc := posting.Document{
		Scope:        inv.Scope,
		SourceModule: SourceModule,
		SourceID:     inv.ID,
		Date:         inv.Date,
		Memo:         invoiceMemo(inv),
		Reference:    inv.Number,
		Legs: []posting.Leg{
			{Purpose: purposes.PurposeAR, Amount: totals.Total, Side: posting.SideDebit, Memo: "Accounts receivable"},
			{Purpose: purposes.PurposeRevenue, Amount: totals.Net, Side: posting.SideCredit, Memo: "Revenue"},
			{Purpose: purposes.PurposeTaxPayable, Amount: totals.Tax, Side: posting.SideCredit, Memo: "Tax payable"},
		},
		Inventory: instructions,
		SubLedger: &posting.SubLedgerEntry{
			Type:     "INVOICE",
			Amount:   totals.Total,
			Currency: inv.Currency,
		},
	}
	return doc, totals, nil
}

// PostInvoice posts the invoice; re-posting returns ErrAlreadyPosted.
func (s *Service) PostInvoice(ctx context.Context, inv Invoice) (posting.PostedResult, error) {
	doc, _, err := s.BuildDocument(ctx, inv)
	if err != nil {
		return posting.PostedResult{}, err
	}
	return s.engine.Post(ctx, doc)
}

// VoidInvoice reverses a posted invoice: mirror entry, restored stock,
// voided sub-ledger row.
func (s *Service) VoidInvoice(ctx context.Context, scope shared.Scope, invoiceID uuid.UUID, reason string) (posting.VoidResult, error) {
	return s.engine.Void(ctx, scope, SourceModule, invoiceID, reason)
}

func invoiceMemo(inv Invoice) string {
	if inv.Memo != "" {
		return inv.Memo
	}
	return fmt.Sprintf("Invoice %s", inv.Number)
}
