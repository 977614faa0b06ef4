package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// InvoiceLine is one sellable line on an invoice. Discount is an absolute
// amount applied to the line before tax. UnitCost feeds COGS for inventory
// lines; Physical distinguishes stocked goods from services.
type InvoiceLine struct {
	Description string
	ProductID   int64
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	TaxCode     string
	Physical    bool
	UnitCost    decimal.Decimal
}

// Invoice is the posting-ready view of an invoice: already validated
// business data, amounts still unrounded.
type Invoice struct {
	Scope      shared.Scope
	ID         uuid.UUID     `validate:"required"`
	Number     string        `validate:"required"`
	CustomerID int64         `validate:"required"`
	Date       time.Time     `validate:"required"`
	Currency   string        `validate:"required,len=3"`
	Memo       string        `validate:"-"`
	Lines      []InvoiceLine `validate:"required,min=1"`
}

// Totals carries the rounded invoice amounts derived during leg building.
type Totals struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Total decimal.Decimal
}
