package payroll

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// Deduction is one tax or benefit withheld from gross pay, credited to the
// liability account mapped by its purpose.
type Deduction struct {
	Category string           `validate:"required"`
	Purpose  purposes.Purpose `validate:"required"`
	Amount   decimal.Decimal
}

// Run describes one payroll period to post: gross pay, the withholding
// categories, and the net payable remainder.
type Run struct {
	Scope      shared.Scope
	ID         uuid.UUID   `validate:"required"`
	PeriodKey  string      `validate:"required"`
	Date       time.Time   `validate:"required"`
	Currency   string      `validate:"required,len=3"`
	Gross      decimal.Decimal
	Deductions []Deduction `validate:"dive"`
}
