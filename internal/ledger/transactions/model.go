package transactions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status mirrors the journal entry lifecycle for reporting rows.
type Status string

const (
	StatusPosted Status = "POSTED"
	StatusVoided Status = "VOIDED"
)

// Transaction is a business-facing summary row linked 1:1 to the journal
// entry it originated from. Reports read it directly instead of re-deriving
// amounts from journal lines.
type Transaction struct {
	ID             int64
	TenantID       int64
	CompanyID      int64
	Type           string
	Amount         decimal.Decimal
	Currency       string
	Date           time.Time
	Status         Status
	JournalEntryID int64
	CorrelationID  uuid.UUID
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
