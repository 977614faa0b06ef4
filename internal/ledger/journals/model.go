package journals

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// JournalStatus enumerates journal lifecycle values. Transitions are
// monotonic: DRAFT -> POSTED -> VOIDED, never backwards.
type JournalStatus string

const (
	JournalStatusDraft  JournalStatus = "DRAFT"
	JournalStatusPosted JournalStatus = "POSTED"
	JournalStatusVoided JournalStatus = "VOIDED"
)

// JournalEntry captures posting metadata. A VOIDED entry keeps all of its
// lines; its economic effect is neutralized by a mirror entry, never by
// deletion.
type JournalEntry struct {
	ID            int64
	TenantID      int64
	CompanyID     int64
	Number        int64
	Date          time.Time
	Memo          string
	Reference     string
	SourceModule  string
	SourceID      uuid.UUID
	CorrelationID uuid.UUID
	Status        JournalStatus
	VoidReason    string
	PostedAt      time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Lines         []JournalLine
}

// JournalLine stores a debit or credit amount for an account. Exactly one
// side is non-zero per line.
type JournalLine struct {
	ID        int64
	JournalID int64
	AccountID int64
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
	CreatedAt time.Time
}
