package posting

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// Side marks which column of the entry a leg lands on.
type Side string

const (
	SideDebit  Side = "DEBIT"
	SideCredit Side = "CREDIT"
)

// Leg describes one debit or credit of a source document. Business code
// names a purpose; an explicit account id is allowed where the caller
// already resolved one (manual journals).
type Leg struct {
	Purpose   purposes.Purpose
	AccountID int64
	Amount    decimal.Decimal
	Side      Side
	Memo      string
}

// InventoryInstruction asks the engine to record a stock outflow alongside
// the entry. Quantity is the number of units sold (positive); the engine
// writes the movement with a negative sign. Non-physical products skip the
// stock mutation but still generate COGS.
type InventoryInstruction struct {
	ProductID int64
	Quantity  decimal.Decimal
	UnitCost  decimal.Decimal
	Physical  bool
}

// SubLedgerEntry describes the business-facing summary row committed with
// the entry.
type SubLedgerEntry struct {
	Type     string
	Amount   decimal.Decimal
	Currency string
}

// Document is the posting engine's input: already-validated business data
// describing monetary legs by purpose, plus optional subsidiary-ledger
// instructions.
type Document struct {
	Scope        shared.Scope
	SourceModule string
	SourceID     uuid.UUID
	Date         time.Time
	Memo         string
	Reference    string
	Legs         []Leg
	Inventory    []InventoryInstruction
	SubLedger    *SubLedgerEntry
}

// Validate rejects malformed documents before any persistence.
func (d Document) Validate() error {
	if err := d.Scope.Validate(); err != nil {
		return err
	}
	if d.SourceModule == "" {
		return errors.New("posting: source module required")
	}
	if d.SourceID == uuid.Nil {
		return errors.New("posting: source id required")
	}
	if d.Date.IsZero() {
		return errors.New("posting: document date required")
	}
	if len(d.Legs) == 0 {
		return errors.New("posting: document has no legs")
	}
	for idx, leg := range d.Legs {
		if leg.Purpose == "" && leg.AccountID == 0 {
			return fmt.Errorf("posting: leg %d names neither purpose nor account", idx)
		}
		if leg.Purpose != "" {
			if err := leg.Purpose.Validate(); err != nil {
				return err
			}
		}
		if leg.Side != SideDebit && leg.Side != SideCredit {
			return fmt.Errorf("posting: leg %d has invalid side %q", idx, leg.Side)
		}
		if leg.Amount.IsNegative() {
			return fmt.Errorf("posting: leg %d negative amount", idx)
		}
	}
	for idx, inst := range d.Inventory {
		if inst.ProductID == 0 {
			return fmt.Errorf("posting: inventory instruction %d missing product", idx)
		}
		if !inst.Quantity.IsPositive() {
			return fmt.Errorf("posting: inventory instruction %d quantity must be positive", idx)
		}
		if inst.UnitCost.IsNegative() {
			return fmt.Errorf("posting: inventory instruction %d negative unit cost", idx)
		}
	}
	return nil
}

// PostedResult reports what one posting operation committed.
type PostedResult struct {
	EntryID       int64
	EntryNumber   int64
	CorrelationID uuid.UUID
	MovementCount int
}

// VoidResult reports what one void operation committed.
type VoidResult struct {
	VoidedEntryIDs    []int64
	MirrorEntryIDs    []int64
	MovementsReversed int
	CorrelationID     uuid.UUID
}
