package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/aurora-books/aurora-books/internal/inventory"
	"github.com/aurora-books/aurora-books/internal/ledger/accounts"
	"github.com/aurora-books/aurora-books/internal/ledger/journals"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	ledgershared "github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/ledger/transactions"
	internalshared "github.com/aurora-books/aurora-books/internal/shared"
)

// Resolver translates purposes to concrete accounts.
type Resolver interface {
	ResolveAll(ctx context.Context, scope ledgershared.Scope, wanted []purposes.Purpose) (map[purposes.Purpose]accounts.Account, error)
}

// AuditPort records post/void actions in the audit trail.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

// Engine turns source documents into balanced journal entries and commits
// them with their subsidiary-ledger side effects as one atomic unit. It
// also runs the reversal protocol: nothing is deleted, incorrect postings
// are neutralized by mirror entries.
type Engine struct {
	store    Store
	resolver Resolver
	audit    AuditPort
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(store Store, resolver Resolver, audit AuditPort, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, resolver: resolver, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for tests.
func (e *Engine) WithNow(now func() time.Time) {
	if now != nil {
		e.now = now
	}
}

// Post builds a balanced entry from the document and commits entry, lines,
// inventory movements, stock updates and the sub-ledger row in one
// transaction. Re-posting the same source returns ErrAlreadyPosted and
// changes nothing.
func (e *Engine) Post(ctx context.Context, doc Document) (PostedResult, error) {
	if err := doc.Validate(); err != nil {
		return PostedResult{}, err
	}

	resolved, err := e.resolveAccounts(ctx, doc)
	if err != nil {
		return PostedResult{}, err
	}

	correlationID := uuid.New()
	lines, err := buildLines(doc, resolved)
	if err != nil {
		return PostedResult{}, err
	}

	input := journals.PostingInput{
		Scope:         doc.Scope,
		Date:          doc.Date,
		Memo:          doc.Memo,
		Reference:     doc.Reference,
		SourceModule:  doc.SourceModule,
		SourceID:      doc.SourceID,
		CorrelationID: correlationID,
		Lines:         lines,
	}
	// The balance invariant is asserted on the rounded leg amounts before
	// anything touches the store.
	if err := input.Validate(); err != nil {
		return PostedResult{}, err
	}

	var result PostedResult
	err = e.store.RunAtomic(ctx, func(ctx context.Context, tx StoreTx) error {
		existing, err := tx.Journals().ListBySourceForUpdate(ctx, doc.Scope, doc.SourceModule, doc.SourceID)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ledgershared.ErrAlreadyPosted
		}

		entry, err := tx.Journals().InsertJournalEntry(ctx, input)
		if err != nil {
			return err
		}
		if err := tx.Journals().InsertJournalLines(ctx, entry.ID, input.Lines); err != nil {
			return err
		}
		if err := tx.Journals().LinkSource(ctx, doc.Scope, doc.SourceModule, doc.SourceID, entry.ID); err != nil {
			if errors.Is(err, ledgershared.ErrSourceConflict) {
				return ledgershared.ErrAlreadyPosted
			}
			return err
		}

		movements, err := e.applyInventory(ctx, tx, doc, correlationID)
		if err != nil {
			return err
		}

		if doc.SubLedger != nil {
			_, err := tx.Transactions().Insert(ctx, transactions.Transaction{
				TenantID:       doc.Scope.TenantID,
				CompanyID:      doc.Scope.CompanyID,
				Type:           doc.SubLedger.Type,
				Amount:         doc.SubLedger.Amount.Round(2),
				Currency:       doc.SubLedger.Currency,
				Date:           doc.Date,
				Status:         transactions.StatusPosted,
				JournalEntryID: entry.ID,
				CorrelationID:  correlationID,
			})
			if err != nil {
				return err
			}
		}

		result = PostedResult{
			EntryID:       entry.ID,
			EntryNumber:   entry.Number,
			CorrelationID: correlationID,
			MovementCount: movements,
		}
		return nil
	})
	if err != nil {
		return PostedResult{}, err
	}

	if e.audit != nil {
		_ = e.audit.Record(ctx, internalshared.AuditLog{
			Action:   "posting.post",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", result.EntryID),
			Meta: map[string]any{
				"source_module":  doc.SourceModule,
				"source_id":      doc.SourceID.String(),
				"correlation_id": correlationID.String(),
				"movements":      result.MovementCount,
			},
			At: e.now(),
		})
	}
	e.logger.Info("document posted",
		slog.String("source_module", doc.SourceModule),
		slog.String("source_id", doc.SourceID.String()),
		slog.Int64("entry_id", result.EntryID))
	return result, nil
}

// Void neutralizes every posted entry of the source document: originals
// flip POSTED -> VOIDED, mirror entries with swapped debit/credit restore
// the ledger, inverted movements restore stock. All in one transaction.
func (e *Engine) Void(ctx context.Context, scope ledgershared.Scope, sourceModule string, sourceID uuid.UUID, reason string) (VoidResult, error) {
	if err := scope.Validate(); err != nil {
		return VoidResult{}, err
	}
	if sourceModule == "" {
		return VoidResult{}, errors.New("posting: source module required")
	}
	if sourceID == uuid.Nil {
		return VoidResult{}, errors.New("posting: source id required")
	}

	voidCorrelation := uuid.New()
	now := e.now()
	var result VoidResult
	err := e.store.RunAtomic(ctx, func(ctx context.Context, tx StoreTx) error {
		entries, err := tx.Journals().ListBySourceForUpdate(ctx, scope, sourceModule, sourceID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return ledgershared.ErrJournalNotFound
		}

		var posted []journals.JournalEntry
		for _, entry := range entries {
			if entry.Status == journals.JournalStatusPosted {
				posted = append(posted, entry)
			}
		}
		if len(posted) == 0 {
			return ledgershared.ErrAlreadyVoided
		}

		for _, original := range posted {
			lines, err := tx.Journals().GetLines(ctx, original.ID)
			if err != nil {
				return err
			}
			if err := tx.Journals().UpdateJournalStatus(ctx, original.ID, journals.JournalStatusPosted, journals.JournalStatusVoided, reason); err != nil {
				return err
			}

			mirror := journals.PostingInput{
				Scope:         scope,
				Date:          now,
				Memo:          voidMemo(reason, original.Number),
				Reference:     "VOID-" + original.Reference,
				SourceModule:  sourceModule + ":VOID",
				SourceID:      uuid.New(),
				CorrelationID: voidCorrelation,
				Lines:         journals.MirrorLines(lines),
			}
			inserted, err := tx.Journals().InsertJournalEntry(ctx, mirror)
			if err != nil {
				return err
			}
			if err := tx.Journals().InsertJournalLines(ctx, inserted.ID, mirror.Lines); err != nil {
				return err
			}
			if err := tx.Journals().LinkSource(ctx, scope, mirror.SourceModule, mirror.SourceID, inserted.ID); err != nil {
				return err
			}

			reversed, err := e.reverseMovements(ctx, tx, scope, original.CorrelationID, voidCorrelation, now)
			if err != nil {
				return err
			}
			if _, err := tx.Transactions().VoidByCorrelation(ctx, scope, original.CorrelationID); err != nil {
				return err
			}

			result.VoidedEntryIDs = append(result.VoidedEntryIDs, original.ID)
			result.MirrorEntryIDs = append(result.MirrorEntryIDs, inserted.ID)
			result.MovementsReversed += reversed
		}
		result.CorrelationID = voidCorrelation
		return nil
	})
	if err != nil {
		return VoidResult{}, err
	}

	if e.audit != nil {
		_ = e.audit.Record(ctx, internalshared.AuditLog{
			Action:   "posting.void",
			Entity:   "journal_entry",
			EntityID: sourceID.String(),
			Meta: map[string]any{
				"source_module":      sourceModule,
				"reason":             reason,
				"voided_entries":     result.VoidedEntryIDs,
				"mirror_entries":     result.MirrorEntryIDs,
				"movements_reversed": result.MovementsReversed,
			},
			At: now,
		})
	}
	e.logger.Info("document voided",
		slog.String("source_module", sourceModule),
		slog.String("source_id", sourceID.String()),
		slog.String("reason", reason),
		slog.Int("movements_reversed", result.MovementsReversed))
	return result, nil
}

// resolveAccounts gathers every purpose the document needs, including the
// COGS/Inventory pair when inventory instructions are present, and resolves
// all of them or fails with the full missing list. Resolution, including
// any auto-provisioning it performs, runs on its own connection before the
// posting transaction: a post that later aborts can leave a provisioned
// account and mapping behind. Accounts are never deleted and the mapping
// upsert is idempotent, so a retry picks the same account up again.
func (e *Engine) resolveAccounts(ctx context.Context, doc Document) (map[purposes.Purpose]accounts.Account, error) {
	var wanted []purposes.Purpose
	for _, leg := range doc.Legs {
		if leg.Purpose != "" {
			wanted = append(wanted, leg.Purpose)
		}
	}
	if len(doc.Inventory) > 0 {
		wanted = append(wanted, purposes.PurposeCOGS, purposes.PurposeInventory)
	}
	if len(wanted) == 0 {
		return map[purposes.Purpose]accounts.Account{}, nil
	}
	return e.resolver.ResolveAll(ctx, doc.Scope, wanted)
}

// buildLines rounds every leg to the currency minor unit, drops zero legs,
// and appends a single aggregated COGS/Inventory pair for the document's
// inventory instructions.
func buildLines(doc Document, resolved map[purposes.Purpose]accounts.Account) ([]journals.PostingLineInput, error) {
	lines := make([]journals.PostingLineInput, 0, len(doc.Legs)+2)
	for _, leg := range doc.Legs {
		amount := leg.Amount.Round(2)
		if amount.IsZero() {
			continue
		}
		accountID := leg.AccountID
		if leg.Purpose != "" {
			accountID = resolved[leg.Purpose].ID
		}
		line := journals.PostingLineInput{AccountID: accountID, Memo: leg.Memo}
		if leg.Side == SideDebit {
			line.Debit = amount
		} else {
			line.Credit = amount
		}
		lines = append(lines, line)
	}

	cogs := decimal.Zero
	for _, inst := range doc.Inventory {
		cogs = cogs.Add(inst.UnitCost.Mul(inst.Quantity).Round(2))
	}
	if cogs.IsPositive() {
		lines = append(lines,
			journals.PostingLineInput{AccountID: resolved[purposes.PurposeCOGS].ID, Debit: cogs, Memo: "Cost of goods sold"},
			journals.PostingLineInput{AccountID: resolved[purposes.PurposeInventory].ID, Credit: cogs, Memo: "Inventory outflow"},
		)
	}

	if len(lines) == 0 {
		return nil, ledgershared.ErrEmptyDocument
	}
	return lines, nil
}

// applyInventory writes outflow movements and serializes the stock
// read-modify-write per product under a row lock.
func (e *Engine) applyInventory(ctx context.Context, tx StoreTx, doc Document, correlationID uuid.UUID) (int, error) {
	count := 0
	for _, inst := range doc.Inventory {
		if inst.Quantity.IsZero() {
			continue
		}
		movement := inventory.Movement{
			TenantID:      doc.Scope.TenantID,
			CompanyID:     doc.Scope.CompanyID,
			ProductID:     inst.ProductID,
			Quantity:      inst.Quantity.Neg(),
			Type:          inventory.MovementTypeSale,
			UnitCost:      inst.UnitCost,
			SourceModule:  doc.SourceModule,
			SourceID:      doc.SourceID,
			CorrelationID: correlationID,
			Physical:      inst.Physical,
			MovedAt:       doc.Date,
		}
		if _, err := tx.Inventory().InsertMovement(ctx, movement); err != nil {
			return 0, err
		}
		count++

		if !inst.Physical {
			continue
		}
		balance, err := tx.Inventory().GetStockForUpdate(ctx, doc.Scope, inst.ProductID)
		if err != nil && !errors.Is(err, inventory.ErrBalanceNotFound) {
			return 0, err
		}
		newQty := balance.Qty.Sub(inst.Quantity)
		if newQty.IsNegative() {
			return 0, inventory.ErrNegativeStock
		}
		balance.Qty = newQty
		if err := tx.Inventory().UpsertStock(ctx, balance); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// reverseMovements appends sign-inverted VOID movements and restores stock
// for physical products.
func (e *Engine) reverseMovements(ctx context.Context, tx StoreTx, scope ledgershared.Scope, originalCorrelation, voidCorrelation uuid.UUID, at time.Time) (int, error) {
	movements, err := tx.Inventory().ListMovementsByCorrelation(ctx, scope, originalCorrelation)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, m := range movements {
		inverted := m.Inverted(voidCorrelation, at)
		if _, err := tx.Inventory().InsertMovement(ctx, inverted); err != nil {
			return 0, err
		}
		count++

		if !m.Physical {
			continue
		}
		balance, err := tx.Inventory().GetStockForUpdate(ctx, scope, m.ProductID)
		if err != nil && !errors.Is(err, inventory.ErrBalanceNotFound) {
			return 0, err
		}
		newQty := balance.Qty.Add(inverted.Quantity)
		if newQty.IsNegative() {
			return 0, inventory.ErrNegativeStock
		}
		balance.Qty = newQty
		if err := tx.Inventory().UpsertStock(ctx, balance); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func voidMemo(reason string, number int64) string {
	if reason != "" {
		return fmt.Sprintf("Void of JE %d: %s", number, reason)
	}
	return fmt.Sprintf("Void of JE %d", number)
}
