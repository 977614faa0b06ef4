package posting

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/aurora-books/aurora-books/internal/inventory"
	"github.com/aurora-books/aurora-books/internal/ledger/accounts"
	"github.com/aurora-books/aurora-books/internal/ledger/journals"
	"github.com/aurora-books/aurora-books/internal/ledger/purposes"
	ledgershared "github.com/aurora-books/aurora-books/internal/ledger/shared"
	"github.com/aurora-books/aurora-books/internal/ledger/transactions"
	internalshared "github.com/aurora-books/aurora-books/internal/shared"
)

type memState struct {
	entries   []journals.JournalEntry
	lines     map[int64][]journals.JournalLine
	links     map[string]int64
	movements []inventory.Movement
	stock     map[int64]inventory.StockBalance
	txns      []transactions.Transaction
	nextEntry int64
	nextLine  int64
	nextMove  int64
	nextTxn   int64
}

func newMemState() *memState {
	return &memState{
		lines: map[int64][]journals.JournalLine{},
		links: map[string]int64{},
		stock: map[int64]inventory.StockBalance{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	c.entries = append([]journals.JournalEntry(nil), s.entries...)
	for id, lines := range s.lines {
		c.lines[id] = append([]journals.JournalLine(nil), lines...)
	}
	for k, v := range s.links {
		c.links[k] = v
	}
	c.movements = append([]inventory.Movement(nil), s.movements...)
	for k, v := range s.stock {
		c.stock[k] = v
	}
	c.txns = append([]transactions.Transaction(nil), s.txns...)
	c.nextEntry, c.nextLine, c.nextMove, c.nextTxn = s.nextEntry, s.nextLine, s.nextMove, s.nextTxn
	return c
}

// memStore is an in-memory Store with transactional rollback: state mutated
// by a failing closure is discarded, exactly like the database transaction.
type memStore struct {
	state *memState
}

func newMemStore() *memStore {
	return &memStore{state: newMemState()}
}

func (s *memStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	work := s.state.clone()
	if err := fn(ctx, &memStoreTx{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

type memStoreTx struct {
	state *memState
}

func (t *memStoreTx) Journals() journals.TxRepository         { return &memJournals{state: t.state} }
func (t *memStoreTx) Inventory() inventory.TxRepository       { return &memInventory{state: t.state} }
func (t *memStoreTx) Transactions() transactions.TxRepository { return &memTransactions{state: t.state} }

type memJournals struct {
	state *memState
}

func linkKey(scope ledgershared.Scope, module string, sourceID uuid.UUID) string {
	return fmt.Sprintf("%d:%d:%s:%s", scope.TenantID, scope.CompanyID, module, sourceID)
}

func (m *memJournals) InsertJournalEntry(ctx context.Context, in journals.PostingInput) (journals.JournalEntry, error) {
	if err := in.Validate(); err != nil {
		return journals.JournalEntry{}, err
	}
	m.state.nextEntry++
	now := time.Now()
	entry := journals.JournalEntry{
		ID:            m.state.nextEntry,
		TenantID:      in.Scope.TenantID,
		CompanyID:     in.Scope.CompanyID,
		Number:        m.state.nextEntry,
		Date:          in.Date,
		Memo:          in.Memo,
		Reference:     in.Reference,
		SourceModule:  in.SourceModule,
		SourceID:      in.SourceID,
		CorrelationID: in.CorrelationID,
		Status:        journals.JournalStatusPosted,
		PostedAt:      now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	m.state.entries = append(m.state.entries, entry)
	return entry, nil
}

func (m *memJournals) InsertJournalLines(ctx context.Context, entryID int64, lines []journals.PostingLineInput) error {
	for _, in := range lines {
		m.state.nextLine++
		m.state.lines[entryID] = append(m.state.lines[entryID], journals.JournalLine{
			ID:        m.state.nextLine,
			JournalID: entryID,
			AccountID: in.AccountID,
			Debit:     in.Debit,
			Credit:    in.Credit,
			Memo:      in.Memo,
		})
	}
	return nil
}

func (m *memJournals) LinkSource(ctx context.Context, scope ledgershared.Scope, module string, sourceID uuid.UUID, entryID int64) error {
	key := linkKey(scope, module, sourceID)
	if _, ok := m.state.links[key]; ok {
		return ledgershared.ErrSourceConflict
	}
	m.state.links[key] = entryID
	return nil
}

func (m *memJournals) ListBySourceForUpdate(ctx context.Context, scope ledgershared.Scope, module string, sourceID uuid.UUID) ([]journals.JournalEntry, error) {
	var out []journals.JournalEntry
	for _, e := range m.state.entries {
		if e.TenantID == scope.TenantID && e.CompanyID == scope.CompanyID &&
			e.SourceModule == module && e.SourceID == sourceID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memJournals) GetLines(ctx context.Context, entryID int64) ([]journals.JournalLine, error) {
	return m.state.lines[entryID], nil
}

func (m *memJournals) UpdateJournalStatus(ctx context.Context, entryID int64, from, to journals.JournalStatus, voidReason string) error {
	for idx, e := range m.state.entries {
		if e.ID != entryID {
			continue
		}
		if e.Status != from {
			return ledgershared.ErrInvalidStatus
		}
		m.state.entries[idx].Status = to
		m.state.entries[idx].VoidReason = voidReason
		return nil
	}
	return ledgershared.ErrJournalNotFound
}

type memInventory struct {
	state *memState
}

func (m *memInventory) InsertMovement(ctx context.Context, mv inventory.Movement) (inventory.Movement, error) {
	m.state.nextMove++
	mv.ID = m.state.nextMove
	m.state.movements = append(m.state.movements, mv)
	return mv, nil
}

func (m *memInventory) GetStockForUpdate(ctx context.Context, scope ledgershared.Scope, productID int64) (inventory.StockBalance, error) {
	balance, ok := m.state.stock[productID]
	if !ok {
		return inventory.StockBalance{
			TenantID:  scope.TenantID,
			CompanyID: scope.CompanyID,
			ProductID: productID,
		}, inventory.ErrBalanceNotFound
	}
	return balance, nil
}

func (m *memInventory) UpsertStock(ctx context.Context, balance inventory.StockBalance) error {
	m.state.stock[balance.ProductID] = balance
	return nil
}

func (m *memInventory) ListMovementsByCorrelation(ctx context.Context, scope ledgershared.Scope, correlationID uuid.UUID) ([]inventory.Movement, error) {
	var out []inventory.Movement
	for _, mv := range m.state.movements {
		if mv.TenantID == scope.TenantID && mv.CompanyID == scope.CompanyID && mv.CorrelationID == correlationID {
			out = append(out, mv)
		}
	}
	return out, nil
}

type memTransactions struct {
	state *memState
}

func (m *memTransactions) Insert(ctx context.Context, txn transactions.Transaction) (transactions.Transaction, error) {
	m.state.nextTxn++
	txn.ID = m.state.nextTxn
	m.state.txns = append(m.state.txns, txn)
	return txn, nil
}

func (m *memTransactions) VoidByCorrelation(ctx context.Context, scope ledgershared.Scope, correlationID uuid.UUID) (int64, error) {
	var count int64
	for idx, txn := range m.state.txns {
		if txn.TenantID == scope.TenantID && txn.CompanyID == scope.CompanyID &&
			txn.CorrelationID == correlationID && txn.Status == transactions.StatusPosted {
			m.state.txns[idx].Status = transactions.StatusVoided
			count++
		}
	}
	return count, nil
}

type fakeResolver struct {
	accounts map[purposes.Purpose]int64
}

func (r *fakeResolver) ResolveAll(ctx context.Context, scope ledgershared.Scope, wanted []purposes.Purpose) (map[purposes.Purpose]accounts.Account, error) {
	resolved := map[purposes.Purpose]accounts.Account{}
	var missing []purposes.Purpose
	for _, p := range wanted {
		id, ok := r.accounts[p]
		if !ok {
			missing = append(missing, p)
			continue
		}
		resolved[p] = accounts.Account{ID: id, TenantID: scope.TenantID, CompanyID: scope.CompanyID, Purpose: string(p)}
	}
	if len(missing) > 0 {
		return nil, &purposes.MissingAccountsError{Purposes: missing}
	}
	return resolved, nil
}

type fakeAudit struct {
	logs []internalshared.AuditLog
}

func (a *fakeAudit) Record(ctx context.Context, log internalshared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func defaultResolver() *fakeResolver {
	return &fakeResolver{accounts: map[purposes.Purpose]int64{
		purposes.PurposeAR:         10,
		purposes.PurposeRevenue:    20,
		purposes.PurposeTaxPayable: 25,
		purposes.PurposeCOGS:       30,
		purposes.PurposeInventory:  40,
		purposes.PurposeCash:       50,
	}}
}

func newTestEngine(t *testing.T) (*Engine, *memStore, *fakeAudit) {
	t.Helper()
	store := newMemStore()
	audit := &fakeAudit{}
	engine := NewEngine(store, defaultResolver(), audit, nil)
	engine.WithNow(func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) })
	return engine, store, audit
}

func testScope() ledgershared.Scope {
	return ledgershared.Scope{TenantID: 1, CompanyID: 1}
}

func saleDocument(sourceID uuid.UUID) Document {
	return Document{
		Scope:        testScope(),
		SourceModule: "billing:invoice",
		SourceID:     sourceID,
		Date:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Memo:         "Invoice INV-001",
		Reference:    "INV-001",
		Legs: []Leg{
			{Purpose: purposes.PurposeAR, Amount: decimal.NewFromInt(110), Side: SideDebit},
			{Purpose: purposes.PurposeRevenue, Amount: decimal.NewFromInt(100), Side: SideCredit},
			{Purpose: purposes.PurposeTaxPayable, Amount: decimal.NewFromInt(10), Side: SideCredit},
		},
	}
}

func TestPostCommitsBalancedEntry(t *testing.T) {
	engine, store, audit := newTestEngine(t)
	ctx := context.Background()

	result, err := engine.Post(ctx, saleDocument(uuid.New()))
	require.NoError(t, err)
	require.NotZero(t, result.EntryID)
	require.NotEqual(t, uuid.Nil, result.CorrelationID)

	require.Len(t, store.state.entries, 1)
	entry := store.state.entries[0]
	require.Equal(t, journals.JournalStatusPosted, entry.Status)
	require.Equal(t, result.CorrelationID, entry.CorrelationID)

	lines := store.state.lines[entry.ID]
	require.Len(t, lines, 3)
	debit, credit := decimal.Zero, decimal.Zero
	for _, line := range lines {
		debit = debit.Add(line.Debit)
		credit = credit.Add(line.Credit)
	}
	require.True(t, debit.Equal(credit))

	require.Len(t, audit.logs, 1)
	require.Equal(t, "posting.post", audit.logs[0].Action)
}

func TestPostRejectsUnbalancedDocument(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	doc := saleDocument(uuid.New())
	doc.Legs[1].Amount = decimal.NewFromInt(90)
	_, err := engine.Post(context.Background(), doc)
	require.ErrorIs(t, err, ledgershared.ErrUnbalanced)
	require.Empty(t, store.state.entries)
}

func TestPostSameSourceTwice(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()
	sourceID := uuid.New()

	_, err := engine.Post(ctx, saleDocument(sourceID))
	require.NoError(t, err)

	_, err = engine.Post(ctx, saleDocument(sourceID))
	require.ErrorIs(t, err, ledgershared.ErrAlreadyPosted)
	require.Len(t, store.state.entries, 1)
}

func TestPostWithInventoryOutflow(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	store.state.stock[77] = inventory.StockBalance{
		TenantID: 1, CompanyID: 1, ProductID: 77, Qty: decimal.NewFromInt(7),
	}

	doc := saleDocument(uuid.New())
	doc.Inventory = []InventoryInstruction{
		{ProductID: 77, Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(10), Physical: true},
	}
	result, err := engine.Post(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 1, result.MovementCount)

	lines := store.state.lines[result.EntryID]
	require.Len(t, lines, 5)
	var cogs, inv decimal.Decimal
	for _, line := range lines {
		switch line.AccountID {
		case 30:
			cogs = line.Debit
		case 40:
			inv = line.Credit
		}
	}
	require.True(t, cogs.Equal(decimal.NewFromInt(50)), "COGS debit = %s", cogs)
	require.True(t, inv.Equal(decimal.NewFromInt(50)), "inventory credit = %s", inv)

	require.Len(t, store.state.movements, 1)
	require.True(t, store.state.movements[0].Quantity.Equal(decimal.NewFromInt(-5)))
	require.Equal(t, inventory.MovementTypeSale, store.state.movements[0].Type)
	require.True(t, store.state.stock[77].Qty.Equal(decimal.NewFromInt(2)))
}

func TestPostNegativeStockRollsBack(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	store.state.stock[77] = inventory.StockBalance{
		TenantID: 1, CompanyID: 1, ProductID: 77, Qty: decimal.NewFromInt(3),
	}

	doc := saleDocument(uuid.New())
	doc.Inventory = []InventoryInstruction{
		{ProductID: 77, Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(10), Physical: true},
	}
	_, err := engine.Post(ctx, doc)
	require.ErrorIs(t, err, inventory.ErrNegativeStock)

	require.Empty(t, store.state.entries)
	require.Empty(t, store.state.movements)
	require.True(t, store.state.stock[77].Qty.Equal(decimal.NewFromInt(3)))
}

func TestPostNonPhysicalSkipsStock(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	doc := saleDocument(uuid.New())
	doc.Inventory = []InventoryInstruction{
		{ProductID: 88, Quantity: decimal.NewFromInt(3), UnitCost: decimal.NewFromInt(4), Physical: false},
	}
	result, err := engine.Post(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, 1, result.MovementCount)
	require.Len(t, store.state.movements, 1)
	_, tracked := store.state.stock[88]
	require.False(t, tracked)
}

func TestPostReportsAllMissingAccounts(t *testing.T) {
	store := newMemStore()
	resolver := &fakeResolver{accounts: map[purposes.Purpose]int64{
		purposes.PurposeAR: 10,
	}}
	engine := NewEngine(store, resolver, nil, nil)

	_, err := engine.Post(context.Background(), saleDocument(uuid.New()))
	require.ErrorIs(t, err, ledgershared.ErrMissingAccounts)

	var missing *purposes.MissingAccountsError
	require.ErrorAs(t, err, &missing)
	require.ElementsMatch(t, []purposes.Purpose{purposes.PurposeRevenue, purposes.PurposeTaxPayable}, missing.Purposes)
	require.Empty(t, store.state.entries)
}

func TestPostAllZeroLegsIsEmptyDocument(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	doc := saleDocument(uuid.New())
	for idx := range doc.Legs {
		doc.Legs[idx].Amount = decimal.Zero
	}
	_, err := engine.Post(context.Background(), doc)
	require.ErrorIs(t, err, ledgershared.ErrEmptyDocument)
}

func TestVoidMirrorsEntryAndRestoresStock(t *testing.T) {
	engine, store, audit := newTestEngine(t)
	ctx := context.Background()
	sourceID := uuid.New()

	store.state.stock[77] = inventory.StockBalance{
		TenantID: 1, CompanyID: 1, ProductID: 77, Qty: decimal.NewFromInt(7),
	}

	doc := saleDocument(sourceID)
	doc.Inventory = []InventoryInstruction{
		{ProductID: 77, Quantity: decimal.NewFromInt(5), UnitCost: decimal.NewFromInt(10), Physical: true},
	}
	doc.SubLedger = &SubLedgerEntry{Type: "INVOICE", Amount: decimal.NewFromInt(110), Currency: "USD"}
	posted, err := engine.Post(ctx, doc)
	require.NoError(t, err)
	require.True(t, store.state.stock[77].Qty.Equal(decimal.NewFromInt(2)))

	result, err := engine.Void(ctx, testScope(), doc.SourceModule, sourceID, "duplicate invoice")
	require.NoError(t, err)
	require.Equal(t, []int64{posted.EntryID}, result.VoidedEntryIDs)
	require.Len(t, result.MirrorEntryIDs, 1)
	require.Equal(t, 1, result.MovementsReversed)

	var original, mirror journals.JournalEntry
	for _, e := range store.state.entries {
		switch e.ID {
		case posted.EntryID:
			original = e
		case result.MirrorEntryIDs[0]:
			mirror = e
		}
	}
	require.Equal(t, journals.JournalStatusVoided, original.Status)
	require.Equal(t, "duplicate invoice", original.VoidReason)
	require.Equal(t, journals.JournalStatusPosted, mirror.Status)
	require.Equal(t, doc.SourceModule+":VOID", mirror.SourceModule)

	originalLines := store.state.lines[original.ID]
	mirrorLines := store.state.lines[mirror.ID]
	require.Len(t, mirrorLines, len(originalLines))
	for idx, line := range originalLines {
		require.Equal(t, line.AccountID, mirrorLines[idx].AccountID)
		require.True(t, line.Debit.Equal(mirrorLines[idx].Credit))
		require.True(t, line.Credit.Equal(mirrorLines[idx].Debit))
	}

	// Net movement per product is zero and stock is back where it started.
	require.True(t, store.state.stock[77].Qty.Equal(decimal.NewFromInt(7)))
	net := decimal.Zero
	for _, m := range store.state.movements {
		net = net.Add(m.Quantity)
	}
	require.True(t, net.IsZero())

	require.Equal(t, transactions.StatusVoided, store.state.txns[0].Status)
	require.Equal(t, "posting.void", audit.logs[len(audit.logs)-1].Action)
}

func TestVoidTwiceReturnsAlreadyVoided(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()
	sourceID := uuid.New()

	doc := saleDocument(sourceID)
	_, err := engine.Post(ctx, doc)
	require.NoError(t, err)

	_, err = engine.Void(ctx, testScope(), doc.SourceModule, sourceID, "first")
	require.NoError(t, err)

	_, err = engine.Void(ctx, testScope(), doc.SourceModule, sourceID, "second")
	require.ErrorIs(t, err, ledgershared.ErrAlreadyVoided)
}

func TestVoidUnknownSource(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Void(context.Background(), testScope(), "billing:invoice", uuid.New(), "nothing there")
	require.ErrorIs(t, err, ledgershared.ErrJournalNotFound)
}

func TestPostRoundsLegAmounts(t *testing.T) {
	engine, store, _ := newTestEngine(t)

	doc := saleDocument(uuid.New())
	doc.Legs = []Leg{
		{Purpose: purposes.PurposeAR, Amount: decimal.RequireFromString("10.005"), Side: SideDebit},
		{Purpose: purposes.PurposeRevenue, Amount: decimal.RequireFromString("10.005"), Side: SideCredit},
	}
	result, err := engine.Post(context.Background(), doc)
	require.NoError(t, err)

	lines := store.state.lines[result.EntryID]
	require.Len(t, lines, 2)
	for _, line := range lines {
		amount := line.Debit.Add(line.Credit)
		require.True(t, amount.Equal(decimal.RequireFromString("10.00")) || amount.Equal(decimal.RequireFromString("10.01")),
			"rounded amount = %s", amount)
		require.Equal(t, int32(-2), minExponent(amount))
	}
}

func minExponent(d decimal.Decimal) int32 {
	if d.Exponent() < -2 {
		return d.Exponent()
	}
	return -2
}

var errBoom = errors.New("boom")

type failingAudit struct{}

func (failingAudit) Record(ctx context.Context, log internalshared.AuditLog) error { return errBoom }

func TestAuditFailureDoesNotFailPosting(t *testing.T) {
	store := newMemStore()
	engine := NewEngine(store, defaultResolver(), failingAudit{}, nil)

	_, err := engine.Post(context.Background(), saleDocument(uuid.New()))
	require.NoError(t, err)
	require.Len(t, store.state.entries, 1)
}
