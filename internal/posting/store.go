package posting

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/aurora-books/aurora-books/internal/inventory"
	"github.com/aurora-books/aurora-books/internal/ledger/journals"
	"github.com/aurora-books/aurora-books/internal/ledger/transactions"
	"github.com/aurora-books/aurora-books/internal/platform/db"
)

// StoreTx groups the per-aggregate transactional repositories behind one
// commit scope. Everything a posting or void touches goes through it.
type StoreTx interface {
	Journals() journals.TxRepository
	Inventory() inventory.TxRepository
	Transactions() transactions.TxRepository
}

// Store runs a closure inside a single atomic transaction. Tests substitute
// an in-memory implementation.
type Store interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error
}

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) RunAtomic(ctx context.Context, fn func(ctx context.Context, tx StoreTx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgStoreTx{tx: tx})
	})
}

type pgStoreTx struct {
	tx pgx.Tx
}

func (t *pgStoreTx) Journals() journals.TxRepository {
	return journals.NewTxRepository(t.tx)
}

func (t *pgStoreTx) Inventory() inventory.TxRepository {
	return inventory.NewTxRepository(t.tx)
}

func (t *pgStoreTx) Transactions() transactions.TxRepository {
	return transactions.NewTxRepository(t.tx)
}
