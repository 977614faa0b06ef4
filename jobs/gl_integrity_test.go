package jobs

import (
	"context"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

// The scan queries are hand-written SQL against tables the repositories
// own. Pin the column names they depend on to the ones the repositories
// actually write (journal_lines.je_id, stock_balances.qty) so a schema
// rename in one place cannot silently break the scan.
func TestUnbalancedScanQueryUsesRepositoryColumns(t *testing.T) {
	require.Contains(t, unbalancedScanQuery, "JOIN journal_lines jl ON jl.je_id = je.id")
	require.Contains(t, unbalancedScanQuery, "SUM(jl.debit)")
	require.Contains(t, unbalancedScanQuery, "SUM(jl.credit)")
	require.NotContains(t, unbalancedScanQuery, "journal_id")
}

func TestNegativeStockQueryUsesRepositoryColumns(t *testing.T) {
	require.Contains(t, negativeStockQuery, "FROM stock_balances")
	require.Contains(t, negativeStockQuery, "qty < 0")
	require.NotContains(t, negativeStockQuery, "quantity")
}

func TestGLIntegrityRequiresPool(t *testing.T) {
	job := &GLIntegrityJob{}

	task := asynq.NewTask(TaskGLIntegrityScan, []byte(`{}`))
	err := job.Handle(context.Background(), task)
	require.Error(t, err)
}
