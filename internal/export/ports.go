package export

import (
	"context"

	"budgetbook/internal/core"
)

// Ports for outbound snapshot adapters.
type (
	// SnapshotWriter appends one budget snapshot row for an account.
	SnapshotWriter interface {
		AppendSnapshot(ctx context.Context, summary core.BudgetSummary) (rowRef string, err error)
	}
)
