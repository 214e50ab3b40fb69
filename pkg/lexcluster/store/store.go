// Package store persists comparison rows for the current run. The default
// backends keep everything in memory; results never outlive the process
// unless a caller explicitly opens a file-backed store.
package store

import (
	"context"

	"github.com/cognicore/lexcluster/pkg/lexcluster/report"
)

// Store is the interface for recording and reading back run results.
type Store interface {
	Close() error

	// SaveRow records one comparison cell under a run.
	SaveRow(ctx context.Context, runID string, r report.Row) error
	// RowsByRun returns every recorded cell of a run, ordered by method
	// then k.
	RowsByRun(ctx context.Context, runID string) ([]report.Row, error)
	// Runs lists recorded run IDs in insertion order.
	Runs(ctx context.Context) ([]string, error)
}
