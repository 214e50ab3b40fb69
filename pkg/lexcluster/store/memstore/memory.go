// Package memstore is the in-memory store.Store used by tests and as the
// engine default.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cognicore/lexcluster/pkg/lexcluster/report"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu       sync.RWMutex
	runOrder []string
	rows     map[string][]report.Row
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{rows: make(map[string][]report.Row)}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// SaveRow records a row under the given run.
func (s *Store) SaveRow(ctx context.Context, runID string, r report.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[runID]; !ok {
		s.runOrder = append(s.runOrder, runID)
	}
	s.rows[runID] = append(s.rows[runID], copyRow(r))
	return nil
}

// RowsByRun returns the rows of a run, ordered by method then k.
func (s *Store) RowsByRun(ctx context.Context, runID string) ([]report.Row, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.rows[runID]
	out := make([]report.Row, len(rows))
	for i, r := range rows {
		out[i] = copyRow(r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Method != out[j].Method {
			return out[i].Method < out[j].Method
		}
		return out[i].K < out[j].K
	})
	return out, nil
}

// Runs lists run IDs in insertion order.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.runOrder...), nil
}

func copyRow(r report.Row) report.Row {
	out := r
	if r.TopTerms != nil {
		out.TopTerms = make(map[int][]string, len(r.TopTerms))
		for k, v := range r.TopTerms {
			out.TopTerms[k] = append([]string(nil), v...)
		}
	}
	return out
}
