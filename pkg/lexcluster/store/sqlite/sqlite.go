// Package sqlite implements store.Store on SQLite. The default DSN is
// :memory:, so run results stay scoped to the process; passing a file
// path is an explicit opt-in by the caller.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/cognicore/lexcluster/pkg/lexcluster/report"
	"github.com/cognicore/lexcluster/pkg/lexcluster/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// Open opens a SQLite-backed result store. An empty path means :memory:.
func Open(ctx context.Context, path string) (store.Store, error) {
	inMemory := path == "" || path == ":memory:"
	if inMemory {
		path = ":memory:"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// database/sql hands each connection its own :memory: database, so
	// the in-memory store must stay on a single connection.
	if inMemory {
		db.SetMaxOpenConns(1)
	} else {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	seq INTEGER
);

CREATE TABLE IF NOT EXISTS result_rows (
	run_id TEXT NOT NULL,
	method TEXT NOT NULL,
	k INTEGER NOT NULL,
	silhouette REAL,
	davies_bouldin REAL,
	label_purity REAL,
	coherence REAL,
	top_terms TEXT,
	reason TEXT,
	UNIQUE(run_id, method, k),
	FOREIGN KEY(run_id) REFERENCES runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_result_rows_run ON result_rows(run_id);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRow records a comparison cell under a run.
func (s *sqliteStore) SaveRow(ctx context.Context, runID string, r report.Row) error {
	if _, err := s.db.ExecContext(ctx, `
INSERT INTO runs (run_id, seq)
VALUES (?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM runs))
ON CONFLICT(run_id) DO NOTHING`, runID); err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	var topTerms any
	if r.TopTerms != nil {
		data, err := json.Marshal(r.TopTerms)
		if err != nil {
			return fmt.Errorf("encode top terms: %w", err)
		}
		topTerms = string(data)
	}

	if _, err := s.db.ExecContext(ctx, `
INSERT INTO result_rows (run_id, method, k, silhouette, davies_bouldin, label_purity, coherence, top_terms, reason)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id, method, k) DO UPDATE SET
	silhouette=excluded.silhouette,
	davies_bouldin=excluded.davies_bouldin,
	label_purity=excluded.label_purity,
	coherence=excluded.coherence,
	top_terms=excluded.top_terms,
	reason=excluded.reason`,
		runID, r.Method, r.K, r.Silhouette, r.DaviesBouldin, r.LabelPurity,
		r.Coherence, topTerms, r.Reason); err != nil {
		return fmt.Errorf("save row: %w", err)
	}
	return nil
}

// RowsByRun returns the rows of a run, ordered by method then k.
func (s *sqliteStore) RowsByRun(ctx context.Context, runID string) ([]report.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT method, k, silhouette, davies_bouldin, label_purity, coherence, top_terms, reason
FROM result_rows WHERE run_id = ?
ORDER BY method, k`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var r report.Row
		var topTerms sql.NullString
		if err := rows.Scan(&r.Method, &r.K, &r.Silhouette, &r.DaviesBouldin,
			&r.LabelPurity, &r.Coherence, &topTerms, &r.Reason); err != nil {
			return nil, err
		}
		if topTerms.Valid {
			if err := json.Unmarshal([]byte(topTerms.String), &r.TopTerms); err != nil {
				return nil, fmt.Errorf("decode top terms: %w", err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists run IDs in insertion order.
func (s *sqliteStore) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
