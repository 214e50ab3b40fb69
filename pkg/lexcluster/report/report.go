// Package report aggregates per-(method, k) validation results into a
// comparison table. Pure aggregation: the builder never recomputes or
// mutates a score.
//
// The two score columns point in opposite directions — silhouette is
// higher-better in [-1, 1], Davies-Bouldin is lower-better and >= 0 — and
// the rendered table says so rather than letting readers conflate them.
package report

import (
	"crypto/rand"
	"fmt"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Row is one comparison cell: a (method, k) pair with its scores, or a
// failure reason when that cell's computation errored. Failed cells stay
// in the table so no error is silently swallowed.
type Row struct {
	Method        string
	K             int
	Silhouette    float64
	DaviesBouldin float64
	// LabelPurity is the descriptive alignment with the binary labels.
	LabelPurity float64
	// Coherence is the topic-coherence score; topic method only.
	Coherence float64
	// TopTerms maps topic id to its highest-probability terms; topic
	// method only.
	TopTerms map[int][]string
	// Reason is non-empty when the cell failed; scores are then unset.
	Reason string
}

// Failed reports whether the cell carries a failure instead of scores.
func (r Row) Failed() bool { return r.Reason != "" }

// Comparison is a completed table, tagged with the run it came from.
type Comparison struct {
	RunID string
	Rows  []Row
}

// Builder assembles comparisons with ULID run identifiers.
type Builder struct {
	entropy *ulid.MonotonicEntropy
}

// New creates a comparison builder.
func New() *Builder {
	return &Builder{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewRunID mints a fresh run identifier.
func (b *Builder) NewRunID() string {
	return ulid.MustNew(ulid.Now(), b.entropy).String()
}

// Build sorts rows by method name then k and wraps them in a Comparison.
// Rows are copied as given; scores pass through untouched.
func (b *Builder) Build(runID string, rows []Row) Comparison {
	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Method != sorted[j].Method {
			return sorted[i].Method < sorted[j].Method
		}
		return sorted[i].K < sorted[j].K
	})
	return Comparison{RunID: runID, Rows: sorted}
}

// Table renders the comparison as fixed-width text. Failed cells print
// their reason in place of scores.
func (c Comparison) Table() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "run %s\n", c.RunID)
	fmt.Fprintf(&sb, "%-14s %4s %12s %15s %8s\n",
		"method", "k", "silhouette", "davies-bouldin", "purity")
	sb.WriteString("(silhouette: higher is better; davies-bouldin: lower is better)\n")
	for _, r := range c.Rows {
		if r.Failed() {
			fmt.Fprintf(&sb, "%-14s %4d %s\n", r.Method, r.K, "failed: "+r.Reason)
			continue
		}
		fmt.Fprintf(&sb, "%-14s %4d %12.4f %15.4f %8.3f\n",
			r.Method, r.K, r.Silhouette, r.DaviesBouldin, r.LabelPurity)
	}
	return sb.String()
}
