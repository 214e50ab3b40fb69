package report

import (
	"strings"
	"testing"
)

func TestBuildSortsByMethodThenK(t *testing.T) {
	b := New()
	cmp := b.Build(b.NewRunID(), []Row{
		{Method: "lda", K: 10},
		{Method: "kmeans", K: 10},
		{Method: "kmeans", K: 5},
	})
	if cmp.Rows[0].Method != "kmeans" || cmp.Rows[0].K != 5 {
		t.Fatalf("unexpected first row: %+v", cmp.Rows[0])
	}
	if cmp.Rows[2].Method != "lda" {
		t.Fatalf("unexpected last row: %+v", cmp.Rows[2])
	}
}

func TestBuildDoesNotMutateScores(t *testing.T) {
	rows := []Row{{Method: "kmeans", K: 5, Silhouette: 0.42, DaviesBouldin: 1.7}}
	b := New()
	cmp := b.Build(b.NewRunID(), rows)
	if cmp.Rows[0].Silhouette != 0.42 || cmp.Rows[0].DaviesBouldin != 1.7 {
		t.Fatalf("scores changed during aggregation: %+v", cmp.Rows[0])
	}
}

func TestRunIDsAreUnique(t *testing.T) {
	b := New()
	a, c := b.NewRunID(), b.NewRunID()
	if a == c {
		t.Fatalf("duplicate run IDs: %s", a)
	}
}

func TestTableShowsFailedCells(t *testing.T) {
	b := New()
	cmp := b.Build("run-1", []Row{
		{Method: "kmeans", K: 5, Silhouette: 0.8, DaviesBouldin: 0.5},
		{Method: "gmm", K: 40, Reason: "degenerate cluster configuration"},
	})
	table := cmp.Table()
	if !strings.Contains(table, "failed: degenerate cluster configuration") {
		t.Fatalf("failed cell missing from table:\n%s", table)
	}
	if !strings.Contains(table, "kmeans") {
		t.Fatalf("successful cell missing from table:\n%s", table)
	}
	// The opposite score directions are stated right in the header.
	if !strings.Contains(table, "higher is better") || !strings.Contains(table, "lower is better") {
		t.Fatalf("table does not document score directions:\n%s", table)
	}
}
