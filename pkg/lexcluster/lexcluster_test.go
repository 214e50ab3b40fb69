package lexcluster

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/cognicore/lexcluster/pkg/lexcluster/config"
	"github.com/cognicore/lexcluster/pkg/lexcluster/corpus"
	"github.com/cognicore/lexcluster/pkg/lexcluster/report"
)

// syntheticCorpus builds 20 documents: 10 with label 0 drawn from one
// five-term vocabulary, 10 with label 1 drawn from a disjoint five-term
// vocabulary. Counts vary slightly per document so rows are distinct.
func syntheticCorpus(t *testing.T) *corpus.Corpus {
	t.Helper()
	vocabA := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	vocabB := []string{"foxtrot", "golf", "hotel", "india", "juliet"}

	var tokens [][]string
	var labels []int
	for i := 0; i < 10; i++ {
		docA := append([]string(nil), vocabA...)
		docB := append([]string(nil), vocabB...)
		for r := 0; r <= i%3; r++ {
			docA = append(docA, vocabA[(i+r)%5])
			docB = append(docB, vocabB[(i+r)%5])
		}
		tokens = append(tokens, docA)
		labels = append(labels, 0)
		tokens = append(tokens, docB)
		labels = append(labels, 1)
	}

	c, err := corpus.New(tokens, labels)
	if err != nil {
		t.Fatalf("corpus.New: %v", err)
	}
	return c
}

func testConfig(ks ...int) config.Config {
	cfg := config.Default()
	cfg.ClusterCounts = ks
	cfg.KMeansRestarts = 10
	cfg.LDAIterations = 100
	cfg.EmbeddingNeighbors = 5
	cfg.Workers = 2
	return cfg
}

func newTestEngine(t *testing.T, cfg config.Config) *Engine {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	e, err := New(Options{Config: &cfg, Logger: logger})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func rowFor(t *testing.T, cmp report.Comparison, method string, k int) report.Row {
	t.Helper()
	for _, r := range cmp.Rows {
		if r.Method == method && r.K == k {
			return r
		}
	}
	t.Fatalf("no row for %s/%d in %+v", method, k, cmp.Rows)
	return report.Row{}
}

func TestRunRecoversLabelSplit(t *testing.T) {
	e := newTestEngine(t, testConfig(2))
	defer e.Close()

	res, err := e.Run(context.Background(), syntheticCorpus(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Comparison.Rows) != 5 {
		t.Fatalf("expected 5 rows for 5 methods at k=2, got %d", len(res.Comparison.Rows))
	}

	kmeans := rowFor(t, res.Comparison, "kmeans", 2)
	if kmeans.Failed() {
		t.Fatalf("kmeans cell failed: %s", kmeans.Reason)
	}
	if kmeans.Silhouette <= 0.9 {
		t.Errorf("kmeans silhouette = %v, want > 0.9 on disjoint vocabularies", kmeans.Silhouette)
	}
	if kmeans.LabelPurity != 1 {
		t.Errorf("kmeans purity = %v, want exact label recovery", kmeans.LabelPurity)
	}

	gmm := rowFor(t, res.Comparison, "gmm", 2)
	if gmm.Failed() {
		t.Fatalf("gmm cell failed: %s", gmm.Reason)
	}
	if gmm.Silhouette <= 0 {
		t.Errorf("gmm silhouette = %v, want positive on separated embedding", gmm.Silhouette)
	}

	lda := rowFor(t, res.Comparison, "lda", 2)
	if lda.Failed() {
		t.Fatalf("lda cell failed: %s", lda.Reason)
	}
	if len(lda.TopTerms) != 2 {
		t.Errorf("expected top terms for 2 topics, got %d", len(lda.TopTerms))
	}
}

func TestRunScopesDegenerateCellsToTheirRow(t *testing.T) {
	e := newTestEngine(t, testConfig(2, 25))
	defer e.Close()

	res, err := e.Run(context.Background(), syntheticCorpus(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Comparison.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(res.Comparison.Rows))
	}

	for _, method := range []string{"kmeans", "kmedoids", "gmm", "hierarchical", "lda"} {
		bad := rowFor(t, res.Comparison, method, 25)
		if !bad.Failed() {
			t.Errorf("%s k=25 on 20 documents should fail, got scores %v/%v",
				method, bad.Silhouette, bad.DaviesBouldin)
		}
		if !strings.Contains(bad.Reason, "degenerate") {
			t.Errorf("%s k=25 reason %q does not name the degenerate cluster", method, bad.Reason)
		}
		good := rowFor(t, res.Comparison, method, 2)
		if good.Failed() {
			t.Errorf("%s k=2 failed alongside a degenerate sibling: %s", method, good.Reason)
		}
	}
}

func TestRunSingleClusterIsInsufficient(t *testing.T) {
	e := newTestEngine(t, testConfig(1))
	defer e.Close()

	res, err := e.Run(context.Background(), syntheticCorpus(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, r := range res.Comparison.Rows {
		if !r.Failed() {
			t.Errorf("%s k=1 returned scores; validation is undefined for one cluster", r.Method)
		}
		if !strings.Contains(r.Reason, "fewer than two clusters") {
			t.Errorf("%s k=1 reason %q does not name insufficient clusters", r.Method, r.Reason)
		}
	}
}

func TestRunDeterministicAssignments(t *testing.T) {
	c := syntheticCorpus(t)

	run := func() map[string][]int {
		e := newTestEngine(t, testConfig(2))
		defer e.Close()
		res, err := e.Run(context.Background(), c)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		out := make(map[string][]int)
		for key, asg := range res.Assignments {
			out[key] = asg
		}
		return out
	}

	first := run()
	second := run()
	for key, a := range first {
		b, ok := second[key]
		if !ok {
			t.Fatalf("second run missing %s", key)
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: assignment differs at document %d (%d vs %d)", key, i, a[i], b[i])
			}
		}
	}
}

func TestRunRecordsEveryCellInStore(t *testing.T) {
	e := newTestEngine(t, testConfig(2, 25))
	defer e.Close()

	res, err := e.Run(context.Background(), syntheticCorpus(t))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	rows, err := e.Store().RowsByRun(context.Background(), res.Comparison.RunID)
	if err != nil {
		t.Fatalf("RowsByRun: %v", err)
	}
	if len(rows) != len(res.Comparison.Rows) {
		t.Fatalf("store holds %d rows, comparison has %d", len(rows), len(res.Comparison.Rows))
	}
}
