// Package lexcluster is a clustering and topic-modeling evaluation engine
// for preprocessed text corpora. It builds term-document representations
// once, fits five unsupervised strategies across the requested cluster
// counts, scores every partition with silhouette and Davies-Bouldin on the
// distance basis that produced it, and aggregates everything into a
// comparison table.
package lexcluster

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/cluster"
	"github.com/cognicore/lexcluster/pkg/lexcluster/coherence"
	"github.com/cognicore/lexcluster/pkg/lexcluster/config"
	"github.com/cognicore/lexcluster/pkg/lexcluster/corpus"
	"github.com/cognicore/lexcluster/pkg/lexcluster/reduce"
	"github.com/cognicore/lexcluster/pkg/lexcluster/report"
	"github.com/cognicore/lexcluster/pkg/lexcluster/store"
	"github.com/cognicore/lexcluster/pkg/lexcluster/store/memstore"
	"github.com/cognicore/lexcluster/pkg/lexcluster/tdm"
	"github.com/cognicore/lexcluster/pkg/lexcluster/validate"
)

// Engine runs the evaluation pipeline.
type Engine struct {
	cfg     config.Config
	store   store.Store
	log     *slog.Logger
	builder *report.Builder
}

// Options configures an Engine.
type Options struct {
	// Config defaults to config.Default().
	Config *config.Config
	// Store records comparison rows; defaults to an in-memory store.
	Store store.Store
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// New creates an Engine with the given dependencies.
func New(opts Options) (*Engine, error) {
	cfg := config.Default()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st := opts.Store
	if st == nil {
		st = memstore.New()
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Engine{cfg: cfg, store: st, log: log, builder: report.New()}, nil
}

// Close releases the engine's store.
func (e *Engine) Close() error { return e.store.Close() }

// Store returns the result store the engine records into.
func (e *Engine) Store() store.Store { return e.store }

// cell is one (method, k) unit of work.
type cell struct {
	method   string
	k        int
	matrix   *mat.Dense
	dist     validate.Distance
	strategy cluster.Strategy
	heavy    bool
	topic    bool
	// blocked carries an upstream matrix-construction failure; the cell
	// then reports it instead of fitting.
	blocked error
}

// Result bundles the comparison with the per-cell assignments for
// downstream visualization.
type Result struct {
	Comparison  report.Comparison
	Assignments map[string]cluster.Assignment // keyed "method/k"
}

// Run executes the full cross product of strategies and cluster counts
// over the corpus. Errors scoped to a single (method, k) cell become
// failed rows in the comparison; only corpus-level failures (an empty
// vocabulary for the raw counts, context cancellation, store errors)
// abort the run.
func (e *Engine) Run(ctx context.Context, c *corpus.Corpus) (Result, error) {
	runID := e.builder.NewRunID()
	log := e.log.With("run_id", runID)
	log.Info("run started", "docs", c.Len(), "cluster_counts", e.cfg.ClusterCounts)

	counts, err := tdm.Build(c, tdm.Options{
		MinTermLength:  e.cfg.MinTermLength,
		MinDocFraction: e.cfg.MinDocFraction,
	})
	if err != nil {
		return Result{}, err
	}
	_, vocab := counts.Dims()
	log.Info("term-document matrix built", "terms", vocab)

	scaled := counts.Standardize()

	// The TF-IDF and embedding constructions can each fail without
	// taking the rest of the comparison down; their cells report the
	// failure instead.
	var tfidfErr, embedErr error
	var tfidfPruned *tdm.Matrix
	weighted := tdm.TFIDF(counts)
	tfidfPruned, tfidfErr = tdm.PruneSparse(weighted, e.cfg.MinDocFraction)
	if tfidfErr != nil {
		log.Warn("tf-idf weighting scheme aborted", "error", tfidfErr)
	}

	var embedding *mat.Dense
	embedding, embedErr = reduce.Embed(ctx, weighted.Dense(), reduce.Options{
		Dims:      e.cfg.EmbeddingDims,
		Neighbors: e.cfg.EmbeddingNeighbors,
		Seed:      e.cfg.Seed,
	})
	if embedErr != nil {
		if ctx.Err() != nil {
			return Result{}, embedErr
		}
		log.Warn("embedding construction failed", "error", embedErr)
	}

	cells := e.buildCells(counts, tfidfPruned, tfidfErr, scaled, embedding, embedErr)

	labels := c.Labels()
	rows := make([]report.Row, len(cells))
	assignments := make([]cluster.Assignment, len(cells))

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	heavy := semaphore.NewWeighted(e.cfg.HeavySlots)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, cl := range cells {
		i, cl := i, cl
		g.Go(func() error {
			if cl.heavy {
				if err := heavy.Acquire(gctx, 1); err != nil {
					return err
				}
				defer heavy.Release(1)
			}
			row, asg := e.runCell(gctx, cl, counts, labels)
			if gctx.Err() != nil {
				return gctx.Err()
			}
			rows[i] = row
			assignments[i] = asg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	byKey := make(map[string]cluster.Assignment, len(cells))
	for i, cl := range cells {
		if assignments[i] != nil {
			byKey[fmt.Sprintf("%s/%d", cl.method, cl.k)] = assignments[i]
		}
		if err := e.store.SaveRow(ctx, runID, rows[i]); err != nil {
			return Result{}, fmt.Errorf("record row %s/%d: %w", cl.method, cl.k, err)
		}
	}

	cmp := e.builder.Build(runID, rows)
	log.Info("run finished", "rows", len(cmp.Rows))
	return Result{Comparison: cmp, Assignments: byKey}, nil
}

// buildCells lays out the {method} × {k} cross product with each method's
// matrix and distance basis. The bases are deliberately per-method —
// Euclidean for centroid and mixture, Manhattan for medoid, agglomerative
// and topic — matching the basis each strategy clusters under.
func (e *Engine) buildCells(counts, tfidfPruned *tdm.Matrix, tfidfErr error,
	scaled *tdm.Matrix, embedding *mat.Dense, embedErr error) []cell {

	hier := cluster.NewHierarchical() // shared so the dendrogram is built once

	var cells []cell
	for _, k := range e.cfg.ClusterCounts {
		kmeansCell := cell{
			method: "kmeans", k: k, dist: validate.Euclidean,
			strategy: cluster.NewKMeans(e.cfg.KMeansRestarts), blocked: tfidfErr,
		}
		if tfidfErr == nil {
			kmeansCell.matrix = tfidfPruned.Dense()
		}
		gmmCell := cell{
			method: "gmm", k: k, dist: validate.Euclidean,
			strategy: cluster.NewGMM(), heavy: true, blocked: embedErr,
			matrix: embedding,
		}
		cells = append(cells,
			kmeansCell,
			cell{
				method: "kmedoids", k: k, matrix: scaled.Dense(),
				dist: validate.Manhattan, strategy: cluster.NewKMedoids(),
			},
			gmmCell,
			cell{
				method: "hierarchical", k: k, matrix: scaled.Dense(),
				dist: validate.Manhattan, strategy: hier, heavy: true,
			},
			cell{
				method: "lda", k: k, matrix: counts.Dense(),
				dist: validate.Manhattan, strategy: cluster.NewLDA(e.cfg.LDAIterations),
				topic: true,
			},
		)
	}
	return cells
}

// runCell fits and validates one cell. Cell-scoped failures come back as
// a row with a reason; they never abort sibling cells.
func (e *Engine) runCell(ctx context.Context, cl cell, counts *tdm.Matrix, labels []int) (report.Row, cluster.Assignment) {
	row := report.Row{Method: cl.method, K: cl.k}
	fail := func(err error) (report.Row, cluster.Assignment) {
		row.Reason = err.Error()
		e.log.Warn("cell failed", "method", cl.method, "k", cl.k, "error", err)
		return row, nil
	}

	if cl.blocked != nil {
		return fail(cl.blocked)
	}

	asg, err := cl.strategy.Fit(ctx, cl.matrix, cl.k, e.cfg.Seed)
	if err != nil {
		return fail(err)
	}

	sil, db, err := validate.Scores(ctx, cl.matrix, asg, cl.dist)
	if err != nil {
		return fail(err)
	}
	row.Silhouette = sil
	row.DaviesBouldin = db
	row.LabelPurity = validate.LabelAgreement(asg, labels)

	if cl.topic {
		if lda, ok := cl.strategy.(*cluster.LDA); ok {
			row.TopTerms = lda.TopTerms(counts.Terms(), e.cfg.TopicTopTerms)
			calc := coherence.NewCalculator(1.0)
			total := 0.0
			topicIdx := lda.TopTermIndices(e.cfg.TopicTopTerms)
			for _, terms := range topicIdx {
				total += calc.TopicCoherence(counts.Dense(), terms)
			}
			if len(topicIdx) > 0 {
				row.Coherence = total / float64(len(topicIdx))
			}
		}
	}

	e.log.Debug("cell scored", "method", cl.method, "k", cl.k,
		"silhouette", row.Silhouette, "davies_bouldin", row.DaviesBouldin,
		"distance", cl.dist.String())
	return row, asg
}
