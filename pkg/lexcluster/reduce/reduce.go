// Package reduce projects a weighted term-document matrix to a small
// embedding for the mixture strategy. The reduction is a Laplacian
// eigenmap: a k-nearest-neighbor graph over the documents, then the bottom
// nontrivial eigenvectors of the symmetric normalized graph Laplacian.
// It preserves local neighborhood structure and, unlike stochastic
// embeddings, is bit-for-bit deterministic for a given input.
package reduce

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Options controls the embedding.
type Options struct {
	// Dims is the embedding dimensionality.
	Dims int
	// Neighbors is the k of the k-NN graph. Clamped to N-1.
	Neighbors int
	// Seed is accepted for contract uniformity with the clustering
	// strategies. The eigenmap is deterministic and does not consume it.
	Seed int64
}

// DefaultOptions returns a 2-D embedding over a 10-neighbor graph.
func DefaultOptions() Options {
	return Options{Dims: 2, Neighbors: 10}
}

// Embed computes the low-dimensional embedding of the rows of m.
// The result is N×Dims with rows aligned to documents.
func Embed(ctx context.Context, m *mat.Dense, opts Options) (*mat.Dense, error) {
	n, _ := m.Dims()
	if opts.Dims < 1 {
		return nil, fmt.Errorf("reduce: dims %d: %w", opts.Dims, internalerr.ErrInvalidConfig)
	}
	if n < opts.Dims+2 {
		return nil, fmt.Errorf("reduce: %d documents cannot support a %d-dimensional embedding: %w",
			n, opts.Dims, internalerr.ErrInvalidInput)
	}

	knn := opts.Neighbors
	if knn < 1 {
		knn = 1
	}
	if knn > n-1 {
		knn = n - 1
	}

	// Symmetrized k-NN adjacency under Euclidean distance.
	_, cols := m.Dims()
	adj := mat.NewSymDense(n, nil)
	row := make([]float64, cols)
	other := make([]float64, cols)
	type nd struct {
		idx  int
		dist float64
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mat.Row(row, i, m)
		cands := make([]nd, 0, n-1)
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			mat.Row(other, j, m)
			cands = append(cands, nd{idx: j, dist: floats.Distance(row, other, 2)})
		}
		sort.Slice(cands, func(a, b int) bool {
			if cands[a].dist != cands[b].dist {
				return cands[a].dist < cands[b].dist
			}
			return cands[a].idx < cands[b].idx
		})
		for _, c := range cands[:knn] {
			adj.SetSym(i, c.idx, 1)
		}
	}

	// Symmetric normalized Laplacian L = I - D^{-1/2} A D^{-1/2}.
	deg := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			deg[i] += adj.At(i, j)
		}
	}
	lap := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		lap.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			if adj.At(i, j) == 0 {
				continue
			}
			lap.SetSym(i, j, -adj.At(i, j)/math.Sqrt(deg[i]*deg[j]))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(lap, true) {
		return nil, fmt.Errorf("reduce: laplacian eigendecomposition failed: %w", internalerr.ErrInvalidInput)
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	// Eigenvalues come back ascending; column 0 is the trivial constant
	// eigenvector, so the embedding uses columns 1..Dims.
	out := mat.NewDense(n, opts.Dims, nil)
	col := make([]float64, n)
	for d := 0; d < opts.Dims; d++ {
		mat.Col(col, d+1, &vecs)
		orientColumn(col)
		for i := 0; i < n; i++ {
			out.Set(i, d, col[i])
		}
	}
	return out, nil
}

// orientColumn fixes the sign ambiguity of an eigenvector: the entry with
// the largest magnitude is made positive so repeated runs agree.
func orientColumn(col []float64) {
	maxAbs, sign := 0.0, 1.0
	for _, v := range col {
		if a := math.Abs(v); a > maxAbs {
			maxAbs = a
			if v < 0 {
				sign = -1
			} else {
				sign = 1
			}
		}
	}
	if sign < 0 {
		floats.Scale(-1, col)
	}
}
