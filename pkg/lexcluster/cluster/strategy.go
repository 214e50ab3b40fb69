// Package cluster implements five interchangeable unsupervised grouping
// strategies behind one contract: centroid (k-means), medoid (PAM),
// mixture (diagonal-covariance GMM), agglomerative (Ward) and topic (LDA).
// All strategies return 1-based assignments and are pure functions of
// their input matrix, k and seed.
package cluster

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Assignment maps each document (by row index) to a cluster id in [1..k].
type Assignment []int

// NumClusters returns the highest cluster id in the assignment.
func (a Assignment) NumClusters() int {
	max := 0
	for _, c := range a {
		if c > max {
			max = c
		}
	}
	return max
}

// Sizes returns the member count per cluster id (index 0 unused).
func (a Assignment) Sizes() []int {
	sizes := make([]int, a.NumClusters()+1)
	for _, c := range a {
		sizes[c]++
	}
	return sizes
}

// Strategy is the common clustering contract. Fit partitions the rows of m
// into k clusters. Implementations are deterministic for a fixed seed and
// never mutate m.
type Strategy interface {
	Name() string
	Fit(ctx context.Context, m *mat.Dense, k int, seed int64) (Assignment, error)
}

// checkK rejects cluster counts the matrix cannot support.
func checkK(m *mat.Dense, k int) error {
	n, _ := m.Dims()
	if k < 1 {
		return fmt.Errorf("cluster: k=%d: %w", k, internalerr.ErrDegenerateCluster)
	}
	if k > n {
		return fmt.Errorf("cluster: k=%d exceeds %d documents: %w", k, n, internalerr.ErrDegenerateCluster)
	}
	return nil
}

// checkComplete verifies that every cluster id in [1..k] is used. A
// strategy that converged with an empty cluster produced fewer clusters
// than requested and must fail its cell rather than return a partial
// partition.
func checkComplete(a Assignment, k int) error {
	seen := make([]bool, k+1)
	for _, c := range a {
		if c < 1 || c > k {
			return fmt.Errorf("cluster: assignment id %d outside [1..%d]: %w", c, k, internalerr.ErrDegenerateCluster)
		}
		seen[c] = true
	}
	for c := 1; c <= k; c++ {
		if !seen[c] {
			return fmt.Errorf("cluster: cluster %d of %d is empty: %w", c, k, internalerr.ErrDegenerateCluster)
		}
	}
	return nil
}

func euclidean(a, b []float64) float64 { return floats.Distance(a, b, 2) }
func manhattan(a, b []float64) float64 { return floats.Distance(a, b, 1) }

// manhattanDistances builds the full pairwise Manhattan distance matrix
// for the rows of m. The medoid and agglomerative strategies share this
// shape of precomputation; it is the memory-heavy step their callers rate
// limit.
func manhattanDistances(ctx context.Context, m *mat.Dense) ([][]float64, error) {
	n, cols := m.Dims()
	ri := make([]float64, cols)
	rj := make([]float64, cols)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		mat.Row(ri, i, m)
		for j := i + 1; j < n; j++ {
			mat.Row(rj, j, m)
			d := manhattan(ri, rj)
			dist[i][j] = d
			dist[j][i] = d
		}
	}
	return dist, nil
}
