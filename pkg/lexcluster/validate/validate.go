// Package validate scores a (matrix, assignment, distance) triple with two
// internal-validation metrics. The distance basis is always an explicit
// argument and must match the basis the strategy clustered under —
// Euclidean for the centroid and mixture strategies, Manhattan for the
// medoid, agglomerative and topic strategies.
//
// The two metrics point in opposite directions: average silhouette width
// lies in [-1, 1] and higher is better; the Davies-Bouldin index is >= 0
// and lower is better.
package validate

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/cluster"
	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Distance selects the metric basis for validation.
type Distance int

const (
	Euclidean Distance = iota
	Manhattan
)

// String returns the basis name for reporting.
func (d Distance) String() string {
	if d == Manhattan {
		return "manhattan"
	}
	return "euclidean"
}

// Between computes the distance between two vectors under the basis.
func (d Distance) Between(a, b []float64) float64 {
	if d == Manhattan {
		return floats.Distance(a, b, 1)
	}
	return floats.Distance(a, b, 2)
}

// checkPartition validates an assignment before scoring: at least two
// clusters, no empty cluster in [1..k], and not every cluster a singleton
// (an all-singleton partition has a(i)=0 everywhere and no meaningful
// silhouette).
func checkPartition(a cluster.Assignment, n int) error {
	if len(a) != n {
		return fmt.Errorf("validate: assignment length %d for %d documents: %w",
			len(a), n, internalerr.ErrInvalidInput)
	}
	k := a.NumClusters()
	if k < 2 {
		return fmt.Errorf("validate: k=%d: %w", k, internalerr.ErrInsufficientClusters)
	}
	sizes := a.Sizes()
	allSingleton := true
	for c := 1; c <= k; c++ {
		if sizes[c] == 0 {
			return fmt.Errorf("validate: cluster %d is empty: %w", c, internalerr.ErrDegenerateCluster)
		}
		if sizes[c] > 1 {
			allSingleton = false
		}
	}
	if allSingleton {
		return fmt.Errorf("validate: every cluster is a singleton: %w", internalerr.ErrDegenerateCluster)
	}
	return nil
}

// Pairwise builds the full pairwise distance matrix for the rows of m.
func Pairwise(ctx context.Context, m *mat.Dense, d Distance) ([][]float64, error) {
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
			v := d.Between(ri, rj)
			dist[i][j] = v
			dist[j][i] = v
		}
	}
	return dist, nil
}

// Silhouette computes the average silhouette width over a precomputed
// pairwise distance matrix. For document i in cluster A,
// s(i) = (b(i) - a(i)) / max(a(i), b(i)), where a(i) is the mean distance
// to the other members of A and b(i) the smallest mean distance to any
// other cluster. Documents in singleton clusters contribute s(i) = 0.
func Silhouette(dist [][]float64, a cluster.Assignment) (float64, error) {
	n := len(dist)
	if err := checkPartition(a, n); err != nil {
		return 0, err
	}
	k := a.NumClusters()
	sizes := a.Sizes()

	total := 0.0
	sums := make([]float64, k+1)
	for i := 0; i < n; i++ {
		own := a[i]
		if sizes[own] == 1 {
			continue // singleton: s(i) = 0 by convention
		}
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			sums[a[j]] += dist[i][j]
		}
		ai := sums[own] / float64(sizes[own]-1)
		bi := math.Inf(1)
		for c := 1; c <= k; c++ {
			if c == own {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < bi {
				bi = mean
			}
		}
		if denom := math.Max(ai, bi); denom > 0 {
			total += (bi - ai) / denom
		}
	}
	return total / float64(n), nil
}

// DaviesBouldin computes the Davies-Bouldin index for the rows of m under
// the given distance basis. Scatter sigma_i is the mean distance of a
// cluster's members to its centroid; the index averages, over clusters,
// the worst ratio (sigma_i + sigma_j) / d(c_i, c_j).
func DaviesBouldin(m *mat.Dense, a cluster.Assignment, d Distance) (float64, error) {
	n, cols := m.Dims()
	if err := checkPartition(a, n); err != nil {
		return 0, err
	}
	k := a.NumClusters()
	sizes := a.Sizes()

	centroids := make([][]float64, k+1)
	for c := 1; c <= k; c++ {
		centroids[c] = make([]float64, cols)
	}
	row := make([]float64, cols)
	for i := 0; i < n; i++ {
		mat.Row(row, i, m)
		floats.Add(centroids[a[i]], row)
	}
	for c := 1; c <= k; c++ {
		floats.Scale(1/float64(sizes[c]), centroids[c])
	}

	sigma := make([]float64, k+1)
	for i := 0; i < n; i++ {
		mat.Row(row, i, m)
		sigma[a[i]] += d.Between(row, centroids[a[i]])
	}
	for c := 1; c <= k; c++ {
		sigma[c] /= float64(sizes[c])
	}

	db := 0.0
	for i := 1; i <= k; i++ {
		worst := 0.0
		for j := 1; j <= k; j++ {
			if j == i {
				continue
			}
			sep := d.Between(centroids[i], centroids[j])
			var r float64
			if sep == 0 {
				r = math.Inf(1)
			} else {
				r = (sigma[i] + sigma[j]) / sep
			}
			if r > worst {
				worst = r
			}
		}
		db += worst
	}
	return db / float64(k), nil
}

// Scores computes both metrics on the same matrix and distance basis,
// which is the only supported pairing: mixing bases between the two
// metrics would make the comparison table incoherent.
func Scores(ctx context.Context, m *mat.Dense, a cluster.Assignment, d Distance) (sil, db float64, err error) {
	dist, err := Pairwise(ctx, m, d)
	if err != nil {
		return 0, 0, err
	}
	sil, err = Silhouette(dist, a)
	if err != nil {
		return 0, 0, err
	}
	db, err = DaviesBouldin(m, a, d)
	if err != nil {
		return 0, 0, err
	}
	return sil, db, nil
}

// LabelAgreement reports the purity of an assignment against the binary
// document labels: the fraction of documents whose cluster's majority
// label matches their own. Descriptive only; labels are never a training
// signal.
func LabelAgreement(a cluster.Assignment, labels []int) float64 {
	if len(labels) != len(a) || len(a) == 0 {
		return 0
	}
	k := a.NumClusters()
	ones := make([]int, k+1)
	counts := make([]int, k+1)
	for i, c := range a {
		counts[c]++
		ones[c] += labels[i]
	}
	correct := 0
	for c := 1; c <= k; c++ {
		zeroes := counts[c] - ones[c]
		if ones[c] > zeroes {
			correct += ones[c]
		} else {
			correct += zeroes
		}
	}
	return float64(correct) / float64(len(a))
}
