package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// KMeans is Lloyd's algorithm over Euclidean distance with random
// restarts. Each restart initializes centroids from k distinct documents;
// the run with the lowest within-cluster sum of squares wins. Ties during
// assignment go to the first centroid found, so results are reproducible
// for a fixed seed.
type KMeans struct {
	// NStart is the number of random restarts. Minimum 1.
	NStart int
	// MaxIter caps Lloyd iterations per restart.
	MaxIter int
}

// NewKMeans returns a k-means strategy with the given restart count.
func NewKMeans(nstart int) *KMeans {
	if nstart < 1 {
		nstart = 1
	}
	return &KMeans{NStart: nstart, MaxIter: 100}
}

func (s *KMeans) Name() string { return "kmeans" }

// Fit implements Strategy. The input is expected to be the pruned TF-IDF
// matrix.
func (s *KMeans) Fit(ctx context.Context, m *mat.Dense, k int, seed int64) (Assignment, error) {
	if err := checkK(m, k); err != nil {
		return nil, err
	}
	n, cols := m.Dims()
	rng := rand.New(rand.NewSource(seed))

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, cols)
		mat.Row(rows[i], i, m)
	}

	var best Assignment
	bestInertia := math.Inf(1)

	for start := 0; start < s.NStart; start++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		asg, inertia := s.lloyd(rows, k, rng)
		if asg == nil {
			continue // restart collapsed a cluster
		}
		if inertia < bestInertia {
			bestInertia = inertia
			best = asg
		}
	}
	if best == nil {
		return nil, fmt.Errorf("kmeans: every restart produced an empty cluster for k=%d: %w",
			k, internalerr.ErrDegenerateCluster)
	}
	if err := checkComplete(best, k); err != nil {
		return nil, err
	}
	return best, nil
}

// lloyd runs one restart to convergence. Returns nil if a cluster ends up
// empty.
func (s *KMeans) lloyd(rows [][]float64, k int, rng *rand.Rand) (Assignment, float64) {
	n := len(rows)
	cols := len(rows[0])

	centroids := make([][]float64, k)
	for c, idx := range rng.Perm(n)[:k] {
		centroids[c] = append([]float64(nil), rows[idx]...)
	}

	asg := make(Assignment, n)
	for iter := 0; iter < s.MaxIter; iter++ {
		changed := false
		for i, row := range rows {
			bestC, bestD := 0, math.Inf(1)
			for c, cen := range centroids {
				if d := euclidean(row, cen); d < bestD {
					bestD = d
					bestC = c
				}
			}
			if asg[i] != bestC+1 {
				asg[i] = bestC + 1
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		for c := range centroids {
			for j := 0; j < cols; j++ {
				centroids[c][j] = 0
			}
		}
		for i, row := range rows {
			c := asg[i] - 1
			counts[c]++
			for j, v := range row {
				centroids[c][j] += v
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				return nil, 0
			}
			for j := range centroids[c] {
				centroids[c][j] /= float64(counts[c])
			}
		}
	}

	inertia := 0.0
	for i, row := range rows {
		d := euclidean(row, centroids[asg[i]-1])
		inertia += d * d
	}
	return asg, inertia
}
