package cluster

import (
	"context"
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Dendrogram records the merge order of bottom-up agglomeration. One
// dendrogram supports cutting at any cluster count without recomputation,
// and cuts nest: the k=5 partition is always a coarsening of the k=10
// partition because both replay the same merge sequence.
type Dendrogram struct {
	n      int
	merges [][2]int // pairs of document indices whose clusters merged, in order
}

// Cut produces the flat assignment with k clusters by replaying all but
// the last k-1 merges.
func (d *Dendrogram) Cut(k int) (Assignment, error) {
	if k < 1 || k > d.n {
		return nil, fmt.Errorf("dendrogram: cut at k=%d with %d documents: %w",
			k, d.n, internalerr.ErrDegenerateCluster)
	}

	parent := make([]int, d.n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, mrg := range d.merges[:d.n-k] {
		a, b := find(mrg[0]), find(mrg[1])
		if a != b {
			parent[b] = a
		}
	}

	// Components become ids 1..k in order of first appearance by
	// document index, which keeps cuts deterministic.
	asg := make(Assignment, d.n)
	next := 1
	label := make(map[int]int, k)
	for i := 0; i < d.n; i++ {
		root := find(i)
		id, ok := label[root]
		if !ok {
			id = next
			label[root] = id
			next++
		}
		asg[i] = id
	}
	return asg, nil
}

// BuildDendrogram agglomerates the rows of m bottom-up using Ward's
// minimum-variance criterion over a Manhattan distance matrix
// (Lance-Williams update on squared dissimilarities). The Manhattan basis
// follows the reference pipeline; swapping it for Euclidean would change
// every downstream score and is a behavioral change, not a fix.
func BuildDendrogram(ctx context.Context, m *mat.Dense) (*Dendrogram, error) {
	dist, err := manhattanDistances(ctx, m)
	if err != nil {
		return nil, err
	}
	n := len(dist)

	// Squared dissimilarities between active clusters, Ward-updated.
	d2 := make([][]float64, n)
	for i := range d2 {
		d2[i] = make([]float64, n)
		for j := range d2[i] {
			d2[i][j] = dist[i][j] * dist[i][j]
		}
	}
	active := make([]bool, n)
	size := make([]int, n)
	rep := make([]int, n) // representative document per active cluster
	for i := 0; i < n; i++ {
		active[i] = true
		size[i] = 1
		rep[i] = i
	}

	dend := &Dendrogram{n: n, merges: make([][2]int, 0, n-1)}
	for step := 0; step < n-1; step++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		bi, bj, bd := -1, -1, math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if !active[j] {
					continue
				}
				if d2[i][j] < bd {
					bd = d2[i][j]
					bi, bj = i, j
				}
			}
		}

		// Lance-Williams update for Ward: cluster bj folds into bi.
		ni, nj := float64(size[bi]), float64(size[bj])
		for h := 0; h < n; h++ {
			if !active[h] || h == bi || h == bj {
				continue
			}
			nh := float64(size[h])
			upd := ((ni+nh)*d2[bi][h] + (nj+nh)*d2[bj][h] - nh*d2[bi][bj]) / (ni + nj + nh)
			d2[bi][h] = upd
			d2[h][bi] = upd
		}
		active[bj] = false
		size[bi] += size[bj]
		dend.merges = append(dend.merges, [2]int{rep[bi], rep[bj]})
	}
	return dend, nil
}

// Hierarchical is the agglomerative strategy. The dendrogram is built on
// the first Fit and reused for every later cut, so the instance is bound
// to a single input matrix — the engine creates one per run.
type Hierarchical struct {
	once sync.Once
	dend *Dendrogram
	err  error
}

// NewHierarchical returns an agglomerative Ward strategy.
func NewHierarchical() *Hierarchical {
	return &Hierarchical{}
}

func (s *Hierarchical) Name() string { return "hierarchical" }

// Fit implements Strategy. The input is expected to be the standardized
// count matrix. The seed is unused: agglomeration is deterministic.
func (s *Hierarchical) Fit(ctx context.Context, m *mat.Dense, k int, seed int64) (Assignment, error) {
	if err := checkK(m, k); err != nil {
		return nil, err
	}
	s.once.Do(func() {
		s.dend, s.err = BuildDendrogram(ctx, m)
	})
	if s.err != nil {
		return nil, s.err
	}
	asg, err := s.dend.Cut(k)
	if err != nil {
		return nil, err
	}
	if err := checkComplete(asg, k); err != nil {
		return nil, err
	}
	return asg, nil
}
