package cluster

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
)

// KMedoids is Partitioning Around Medoids over Manhattan distance: a
// greedy BUILD phase selects k representative documents, then SWAP
// iterations exchange a medoid for a non-medoid whenever that lowers the
// total dissimilarity, until no swap improves. Both phases are
// deterministic; the seed parameter is accepted for contract uniformity.
type KMedoids struct {
	// MaxSwaps caps SWAP iterations as a safety bound; PAM normally
	// terminates well before it.
	MaxSwaps int
}

// NewKMedoids returns a PAM strategy.
func NewKMedoids() *KMedoids {
	return &KMedoids{MaxSwaps: 200}
}

func (s *KMedoids) Name() string { return "kmedoids" }

// Fit implements Strategy. The input is expected to be the standardized
// count matrix.
func (s *KMedoids) Fit(ctx context.Context, m *mat.Dense, k int, seed int64) (Assignment, error) {
	if err := checkK(m, k); err != nil {
		return nil, err
	}
	dist, err := manhattanDistances(ctx, m)
	if err != nil {
		return nil, err
	}
	n := len(dist)

	medoids := build(dist, k)

	for swap := 0; swap < s.MaxSwaps; swap++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cost := totalCost(dist, medoids)
		bestDelta := 0.0
		bestM, bestH := -1, -1
		isMedoid := medoidSet(medoids, n)
		for mi, med := range medoids {
			for h := 0; h < n; h++ {
				if isMedoid[h] {
					continue
				}
				medoids[mi] = h
				if delta := totalCost(dist, medoids) - cost; delta < bestDelta {
					bestDelta = delta
					bestM, bestH = mi, h
				}
				medoids[mi] = med
			}
		}
		if bestM < 0 {
			break
		}
		medoids[bestM] = bestH
	}

	asg := assignToMedoids(dist, medoids)
	if err := checkComplete(asg, k); err != nil {
		return nil, err
	}
	return asg, nil
}

// build greedily selects initial medoids: first the document minimizing
// total distance to all others, then whichever candidate most reduces the
// total assignment cost.
func build(dist [][]float64, k int) []int {
	n := len(dist)
	medoids := make([]int, 0, k)

	best, bestSum := 0, math.Inf(1)
	for i := 0; i < n; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += dist[i][j]
		}
		if sum < bestSum {
			bestSum = sum
			best = i
		}
	}
	medoids = append(medoids, best)

	// nearest[i] = distance from i to its closest chosen medoid
	nearest := make([]float64, n)
	for i := 0; i < n; i++ {
		nearest[i] = dist[i][best]
	}

	for len(medoids) < k {
		chosen := medoidSet(medoids, n)
		bestCand, bestGain := -1, -1.0
		for c := 0; c < n; c++ {
			if chosen[c] {
				continue
			}
			gain := 0.0
			for i := 0; i < n; i++ {
				if d := nearest[i] - dist[i][c]; d > 0 {
					gain += d
				}
			}
			if gain > bestGain {
				bestGain = gain
				bestCand = c
			}
		}
		medoids = append(medoids, bestCand)
		for i := 0; i < n; i++ {
			if dist[i][bestCand] < nearest[i] {
				nearest[i] = dist[i][bestCand]
			}
		}
	}
	return medoids
}

func medoidSet(medoids []int, n int) []bool {
	set := make([]bool, n)
	for _, m := range medoids {
		set[m] = true
	}
	return set
}

func totalCost(dist [][]float64, medoids []int) float64 {
	cost := 0.0
	for i := range dist {
		best := math.Inf(1)
		for _, m := range medoids {
			if dist[i][m] < best {
				best = dist[i][m]
			}
		}
		cost += best
	}
	return cost
}

func assignToMedoids(dist [][]float64, medoids []int) Assignment {
	asg := make(Assignment, len(dist))
	for i := range dist {
		bestC, bestD := 0, math.Inf(1)
		for c, m := range medoids {
			if dist[i][m] < bestD {
				bestD = dist[i][m]
				bestC = c
			}
		}
		asg[i] = bestC + 1
	}
	return asg
}
