package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// varianceFloor keeps component variances away from zero when a component
// collapses onto near-identical points.
const varianceFloor = 1e-6

// GMM fits a Gaussian mixture by expectation-maximization and assigns each
// document to its maximum-posterior component. The covariance structure is
// fixed to diagonal: on the low-dimensional embedding this strategy
// consumes, diagonal EM keeps the M-step closed-form and avoids singular
// covariance estimates on small clusters.
type GMM struct {
	// MaxIter caps EM iterations.
	MaxIter int
	// Tol is the convergence threshold on the per-document mean
	// log-likelihood delta.
	Tol float64
}

// NewGMM returns a mixture strategy with reference settings.
func NewGMM() *GMM {
	return &GMM{MaxIter: 200, Tol: 1e-6}
}

func (s *GMM) Name() string { return "gmm" }

// Fit implements Strategy. The input is expected to be the reduced
// embedding, never a raw term-document matrix.
func (s *GMM) Fit(ctx context.Context, m *mat.Dense, k int, seed int64) (Assignment, error) {
	if err := checkK(m, k); err != nil {
		return nil, err
	}
	n, d := m.Dims()
	rng := rand.New(rand.NewSource(seed))

	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, d)
		mat.Row(rows[i], i, m)
	}

	// Initialize means with k-means++ style seeding so symmetric starts
	// cannot trap EM; variances start from the global per-dimension
	// variance with uniform weights.
	means := seedMeans(rows, k, rng)
	globalVar := make([]float64, d)
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, m)
		mean := floats.Sum(col) / float64(n)
		v := 0.0
		for _, x := range col {
			v += (x - mean) * (x - mean)
		}
		globalVar[j] = math.Max(v/float64(n), varianceFloor)
	}
	vars := make([][]float64, k)
	weights := make([]float64, k)
	for c := 0; c < k; c++ {
		vars[c] = append([]float64(nil), globalVar...)
		weights[c] = 1 / float64(k)
	}

	resp := make([][]float64, n)
	for i := range resp {
		resp[i] = make([]float64, k)
	}
	logp := make([]float64, k)
	prevLL := math.Inf(-1)

	for iter := 0; iter < s.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		comps, err := components(means, vars)
		if err != nil {
			return nil, err
		}

		// E-step: log responsibilities via log-sum-exp.
		ll := 0.0
		for i, row := range rows {
			for c := 0; c < k; c++ {
				logp[c] = math.Log(weights[c]) + comps[c].LogProb(row)
			}
			lse := logSumExp(logp)
			ll += lse
			for c := 0; c < k; c++ {
				resp[i][c] = math.Exp(logp[c] - lse)
			}
		}

		// M-step.
		for c := 0; c < k; c++ {
			nk := 0.0
			for i := range rows {
				nk += resp[i][c]
			}
			if nk < 1e-10 {
				return nil, fmt.Errorf("gmm: component %d collapsed during EM for k=%d: %w",
					c+1, k, internalerr.ErrDegenerateCluster)
			}
			weights[c] = nk / float64(n)
			for j := 0; j < d; j++ {
				mu := 0.0
				for i, row := range rows {
					mu += resp[i][c] * row[j]
				}
				mu /= nk
				means[c][j] = mu
				v := 0.0
				for i, row := range rows {
					v += resp[i][c] * (row[j] - mu) * (row[j] - mu)
				}
				vars[c][j] = math.Max(v/nk, varianceFloor)
			}
		}

		if math.Abs(ll-prevLL)/float64(n) < s.Tol {
			break
		}
		prevLL = ll
	}

	asg := make(Assignment, n)
	for i := range rows {
		bestC, bestR := 0, math.Inf(-1)
		for c := 0; c < k; c++ {
			if resp[i][c] > bestR {
				bestR = resp[i][c]
				bestC = c
			}
		}
		asg[i] = bestC + 1
	}
	if err := checkComplete(asg, k); err != nil {
		return nil, err
	}
	return asg, nil
}

// seedMeans picks initial component means k-means++ style: the first mean
// uniformly at random, each later mean with probability proportional to
// squared distance from the nearest already-chosen mean.
func seedMeans(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(rows)
	means := make([][]float64, 0, k)
	means = append(means, append([]float64(nil), rows[rng.Intn(n)]...))

	d2 := make([]float64, n)
	for len(means) < k {
		total := 0.0
		for i, row := range rows {
			best := math.Inf(1)
			for _, mu := range means {
				if d := euclidean(row, mu); d < best {
					best = d
				}
			}
			d2[i] = best * best
			total += d2[i]
		}
		var next int
		if total == 0 {
			next = rng.Intn(n)
		} else {
			u := rng.Float64() * total
			acc := 0.0
			next = n - 1
			for i, w := range d2 {
				acc += w
				if u < acc {
					next = i
					break
				}
			}
		}
		means = append(means, append([]float64(nil), rows[next]...))
	}
	return means
}

// components builds the per-component diagonal Gaussians.
func components(means, vars [][]float64) ([]*distmv.Normal, error) {
	d := len(means[0])
	comps := make([]*distmv.Normal, len(means))
	for c := range means {
		sigma := mat.NewSymDense(d, nil)
		for j := 0; j < d; j++ {
			sigma.SetSym(j, j, vars[c][j])
		}
		normal, ok := distmv.NewNormal(means[c], sigma, nil)
		if !ok {
			return nil, fmt.Errorf("gmm: non-positive-definite covariance for component %d: %w",
				c+1, internalerr.ErrDegenerateCluster)
		}
		comps[c] = normal
	}
	return comps, nil
}

func logSumExp(xs []float64) float64 {
	max := floats.Max(xs)
	if math.IsInf(max, -1) {
		return max
	}
	sum := 0.0
	for _, x := range xs {
		sum += math.Exp(x - max)
	}
	return max + math.Log(sum)
}
