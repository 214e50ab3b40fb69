package cluster

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// LDA fits a Dirichlet-multinomial topic model with a collapsed Gibbs
// sampler over the raw count matrix and treats each document's
// maximum-posterior topic as its cluster. Ties in the posterior break
// toward the lowest topic id. After a fit, TopTerms exposes the
// highest-probability terms per topic for reporting; validation never
// consumes them.
type LDA struct {
	// Alpha is the document-topic Dirichlet prior.
	Alpha float64
	// Beta is the topic-term Dirichlet prior.
	Beta float64
	// Iterations is the number of Gibbs sweeps.
	Iterations int

	// Posterior state from the last Fit, used by TopTerms and Theta.
	phi   [][]float64 // k × V topic-term probabilities
	theta [][]float64 // N × k document-topic probabilities
}

// NewLDA returns a topic strategy with reference priors alpha=50/k
// deferred to fit time and beta=0.1.
func NewLDA(iterations int) *LDA {
	if iterations < 1 {
		iterations = 200
	}
	return &LDA{Beta: 0.1, Iterations: iterations}
}

func (s *LDA) Name() string { return "lda" }

// Fit implements Strategy. The input must be the raw count matrix, not
// TF-IDF; cells are treated as integer occurrence counts.
func (s *LDA) Fit(ctx context.Context, m *mat.Dense, k int, seed int64) (Assignment, error) {
	if err := checkK(m, k); err != nil {
		return nil, err
	}
	n, v := m.Dims()
	rng := rand.New(rand.NewSource(seed))

	alpha := s.Alpha
	if alpha == 0 {
		alpha = 50 / float64(k)
	}
	beta := s.Beta

	// Expand counts into word occurrences per document.
	words := make([][]int, n)
	for i := 0; i < n; i++ {
		for j := 0; j < v; j++ {
			c := int(m.At(i, j) + 0.5)
			for w := 0; w < c; w++ {
				words[i] = append(words[i], j)
			}
		}
	}

	// Sufficient statistics of the collapsed sampler.
	wt := make([][]int, v)  // term-topic counts
	for j := range wt {
		wt[j] = make([]int, k)
	}
	dt := make([][]int, n) // doc-topic counts
	for i := range dt {
		dt[i] = make([]int, k)
	}
	wts := make([]int, k) // total words per topic
	z := make([][]int, n) // current topic per word occurrence

	for i := range words {
		z[i] = make([]int, len(words[i]))
		for pos, w := range words[i] {
			t := rng.Intn(k)
			z[i][pos] = t
			wt[w][t]++
			dt[i][t]++
			wts[t]++
		}
	}

	cumsum := make([]float64, k)
	for iter := 0; iter < s.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range words {
			for pos, w := range words[i] {
				t := z[i][pos]
				wt[w][t]--
				dt[i][t]--
				wts[t]--

				for kk := 0; kk < k; kk++ {
					docPart := alpha + float64(dt[i][kk])
					wordPart := (beta + float64(wt[w][kk])) /
						(float64(wts[kk]) + beta*float64(v))
					if kk == 0 {
						cumsum[kk] = docPart * wordPart
					} else {
						cumsum[kk] = cumsum[kk-1] + docPart*wordPart
					}
				}
				u := rng.Float64() * cumsum[k-1]
				t = k - 1
				for kk := 0; kk < k; kk++ {
					if u < cumsum[kk] {
						t = kk
						break
					}
				}

				wt[w][t]++
				dt[i][t]++
				wts[t]++
				z[i][pos] = t
			}
		}
	}

	// Posterior point estimates (gotm-style phi and theta).
	s.phi = make([][]float64, k)
	for kk := 0; kk < k; kk++ {
		s.phi[kk] = make([]float64, v)
		for j := 0; j < v; j++ {
			s.phi[kk][j] = (float64(wt[j][kk]) + beta) /
				(float64(wts[kk]) + float64(v)*beta)
		}
	}
	s.theta = make([][]float64, n)
	asg := make(Assignment, n)
	for i := 0; i < n; i++ {
		s.theta[i] = make([]float64, k)
		total := float64(len(words[i])) + float64(k)*alpha
		bestT, bestP := 0, math.Inf(-1)
		for kk := 0; kk < k; kk++ {
			p := (float64(dt[i][kk]) + alpha) / total
			s.theta[i][kk] = p
			if p > bestP { // strict: ties keep the lowest topic id
				bestP = p
				bestT = kk
			}
		}
		asg[i] = bestT + 1
	}
	if err := checkComplete(asg, k); err != nil {
		return nil, err
	}
	return asg, nil
}

// TopTerms returns, per 1-based topic id, the n highest-probability terms
// under the fitted topic-term distribution. terms must be the vocabulary
// of the count matrix passed to Fit, in column order. Returns nil before
// a successful Fit.
func (s *LDA) TopTerms(terms []string, n int) map[int][]string {
	if s.phi == nil {
		return nil
	}
	out := make(map[int][]string, len(s.phi))
	for kk, probs := range s.phi {
		idx := make([]int, len(probs))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return probs[idx[a]] > probs[idx[b]]
		})
		if n > len(idx) {
			n = len(idx)
		}
		top := make([]string, n)
		for i := 0; i < n; i++ {
			top[i] = terms[idx[i]]
		}
		out[kk+1] = top
	}
	return out
}

// TopTermIndices is TopTerms over column indices, for consumers that
// score terms against the count matrix directly.
func (s *LDA) TopTermIndices(n int) map[int][]int {
	if s.phi == nil {
		return nil
	}
	out := make(map[int][]int, len(s.phi))
	for kk, probs := range s.phi {
		idx := make([]int, len(probs))
		for j := range idx {
			idx[j] = j
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return probs[idx[a]] > probs[idx[b]]
		})
		limit := n
		if limit > len(idx) {
			limit = len(idx)
		}
		out[kk+1] = idx[:limit]
	}
	return out
}
