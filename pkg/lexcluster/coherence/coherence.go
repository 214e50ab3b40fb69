// Package coherence scores the interpretability of a topic's top terms by
// averaging normalized pointwise mutual information over term pairs,
// using document-level co-occurrence from the raw count matrix. Reporting
// only; validation never consumes coherence.
package coherence

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Calculator computes NPMI from document co-occurrence counts.
type Calculator struct {
	epsilon float64 // smoothing constant
}

// NewCalculator creates an NPMI calculator with the given epsilon.
func NewCalculator(epsilon float64) *Calculator {
	if epsilon <= 0 {
		epsilon = 1.0
	}
	return &Calculator{epsilon: epsilon}
}

// NPMI is PMI(a,b) / -log(P(a,b)), in [-1, 1].
//
//	PMI(a,b) = log((N_ab + ε) * N / ((N_a + ε)(N_b + ε)))
//
// with N_a, N_b the document frequencies, N_ab the co-occurrence document
// count and N the corpus size.
func (c *Calculator) NPMI(nAB, nA, nB, n int) float64 {
	if n == 0 || nAB == 0 {
		return 0
	}
	numerator := (float64(nAB) + c.epsilon) * float64(n)
	denominator := (float64(nA) + c.epsilon) * (float64(nB) + c.epsilon)
	pmi := math.Log(numerator / denominator)

	pAB := (float64(nAB) + c.epsilon) / float64(n)
	logPAB := math.Log(pAB)
	if logPAB == 0 {
		return 0
	}
	return pmi / -logPAB
}

// TopicCoherence averages pairwise NPMI over the given vocabulary columns
// of the raw count matrix. Term presence is binarized per document. A
// single-term topic has coherence 0.
func (c *Calculator) TopicCoherence(counts *mat.Dense, terms []int) float64 {
	if len(terms) < 2 {
		return 0
	}
	n, _ := counts.Dims()

	df := make([]int, len(terms))
	for ti, j := range terms {
		for i := 0; i < n; i++ {
			if counts.At(i, j) > 0 {
				df[ti]++
			}
		}
	}

	total, pairs := 0.0, 0
	for a := 0; a < len(terms); a++ {
		for b := a + 1; b < len(terms); b++ {
			co := 0
			for i := 0; i < n; i++ {
				if counts.At(i, terms[a]) > 0 && counts.At(i, terms[b]) > 0 {
					co++
				}
			}
			total += c.NPMI(co, df[a], df[b], n)
			pairs++
		}
	}
	return total / float64(pairs)
}
