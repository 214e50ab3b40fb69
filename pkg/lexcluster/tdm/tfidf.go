package tdm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// TFIDF converts a raw count matrix to TF-IDF weights of identical shape:
// weight(t,d) = count(t,d) * ln(N / df(t)). Terms with df = 0 cannot occur
// because Build excludes them; a term present in every document gets
// idf = 0 and hence zero weight everywhere.
func TFIDF(counts *Matrix) *Matrix {
	n, v := counts.data.Dims()
	out := mat.NewDense(n, v, nil)
	for j := 0; j < v; j++ {
		idf := math.Log(float64(n) / float64(counts.docFreq[j]))
		for i := 0; i < n; i++ {
			out.Set(i, j, counts.data.At(i, j)*idf)
		}
	}
	return &Matrix{terms: counts.terms, index: counts.index, data: out, docFreq: counts.docFreq}
}

// PruneSparse drops columns whose document frequency falls below
// minDocFraction of the corpus, the same threshold Build applies. The
// TF-IDF matrix is re-pruned this way before centroid clustering because
// weighting can zero out ubiquitous terms without removing their columns.
func PruneSparse(m *Matrix, minDocFraction float64) (*Matrix, error) {
	n, v := m.data.Dims()
	minDF := int(math.Ceil(minDocFraction * float64(n)))
	if minDF < 1 {
		minDF = 1
	}

	keep := make([]int, 0, v)
	for j := 0; j < v; j++ {
		df := 0
		for i := 0; i < n; i++ {
			if m.data.At(i, j) != 0 {
				df++
			}
		}
		if df >= minDF {
			keep = append(keep, j)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("tdm: sparsity pruning at %.3f removed every term: %w",
			minDocFraction, internalerr.ErrEmptyVocabulary)
	}
	return m.selectColumns(keep), nil
}
