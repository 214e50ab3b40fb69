// Package tdm builds term-document matrices from a preprocessed corpus:
// vocabulary filtering, raw counts, TF-IDF weighting and column
// standardization. A Matrix fixes its vocabulary order at build time so
// column indices stay stable for every consumer.
package tdm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/lexcluster/pkg/lexcluster/corpus"
	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Options controls vocabulary filtering.
type Options struct {
	// MinTermLength drops terms shorter than this many characters.
	MinTermLength int
	// MinDocFraction drops terms whose document frequency is below this
	// fraction of the corpus size.
	MinDocFraction float64
}

// DefaultOptions returns the reference filter settings: terms of at least
// three characters appearing in at least 5% of documents.
func DefaultOptions() Options {
	return Options{MinTermLength: 3, MinDocFraction: 0.05}
}

// Matrix is an N×V term-document matrix. Rows are documents in corpus
// order, columns are vocabulary terms in a fixed lexicographic order.
// Cells hold raw counts, TF-IDF weights or standardized values depending
// on how the matrix was produced. A Matrix is immutable once built;
// transforms return new matrices.
type Matrix struct {
	terms []string
	index map[string]int
	data  *mat.Dense
	// docFreq[j] = number of documents with a nonzero count for term j,
	// carried from the count matrix so weighting never re-scans.
	docFreq []int
}

// Build constructs the raw count matrix and its vocabulary.
func Build(c *corpus.Corpus, opts Options) (*Matrix, error) {
	n := c.Len()

	df := make(map[string]int)
	for i := 0; i < n; i++ {
		seen := make(map[string]struct{})
		for _, tok := range c.Doc(i).Tokens {
			if len(tok) < opts.MinTermLength {
				continue
			}
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	minDF := int(math.Ceil(opts.MinDocFraction * float64(n)))
	if minDF < 1 {
		minDF = 1
	}
	terms := make([]string, 0, len(df))
	for term, freq := range df {
		if freq >= minDF {
			terms = append(terms, term)
		}
	}
	if len(terms) == 0 {
		return nil, fmt.Errorf("tdm: no terms survive min length %d and min doc fraction %.3f: %w",
			opts.MinTermLength, opts.MinDocFraction, internalerr.ErrEmptyVocabulary)
	}
	sort.Strings(terms)

	index := make(map[string]int, len(terms))
	for j, term := range terms {
		index[term] = j
	}

	data := mat.NewDense(n, len(terms), nil)
	for i := 0; i < n; i++ {
		for _, tok := range c.Doc(i).Tokens {
			if j, ok := index[tok]; ok {
				data.Set(i, j, data.At(i, j)+1)
			}
		}
	}

	docFreq := make([]int, len(terms))
	for _, term := range terms {
		docFreq[index[term]] = df[term]
	}

	return &Matrix{terms: terms, index: index, data: data, docFreq: docFreq}, nil
}

// Dims returns (documents, terms).
func (m *Matrix) Dims() (int, int) { return m.data.Dims() }

// Terms returns the vocabulary in column order. The slice is shared; do
// not modify.
func (m *Matrix) Terms() []string { return m.terms }

// Index returns the column index of a term.
func (m *Matrix) Index(term string) (int, bool) {
	j, ok := m.index[term]
	return j, ok
}

// DocFreq returns the document frequency of column j, measured on the
// originating count matrix.
func (m *Matrix) DocFreq(j int) int { return m.docFreq[j] }

// Dense returns the underlying matrix. Consumers treat it as read-only.
func (m *Matrix) Dense() *mat.Dense { return m.data }

// Standardize returns a copy with each column scaled to zero mean and unit
// variance, the form the distance-based strategies (medoid, hierarchical)
// consume. Zero-variance columns become all zeros.
func (m *Matrix) Standardize() *Matrix {
	n, v := m.data.Dims()
	out := mat.NewDense(n, v, nil)
	col := make([]float64, n)
	for j := 0; j < v; j++ {
		mat.Col(col, j, m.data)
		mean, std := stat.MeanStdDev(col, nil)
		for i := 0; i < n; i++ {
			if std == 0 || math.IsNaN(std) {
				out.Set(i, j, 0)
				continue
			}
			out.Set(i, j, (col[i]-mean)/std)
		}
	}
	return &Matrix{terms: m.terms, index: m.index, data: out, docFreq: m.docFreq}
}

// selectColumns returns a new matrix keeping only the given columns, in
// order. Used by sparsity re-pruning.
func (m *Matrix) selectColumns(cols []int) *Matrix {
	n, _ := m.data.Dims()
	terms := make([]string, len(cols))
	index := make(map[string]int, len(cols))
	docFreq := make([]int, len(cols))
	data := mat.NewDense(n, len(cols), nil)
	for jj, j := range cols {
		terms[jj] = m.terms[j]
		index[m.terms[j]] = jj
		docFreq[jj] = m.docFreq[j]
		for i := 0; i < n; i++ {
			data.Set(i, jj, m.data.At(i, j))
		}
	}
	return &Matrix{terms: terms, index: index, data: data, docFreq: docFreq}
}
