// Package corpus defines the input contract with the external preprocessor:
// an ordered sequence of cleaned, tokenized documents plus a parallel
// sequence of binary labels used only for reporting.
package corpus

import (
	"fmt"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Document is one preprocessed document. Tokens arrive already lowercased
// and stripped of punctuation, numbers and stopwords; the core never
// re-tokenizes. Label is 0 or 1 and is descriptive only.
type Document struct {
	Tokens []string
	Label  int
}

// Corpus is an immutable, index-addressed collection of documents.
// Document i keeps index i for the lifetime of the corpus so that matrix
// rows, assignments and labels stay aligned.
type Corpus struct {
	docs []Document
}

// New validates the preprocessor contract and builds a corpus. Token and
// label sequences must have equal length, labels must be binary, and no
// document may be empty (empty documents are filtered upstream).
func New(tokens [][]string, labels []int) (*Corpus, error) {
	if len(tokens) == 0 {
		return nil, fmt.Errorf("corpus: no documents: %w", internalerr.ErrInvalidInput)
	}
	if len(labels) != 0 && len(labels) != len(tokens) {
		return nil, fmt.Errorf("corpus: %d documents but %d labels: %w",
			len(tokens), len(labels), internalerr.ErrInvalidInput)
	}

	docs := make([]Document, len(tokens))
	for i, toks := range tokens {
		if len(toks) == 0 {
			return nil, fmt.Errorf("corpus: document %d is empty: %w", i, internalerr.ErrInvalidInput)
		}
		d := Document{Tokens: append([]string(nil), toks...)}
		if len(labels) != 0 {
			if labels[i] != 0 && labels[i] != 1 {
				return nil, fmt.Errorf("corpus: document %d has non-binary label %d: %w",
					i, labels[i], internalerr.ErrInvalidInput)
			}
			d.Label = labels[i]
		}
		docs[i] = d
	}
	return &Corpus{docs: docs}, nil
}

// Len returns the number of documents.
func (c *Corpus) Len() int { return len(c.docs) }

// Doc returns the document at index i.
func (c *Corpus) Doc(i int) Document { return c.docs[i] }

// Labels returns the label vector, aligned with document indices.
func (c *Corpus) Labels() []int {
	out := make([]int, len(c.docs))
	for i, d := range c.docs {
		out[i] = d.Label
	}
	return out
}
