package internalerr

import "errors"

// Sentinel errors for common cases
var (
	// ErrEmptyVocabulary is reported when term filtering removes every term.
	// It aborts the weighting scheme that produced it, not the whole run.
	ErrEmptyVocabulary = errors.New("empty vocabulary after filtering")

	// ErrDegenerateCluster is reported when a requested cluster count is
	// incompatible with the corpus (k > N), or a strategy produced fewer
	// non-empty clusters than requested, or a partition is all singletons.
	ErrDegenerateCluster = errors.New("degenerate cluster configuration")

	// ErrInsufficientClusters is reported when validation is asked to score
	// a partition with fewer than two clusters.
	ErrInsufficientClusters = errors.New("fewer than two clusters")

	ErrInvalidInput  = errors.New("invalid input")
	ErrInvalidConfig = errors.New("invalid configuration")
)
