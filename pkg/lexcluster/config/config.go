// Package config holds the run configuration surface of the evaluation
// pipeline and its YAML loading.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/lexcluster/pkg/lexcluster/internalerr"
)

// Config is the full configuration surface. Zero values are filled from
// Default by Load; constructed configs should start from Default too.
type Config struct {
	// ClusterCounts are the k values evaluated for every method.
	ClusterCounts []int `yaml:"cluster_counts"`
	// MinTermLength drops shorter terms from the vocabulary.
	MinTermLength int `yaml:"min_term_length"`
	// MinDocFraction drops terms appearing in fewer documents than this
	// fraction of the corpus.
	MinDocFraction float64 `yaml:"min_doc_fraction"`
	// Seed makes every stochastic strategy reproducible.
	Seed int64 `yaml:"seed"`
	// KMeansRestarts is the nstart of the centroid strategy.
	KMeansRestarts int `yaml:"kmeans_restarts"`
	// EmbeddingDims is the dimensionality of the mixture embedding.
	EmbeddingDims int `yaml:"embedding_dims"`
	// EmbeddingNeighbors is the k of the embedding's neighbor graph.
	EmbeddingNeighbors int `yaml:"embedding_neighbors"`
	// LDAIterations is the number of Gibbs sweeps for the topic strategy.
	LDAIterations int `yaml:"lda_iterations"`
	// TopicTopTerms is how many terms per topic go into the report.
	TopicTopTerms int `yaml:"topic_top_terms"`
	// Workers bounds concurrent (method, k) cells. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`
	// HeavySlots bounds simultaneously running memory-heavy fits
	// (mixture EM, agglomerative distance-matrix construction).
	HeavySlots int64 `yaml:"heavy_slots"`
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		ClusterCounts:      []int{5, 10},
		MinTermLength:      3,
		MinDocFraction:     0.05,
		Seed:               42,
		KMeansRestarts:     25,
		EmbeddingDims:      2,
		EmbeddingNeighbors: 10,
		LDAIterations:      200,
		TopicTopTerms:      10,
		Workers:            0,
		HeavySlots:         1,
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run.
func (c Config) Validate() error {
	if len(c.ClusterCounts) == 0 {
		return fmt.Errorf("config: no cluster counts: %w", internalerr.ErrInvalidConfig)
	}
	for _, k := range c.ClusterCounts {
		if k < 1 {
			return fmt.Errorf("config: cluster count %d: %w", k, internalerr.ErrInvalidConfig)
		}
	}
	if c.MinTermLength < 1 {
		return fmt.Errorf("config: min term length %d: %w", c.MinTermLength, internalerr.ErrInvalidConfig)
	}
	if c.MinDocFraction < 0 || c.MinDocFraction >= 1 {
		return fmt.Errorf("config: min doc fraction %.3f: %w", c.MinDocFraction, internalerr.ErrInvalidConfig)
	}
	if c.KMeansRestarts < 1 {
		return fmt.Errorf("config: kmeans restarts %d: %w", c.KMeansRestarts, internalerr.ErrInvalidConfig)
	}
	if c.EmbeddingDims < 1 {
		return fmt.Errorf("config: embedding dims %d: %w", c.EmbeddingDims, internalerr.ErrInvalidConfig)
	}
	if c.LDAIterations < 1 {
		return fmt.Errorf("config: lda iterations %d: %w", c.LDAIterations, internalerr.ErrInvalidConfig)
	}
	if c.TopicTopTerms < 1 {
		return fmt.Errorf("config: topic top terms %d: %w", c.TopicTopTerms, internalerr.ErrInvalidConfig)
	}
	if c.Workers < 0 {
		return fmt.Errorf("config: workers %d: %w", c.Workers, internalerr.ErrInvalidConfig)
	}
	if c.HeavySlots < 1 {
		return fmt.Errorf("config: heavy slots %d: %w", c.HeavySlots, internalerr.ErrInvalidConfig)
	}
	return nil
}
