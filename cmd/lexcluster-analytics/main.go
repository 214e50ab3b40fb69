// lexcluster-analytics runs the clustering evaluation pipeline over a
// preprocessed corpus file and prints the comparison table.
//
// The input format is one document per line: the binary label, a tab, then
// the space-separated cleaned tokens. Tokenization and normalization
// happen upstream; this tool never touches raw text.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/cognicore/lexcluster/pkg/lexcluster"
	"github.com/cognicore/lexcluster/pkg/lexcluster/config"
	"github.com/cognicore/lexcluster/pkg/lexcluster/corpus"
	"github.com/cognicore/lexcluster/pkg/lexcluster/store/sqlite"
)

func main() {
	var (
		input     = flag.String("input", "", "Path to preprocessed corpus file (required)")
		configCfg = flag.String("config", "", "Optional YAML config file")
		dbPath    = flag.String("db", "", "Optional SQLite path for results (default in-memory)")
		verbose   = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *input == "" {
		logger.Error("--input required")
		os.Exit(1)
	}

	cfg := config.Default()
	if *configCfg != "" {
		loaded, err := config.Load(*configCfg)
		if err != nil {
			logger.Error("load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx := context.Background()

	st, err := sqlite.Open(ctx, *dbPath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}

	tokens, labels, err := loadCorpusFile(*input)
	if err != nil {
		logger.Error("load corpus", "error", err)
		os.Exit(1)
	}
	c, err := corpus.New(tokens, labels)
	if err != nil {
		logger.Error("build corpus", "error", err)
		os.Exit(1)
	}

	engine, err := lexcluster.New(lexcluster.Options{
		Config: &cfg,
		Store:  st,
		Logger: logger,
	})
	if err != nil {
		logger.Error("create engine", "error", err)
		os.Exit(1)
	}
	defer engine.Close()

	result, err := engine.Run(ctx, c)
	if err != nil {
		logger.Error("run", "error", err)
		os.Exit(1)
	}

	fmt.Print(result.Comparison.Table())
	for _, row := range result.Comparison.Rows {
		if row.TopTerms == nil {
			continue
		}
		fmt.Printf("\ntop terms (%s, k=%d, coherence %.4f):\n", row.Method, row.K, row.Coherence)
		for topic := 1; topic <= len(row.TopTerms); topic++ {
			fmt.Printf("  topic %d: %s\n", topic, strings.Join(row.TopTerms[topic], " "))
		}
	}
}

// loadCorpusFile parses "label<TAB>tok tok tok" lines.
func loadCorpusFile(path string) ([][]string, []int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	var tokens [][]string
	var labels []int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		label, rest, found := strings.Cut(line, "\t")
		if !found {
			return nil, nil, fmt.Errorf("line %d: expected label<TAB>tokens", lineNo)
		}
		lv, err := strconv.Atoi(strings.TrimSpace(label))
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: bad label %q: %w", lineNo, label, err)
		}
		labels = append(labels, lv)
		tokens = append(tokens, strings.Fields(rest))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return tokens, labels, nil
}
