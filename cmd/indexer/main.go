// Command indexer builds the search index from the configured corpus,
// prunes the most frequent terms and persists the result.
//
// Usage:
//
//	go run ./cmd/indexer [-config configs/development.yaml] [-corpus data/corpus.xlsx]
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/app"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/logger"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	corpusPath := flag.String("corpus", "", "corpus file, overrides indexer.corpusPath")
	corpusFormat := flag.String("format", "", "corpus format (xlsx, csv, tsv, postgres), overrides indexer.corpusFormat")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitUsage)
	}
	if *corpusPath != "" {
		cfg.Indexer.CorpusPath = *corpusPath
	}
	if *corpusFormat != "" {
		cfg.Indexer.CorpusFormat = *corpusFormat
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(apperrors.ExitUsage)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		slog.Error("indexing failed", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, out io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	loader, err := corpus.New(cfg)
	if err != nil {
		return err
	}
	slog.Info("starting index build",
		"corpus", cfg.Indexer.CorpusPath,
		"format", cfg.Indexer.CorpusFormat,
		"backend", cfg.Storage.Backend,
		"prune_count", cfg.Indexer.FrequentTermPruneCount,
	)
	report, err := a.Engine.BuildFrom(ctx, loader)
	if err != nil {
		return err
	}
	printReport(out, report, len(a.Diagnostics.Diagnostics()))
	return nil
}

func printReport(w io.Writer, r *indexer.Report, diagnostics int) {
	fmt.Fprintf(w, "documents indexed: %d\n", r.Indexed)
	fmt.Fprintf(w, "tokens:            %d\n", r.Tokens)
	fmt.Fprintf(w, "terms kept:        %d\n", r.Terms)
	fmt.Fprintf(w, "build time:        %s\n", r.Duration)
	if diagnostics > 0 {
		fmt.Fprintf(w, "unexpected runes:  %d\n", diagnostics)
	}
	if len(r.Rejected) > 0 {
		fmt.Fprintf(w, "rejected rows (%d):\n", len(r.Rejected))
		for _, rej := range r.Rejected {
			fmt.Fprintf(w, "  row %d: %v\n", rej.Row, rej.Err)
		}
	}
	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "skipped documents (%d):\n", len(r.Skipped))
		for _, s := range r.Skipped {
			fmt.Fprintf(w, "  doc %d: %v\n", s.DocID, s.Err)
		}
	}
	if len(r.Pruned) > 0 {
		fmt.Fprintf(w, "pruned terms (%d):\n", len(r.Pruned))
		for _, p := range r.Pruned {
			fmt.Fprintf(w, "  %s\t%d\n", p.Term, p.DocumentFrequency)
		}
	}
}
