// Command searcher loads the persisted index (building it first when none
// is usable) and answers queries read one per line from stdin. Results are
// printed grouped by how many query terms each document matched.
//
// Usage:
//
//	go run ./cmd/searcher [-config configs/development.yaml] [-strategy kway] [-rebuild]
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/app"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher/resolver"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
)

const maxQueryBytes = 1 << 20

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	strategy := flag.String("strategy", "", "merge strategy (union, kway), overrides search.strategy")
	rebuild := flag.Bool("rebuild", false, "rebuild the index from the corpus before serving")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(apperrors.ExitUsage)
	}
	if *strategy != "" {
		cfg.Search.Strategy = *strategy
	}
	if *rebuild {
		cfg.Indexer.Rebuild = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(apperrors.ExitUsage)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		slog.Error("searcher stopped with error", "error", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, a.Metrics)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	loader, err := corpus.New(cfg)
	if err != nil {
		return err
	}
	report, err := a.Engine.LoadOrBuild(ctx, loader)
	if err != nil {
		return err
	}
	if report != nil {
		slog.Info("index built for this session",
			"documents", report.Indexed,
			"skipped", len(report.Skipped)+len(report.Rejected),
			"terms", report.Terms,
		)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 4096), maxQueryBytes)
	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		query := scanner.Text()
		resp, err := a.Searcher.Search(ctx, query)
		switch {
		case errors.Is(err, apperrors.ErrInvalidQuery):
			fmt.Fprintf(out, "invalid query: %q has no searchable terms\n\n", query)
			continue
		case err != nil:
			return err
		}
		printResponse(out, resp, cfg.Search.MaxResults)
	}
	return scanner.Err()
}

// printResponse writes one block per match-count tier followed by a blank
// line. maxResults caps the printed rows; 0 prints everything.
func printResponse(w io.Writer, resp *resolver.Response, maxResults int) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "no documents match %q\n\n", resp.Query)
		return
	}
	printed := 0
	for _, tier := range resolver.Tiers(resp.Results) {
		if maxResults > 0 && printed >= maxResults {
			break
		}
		if resp.Ranked {
			fmt.Fprintf(w, "matched %d of %d terms:\n", tier[0].MatchCount, len(resp.Terms))
		}
		for _, r := range tier {
			if maxResults > 0 && printed >= maxResults {
				break
			}
			fmt.Fprintf(w, "  %d\t%s\n", r.DocID, r.URL)
			printed++
		}
	}
	if rest := len(resp.Results) - printed; rest > 0 {
		fmt.Fprintf(w, "  ... %d more\n", rest)
	}
	fmt.Fprintln(w)
}
