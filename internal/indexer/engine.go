// Package indexer runs a full build: load the corpus, index it, prune the
// most frequent terms and persist the result. It also reloads a persisted
// build for the searcher.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/pruner"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
)

// Invalidator drops derived state that a new build makes stale.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Options struct {
	PruneCount int
	Rebuild    bool
	Backend    string
	Tokenizer  *tokenizer.Tokenizer
	Metrics    *metrics.Metrics
	Tracker    analytics.Tracker
	Cache      Invalidator
}

// Report describes one build.
type Report struct {
	index.BuildReport
	Rejected []corpus.Rejected
	Pruned   []pruner.Removed
	Terms    int
	Duration time.Duration
}

type Engine struct {
	store  storage.Store
	opts   Options
	mu     sync.RWMutex
	index  *index.Index
	dir    *index.Directory
	logger *slog.Logger
}

func NewEngine(store storage.Store, opts Options) *Engine {
	if opts.Tracker == nil {
		opts.Tracker = analytics.NopTracker{}
	}
	return &Engine{
		store:  store,
		opts:   opts,
		logger: slog.Default().With("component", "indexer"),
	}
}

// Build indexes docs, prunes the opts.PruneCount most frequent terms and
// persists the index and directory. The new build becomes visible through
// Index and Directory only once both artifacts are saved.
func (e *Engine) Build(ctx context.Context, docs []index.Document) (*Report, error) {
	start := time.Now()
	idx, dir, buildReport := index.NewBuilder(e.opts.Tokenizer).Build(docs)
	pruned, err := pruner.Prune(idx, e.opts.PruneCount)
	if err != nil {
		return nil, err
	}
	for _, r := range pruned {
		e.logger.Debug("frequent term pruned", "term", r.Term, "document_frequency", r.DocumentFrequency)
	}
	report := &Report{
		BuildReport: buildReport,
		Pruned:      pruned,
		Terms:       idx.Len(),
	}

	if err := e.store.SaveIndex(ctx, idx); err != nil {
		return nil, err
	}
	if err := e.store.SaveDirectory(ctx, dir); err != nil {
		return nil, err
	}
	report.Duration = time.Since(start)
	e.swap(idx, dir)

	if e.opts.Cache != nil {
		if err := e.opts.Cache.Invalidate(ctx); err != nil {
			e.logger.Error("query cache invalidation failed", "error", err)
		}
	}
	if m := e.opts.Metrics; m != nil {
		m.DocsIndexedTotal.Add(float64(report.Indexed))
		m.RecordsSkippedTotal.Add(float64(len(report.Skipped)))
		m.TermsPrunedTotal.Add(float64(len(pruned)))
		m.IndexTerms.Set(float64(report.Terms))
		m.IndexBuildDuration.Observe(report.Duration.Seconds())
	}
	e.opts.Tracker.Track(analytics.IndexEvent{
		Type:       analytics.EventIndexBuilt,
		Backend:    e.opts.Backend,
		Documents:  report.Indexed,
		Skipped:    len(report.Skipped),
		Tokens:     report.Tokens,
		Terms:      report.Terms,
		Pruned:     len(pruned),
		DurationMs: report.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	e.logger.Info("build persisted",
		"documents", report.Indexed,
		"skipped", len(report.Skipped),
		"pruned", len(pruned),
		"terms", report.Terms,
		"duration", report.Duration,
	)
	return report, nil
}

// Load replaces the in-memory build with the persisted one.
func (e *Engine) Load(ctx context.Context) error {
	idx, err := e.store.LoadIndex(ctx)
	if err != nil {
		return err
	}
	dir, err := e.store.LoadDirectory(ctx)
	if err != nil {
		return err
	}
	e.swap(idx, dir)
	if e.opts.Metrics != nil {
		e.opts.Metrics.IndexTerms.Set(float64(idx.Len()))
	}
	e.logger.Info("build loaded", "terms", idx.Len(), "documents", dir.Len())
	return nil
}

// LoadOrBuild loads the persisted build unless opts.Rebuild is set, and
// falls back to building from loader when nothing usable is persisted. The
// report is nil when the build was loaded.
func (e *Engine) LoadOrBuild(ctx context.Context, loader corpus.Loader) (*Report, error) {
	if !e.opts.Rebuild {
		err := e.Load(ctx)
		if err == nil {
			return nil, nil
		}
		if !errors.Is(err, apperrors.ErrIndexUnavailable) {
			return nil, err
		}
		e.logger.Warn("persisted index unavailable, rebuilding", "error", err)
	}
	return e.BuildFrom(ctx, loader)
}

// BuildFrom loads the corpus and builds it. Rows the loader rejected are
// carried into the report.
func (e *Engine) BuildFrom(ctx context.Context, loader corpus.Loader) (*Report, error) {
	batch, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading corpus: %w", err)
	}
	for _, r := range batch.Rejected {
		e.logger.Warn("corpus row rejected", "row", r.Row, "error", r.Err)
	}
	report, err := e.Build(ctx, batch.Documents)
	if err != nil {
		return nil, err
	}
	report.Rejected = batch.Rejected
	if e.opts.Metrics != nil {
		e.opts.Metrics.RecordsSkippedTotal.Add(float64(len(batch.Rejected)))
	}
	return report, nil
}

func (e *Engine) Index() *index.Index {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.index
}

func (e *Engine) Directory() *index.Directory {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.dir
}

func (e *Engine) swap(idx *index.Index, dir *index.Directory) {
	e.mu.Lock()
	e.index = idx
	e.dir = dir
	e.mu.Unlock()
}
