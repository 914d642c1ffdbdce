// Package app wires configuration into the long-lived components shared by
// the command-line tools.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/normalizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher/resolver"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/redis"
)

type App struct {
	Config      *config.Config
	Metrics     *metrics.Metrics
	Registry    *prometheus.Registry
	Diagnostics *normalizer.DiagnosticCollector
	Tokenizer   *tokenizer.Tokenizer
	Store       storage.Store
	Engine      *indexer.Engine
	Searcher    *searcher.Service

	closers []func() error
}

// New opens storage and, when enabled, the Redis query cache and the Kafka
// analytics collector. The collector publishes until ctx is cancelled or
// Close is called.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	strategy, err := resolver.StrategyFor(cfg.Search.Strategy)
	if err != nil {
		return nil, err
	}
	a := &App{
		Config:      cfg,
		Registry:    prometheus.NewRegistry(),
		Diagnostics: &normalizer.DiagnosticCollector{},
	}
	a.Metrics = metrics.New(a.Registry)
	a.Tokenizer = tokenizer.New(normalizer.New(a.Diagnostics))

	store, err := storage.Open(cfg, a.Metrics)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	var tracker analytics.Tracker = analytics.NopTracker{}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.AnalyticsEvents)
		collector := analytics.NewCollector(producer, 0, cfg.Kafka.BatchSize, cfg.Kafka.FlushInterval)
		collector.Start(ctx)
		tracker = collector
		// the collector drains into the producer, so it closes first
		a.closers = append(a.closers, producer.Close, func() error { collector.Close(); return nil })
	}

	var queryCache *cache.QueryCache
	if cfg.Redis.CacheEnabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		queryCache = cache.New(client, cfg.Redis)
		a.closers = append(a.closers, client.Close)
	}

	engineOpts := indexer.Options{
		PruneCount: cfg.Indexer.FrequentTermPruneCount,
		Rebuild:    cfg.Indexer.Rebuild,
		Backend:    cfg.Storage.Backend,
		Tokenizer:  a.Tokenizer,
		Metrics:    a.Metrics,
		Tracker:    tracker,
	}
	if queryCache != nil {
		engineOpts.Cache = queryCache
	}
	a.Engine = indexer.NewEngine(store, engineOpts)
	a.Searcher = searcher.NewService(a.Engine, searcher.Options{
		Strategy:  strategy,
		Tokenizer: a.Tokenizer,
		Cache:     queryCache,
		Metrics:   a.Metrics,
		Tracker:   tracker,
	})
	slog.Info("components ready",
		"backend", cfg.Storage.Backend,
		"strategy", strategy.Name(),
		"cache", queryCache != nil,
		"analytics", cfg.Kafka.Enabled,
	)
	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
