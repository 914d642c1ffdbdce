// Package searcher serves queries against the engine's current build: an
// optional Redis cache in front of the resolver, with metrics and analytics
// recorded for every query.
package searcher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/searcher/resolver"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
)

// Source provides the build to search. *indexer.Engine implements it.
type Source interface {
	Index() *index.Index
	Directory() *index.Directory
}

type Options struct {
	Strategy  resolver.Strategy
	Tokenizer *tokenizer.Tokenizer
	Cache     *cache.QueryCache
	Metrics   *metrics.Metrics
	Tracker   analytics.Tracker
}

type Service struct {
	source Source
	opts   Options
}

func NewService(source Source, opts Options) *Service {
	if opts.Strategy == nil {
		opts.Strategy = resolver.UnionCount{}
	}
	if opts.Tokenizer == nil {
		opts.Tokenizer = tokenizer.New(nil)
	}
	if opts.Tracker == nil {
		opts.Tracker = analytics.NopTracker{}
	}
	return &Service{source: source, opts: opts}
}

// Search resolves query. An invalid query is counted, tracked and returned
// as an error wrapping ErrInvalidQuery.
func (s *Service) Search(ctx context.Context, query string) (*resolver.Response, error) {
	start := time.Now()
	queryID := uuid.NewString()
	ctx = logger.WithQueryID(ctx, queryID)
	log := logger.FromContext(ctx).With("component", "searcher")

	idx, dir := s.source.Index(), s.source.Directory()
	if idx == nil || dir == nil {
		s.count("unavailable")
		return nil, apperrors.New(apperrors.ErrIndexUnavailable, "no index loaded")
	}
	r := resolver.New(idx, dir, s.opts.Tokenizer, s.opts.Strategy)
	strategy := s.opts.Strategy.Name()
	terms := r.Terms(query)

	var (
		resp     *resolver.Response
		cacheHit bool
		err      error
	)
	if s.opts.Cache != nil && len(terms) > 0 {
		resp, cacheHit, err = s.opts.Cache.GetOrCompute(ctx, strategy, terms, func() (*resolver.Response, error) {
			return r.Resolve(query)
		})
		s.countCache(cacheHit)
	} else {
		resp, err = r.Resolve(query)
	}
	latency := time.Since(start)

	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidQuery) {
			s.count("invalid")
			s.opts.Tracker.Track(analytics.SearchEvent{
				Type:      analytics.EventInvalidQuery,
				QueryID:   queryID,
				Query:     query,
				Strategy:  strategy,
				LatencyMs: latency.Milliseconds(),
				Timestamp: time.Now().UTC(),
			})
			log.Debug("invalid query", "query", query)
		} else {
			s.count("error")
			log.Error("search failed", "query", query, "error", err)
		}
		return nil, err
	}

	// a cached or shared response may come from an equivalent query with
	// other wording
	out := *resp
	out.Query = query
	out.Terms = terms
	resp = &out

	eventType := analytics.EventSearch
	outcome := "ok"
	if len(resp.Results) == 0 {
		eventType = analytics.EventZeroResult
		outcome = "zero_result"
	}
	s.count(outcome)
	if m := s.opts.Metrics; m != nil {
		m.SearchLatency.WithLabelValues(strategy).Observe(latency.Seconds())
		m.SearchResultsCount.Observe(float64(len(resp.Results)))
	}
	topMatch := 0
	if len(resp.Results) > 0 {
		topMatch = resp.Results[0].MatchCount
	}
	s.opts.Tracker.Track(analytics.SearchEvent{
		Type:          eventType,
		QueryID:       queryID,
		Query:         query,
		Terms:         terms,
		Strategy:      strategy,
		Results:       len(resp.Results),
		TopMatchCount: topMatch,
		LatencyMs:     latency.Milliseconds(),
		CacheHit:      cacheHit,
		Timestamp:     time.Now().UTC(),
	})
	log.Info("search completed",
		"terms", len(terms),
		"results", len(resp.Results),
		"cache_hit", cacheHit,
		"latency", latency,
	)
	return resp, nil
}

func (s *Service) count(outcome string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	}
}

func (s *Service) countCache(hit bool) {
	if s.opts.Metrics == nil {
		return
	}
	if hit {
		s.opts.Metrics.CacheHitsTotal.Inc()
	} else {
		s.opts.Metrics.CacheMissesTotal.Inc()
	}
}
