package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/kafka"
)

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	InvalidQueries    int64        `json:"invalid_queries"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
	IndexBuilds       int64        `json:"index_builds"`
	LastBuild         *IndexEvent  `json:"last_build,omitempty"`

	// TopMatchCounts counts answered searches by how many distinct query
	// terms their best document matched.
	TopMatchCounts map[int]int64 `json:"top_match_counts"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator folds consumed events into running totals. All methods are
// safe for concurrent use.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     int64
	invalidQueries    int64
	zeroResults       int64
	cacheHits         int64
	cacheMisses       int64
	indexBuilds       int64
	lastBuild         *IndexEvent
	latencies         []int64
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	topMatchCounts    map[int]int64
	startTime         time.Time
	logger            *slog.Logger
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		latencies:         make([]int64, 0, 10000),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		topMatchCounts:    make(map[int]int64),
		startTime:         time.Now(),
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

// Handler decodes one event per message, routed by its type header or, for
// messages without one, by the type field of the value. Undecodable
// messages are logged and acknowledged so they do not block the partition.
func (a *Aggregator) Handler() kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		eventType := EventType(msg.Type)
		if eventType == "" {
			var envelope struct {
				Type EventType `json:"type"`
			}
			if err := json.Unmarshal(msg.Value, &envelope); err != nil {
				a.logger.Error("failed to decode analytics event", "error", err)
				return nil
			}
			eventType = envelope.Type
		}
		switch eventType {
		case EventSearch, EventZeroResult, EventInvalidQuery:
			event, err := kafka.DecodeJSON[SearchEvent](msg.Value)
			if err != nil {
				a.logger.Error("failed to decode search event", "error", err)
				return nil
			}
			event.Type = eventType
			a.RecordSearch(event)
		case EventIndexBuilt:
			event, err := kafka.DecodeJSON[IndexEvent](msg.Value)
			if err != nil {
				a.logger.Error("failed to decode index event", "error", err)
				return nil
			}
			event.Type = eventType
			a.RecordIndexBuilt(event)
		default:
			a.logger.Warn("unknown analytics event type", "type", eventType)
		}
		return nil
	}
}

func (a *Aggregator) RecordSearch(event SearchEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if event.Type == EventInvalidQuery {
		a.invalidQueries++
		return
	}
	a.totalSearches++
	if event.CacheHit {
		a.cacheHits++
	} else {
		a.cacheMisses++
	}
	a.latencies = append(a.latencies, event.LatencyMs)
	a.queryCounts[event.Query]++
	if event.Results == 0 {
		a.zeroResults++
		a.zeroResultQueries[event.Query]++
		return
	}
	a.topMatchCounts[event.TopMatchCount]++
}

func (a *Aggregator) RecordIndexBuilt(event IndexEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.indexBuilds++
	a.lastBuild = &event
}

// DefaultTopN is how many queries Stats lists per ranking.
const DefaultTopN = 10

func (a *Aggregator) Stats() AggregatedStats {
	return a.Snapshot(DefaultTopN)
}

// Snapshot returns the current totals with the topN most frequent queries
// and zero-result queries.
func (a *Aggregator) Snapshot(topN int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches,
		InvalidQueries:  a.invalidQueries,
		ZeroResultCount: a.zeroResults,
		CacheHits:       a.cacheHits,
		CacheMisses:     a.cacheMisses,
		IndexBuilds:     a.indexBuilds,
	}
	if a.lastBuild != nil {
		last := *a.lastBuild
		stats.LastBuild = &last
	}
	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)
	}
	stats.TopQueries = topQueries(a.queryCounts, topN)
	stats.ZeroResultQueries = topQueries(a.zeroResultQueries, topN)
	stats.TopMatchCounts = make(map[int]int64, len(a.topMatchCounts))
	for n, count := range a.topMatchCounts {
		stats.TopMatchCounts[n] = count
	}
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}
	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// topQueries orders by count descending, then query ascending.
func topQueries(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Query < result[j].Query
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
