// Package analytics publishes search and index-build events to Kafka and
// aggregates them on the consuming side.
package analytics

import "time"

type EventType string

const (
	EventSearch       EventType = "search"
	EventZeroResult   EventType = "zero_result"
	EventInvalidQuery EventType = "invalid_query"
	EventIndexBuilt   EventType = "index_built"
)

// SearchEvent describes one resolved query. Zero-result and invalid
// queries use the same shape with a different Type.
type SearchEvent struct {
	Type          EventType `json:"type"`
	QueryID       string    `json:"query_id"`
	Query         string    `json:"query"`
	Terms         []string  `json:"terms"`
	Strategy      string    `json:"strategy"`
	Results       int       `json:"results"`
	TopMatchCount int       `json:"top_match_count"`
	LatencyMs     int64     `json:"latency_ms"`
	CacheHit      bool      `json:"cache_hit"`
	Timestamp     time.Time `json:"timestamp"`
}

type IndexEvent struct {
	Type       EventType `json:"type"`
	Backend    string    `json:"backend"`
	Documents  int       `json:"documents"`
	Skipped    int       `json:"skipped"`
	Tokens     int       `json:"tokens"`
	Terms      int       `json:"terms"`
	Pruned     int       `json:"pruned"`
	DurationMs int64     `json:"duration_ms"`
	Timestamp  time.Time `json:"timestamp"`
}

// Key is the partition key for an event: searches spread by query id,
// builds share one key so they stay ordered.
func Key(event any) string {
	switch e := event.(type) {
	case SearchEvent:
		return e.QueryID
	case *SearchEvent:
		return e.QueryID
	default:
		return string(EventIndexBuilt)
	}
}

// TypeOf returns the EventType carried by event, or "" for other values.
func TypeOf(event any) EventType {
	switch e := event.(type) {
	case SearchEvent:
		return e.Type
	case *SearchEvent:
		return e.Type
	case IndexEvent:
		return e.Type
	case *IndexEvent:
		return e.Type
	default:
		return ""
	}
}
