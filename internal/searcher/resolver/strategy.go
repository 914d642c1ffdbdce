package resolver

import (
	"container/heap"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// Match is a document and the number of input lists that contain it.
type Match struct {
	DocID      index.DocID
	MatchCount int
}

// Strategy merges one ascending id list per query term. Lists may be empty
// and contain no duplicates.
type Strategy interface {
	Name() string
	Merge(lists [][]index.DocID) []Match
}

// StrategyFor maps a search.strategy config value onto a Strategy.
func StrategyFor(name string) (Strategy, error) {
	switch name {
	case config.StrategyUnion, "":
		return UnionCount{}, nil
	case config.StrategyKWay:
		return KWayMerge{}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown merge strategy %q", name)
	}
}

// UnionCount counts every id in a map, then orders by descending count and
// ascending id. The order is total, so output is fully deterministic.
type UnionCount struct{}

func (UnionCount) Name() string { return config.StrategyUnion }

func (UnionCount) Merge(lists [][]index.DocID) []Match {
	counts := make(map[index.DocID]int)
	for _, list := range lists {
		for _, id := range list {
			counts[id]++
		}
	}
	matches := make([]Match, 0, len(counts))
	for id, n := range counts {
		matches = append(matches, Match{DocID: id, MatchCount: n})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].MatchCount != matches[j].MatchCount {
			return matches[i].MatchCount > matches[j].MatchCount
		}
		return matches[i].DocID < matches[j].DocID
	})
	return matches
}

// KWayMerge walks all lists at once, always advancing the cursors that sit
// on the smallest id, in O(n log k) for n postings over k lists. Its final
// sort is by count only; equal counts are left in merge order, which is
// ascending id, but callers should not depend on that.
type KWayMerge struct{}

func (KWayMerge) Name() string { return config.StrategyKWay }

func (KWayMerge) Merge(lists [][]index.DocID) []Match {
	h := make(cursorHeap, 0, len(lists))
	for _, list := range lists {
		if len(list) > 0 {
			h = append(h, cursor{list: list})
		}
	}
	heap.Init(&h)

	var matches []Match
	for h.Len() > 0 {
		id := h[0].current()
		count := 0
		for h.Len() > 0 && h[0].current() == id {
			count++
			h[0].pos++
			if h[0].pos == len(h[0].list) {
				heap.Pop(&h)
			} else {
				heap.Fix(&h, 0)
			}
		}
		matches = append(matches, Match{DocID: id, MatchCount: count})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchCount > matches[j].MatchCount
	})
	return matches
}

type cursor struct {
	list []index.DocID
	pos  int
}

func (c cursor) current() index.DocID { return c.list[c.pos] }

type cursorHeap []cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool { return h[i].current() < h[j].current() }

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x interface{}) {
	*h = append(*h, x.(cursor))
}

func (h *cursorHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
