// Package pruner removes the most frequent terms from a built index. Terms
// that occur in almost every document behave as stop words: they match
// everything and only inflate the index.
package pruner

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// Removed is a pruned term and the document frequency it had.
type Removed struct {
	Term              string
	DocumentFrequency int
}

// Prune deletes the k terms with the highest document frequency from idx
// and returns them in removal order. Ties are broken by ascending term so
// the result does not depend on map iteration. A k larger than the number
// of terms empties the index.
func Prune(idx *index.Index, k int) ([]Removed, error) {
	if k < 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "prune count must be >= 0, got %d", k)
	}
	ranked := Rank(idx)
	if k > len(ranked) {
		k = len(ranked)
	}
	removed := ranked[:k]
	for _, r := range removed {
		idx.Delete(r.Term)
	}
	return removed, nil
}

// Rank lists every term of idx by descending document frequency, then
// ascending term.
func Rank(idx *index.Index) []Removed {
	terms := idx.Terms()
	ranked := make([]Removed, 0, len(terms))
	for _, term := range terms {
		list, _ := idx.Lookup(term)
		ranked = append(ranked, Removed{Term: term, DocumentFrequency: list.DocumentFrequency()})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DocumentFrequency > ranked[j].DocumentFrequency
	})
	return ranked
}
