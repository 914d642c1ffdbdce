// Package index holds the inverted index: a typed mapping from normalised
// term to its postings list, the document directory, and the builder that
// fills both from a corpus.
package index

import (
	"fmt"
	"sort"
)

// TermEntry is one term with its postings, the unit persisted by the
// storage backends.
type TermEntry struct {
	Term     string    `json:"t"`
	Postings []Posting `json:"p"`
}

type Index struct {
	terms map[string]*PostingsList
}

func New() *Index {
	return &Index{terms: make(map[string]*PostingsList)}
}

// FromEntries rebuilds an index from persisted entries.
func FromEntries(entries []TermEntry) (*Index, error) {
	idx := New()
	for _, e := range entries {
		if _, exists := idx.terms[e.Term]; exists {
			return nil, fmt.Errorf("duplicate term %q", e.Term)
		}
		list, err := NewPostingsList(e.Postings...)
		if err != nil {
			return nil, fmt.Errorf("term %q: %w", e.Term, err)
		}
		idx.terms[e.Term] = list
	}
	return idx, nil
}

// AppendPosting adds p to the postings list of term, creating the list on
// first use.
func (ix *Index) AppendPosting(term string, p Posting) error {
	list, exists := ix.terms[term]
	if !exists {
		list = &PostingsList{}
	}
	if err := list.Append(p); err != nil {
		return err
	}
	ix.terms[term] = list
	return nil
}

func (ix *Index) Lookup(term string) (*PostingsList, bool) {
	list, ok := ix.terms[term]
	return list, ok
}

// Delete removes term and reports whether it was present.
func (ix *Index) Delete(term string) bool {
	if _, ok := ix.terms[term]; !ok {
		return false
	}
	delete(ix.terms, term)
	return true
}

func (ix *Index) Len() int {
	return len(ix.terms)
}

// Terms returns every term in ascending order.
func (ix *Index) Terms() []string {
	terms := make([]string, 0, len(ix.terms))
	for term := range ix.terms {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Snapshot returns the index as entries sorted by term.
func (ix *Index) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(ix.terms))
	for _, term := range ix.Terms() {
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: ix.terms[term].Postings(),
		})
	}
	return entries
}

// Equal reports whether both indexes hold the same terms with identical
// postings lists.
func (ix *Index) Equal(other *Index) bool {
	if len(ix.terms) != len(other.terms) {
		return false
	}
	for term, list := range ix.terms {
		o, ok := other.terms[term]
		if !ok || !list.Equal(o) {
			return false
		}
	}
	return true
}
