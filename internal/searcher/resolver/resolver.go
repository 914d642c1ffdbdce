// Package resolver answers free-text queries against a built index. A query
// is tokenised like a document; documents are ranked by how many distinct
// query terms they contain.
package resolver

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

type Result struct {
	DocID      index.DocID `json:"doc_id"`
	URL        string      `json:"url"`
	MatchCount int         `json:"match_count"`
}

// Response is the answer to one query. Ranked is false for single-term
// queries, where every result matches exactly once and order is by id.
type Response struct {
	Query    string   `json:"query"`
	Terms    []string `json:"terms"`
	Strategy string   `json:"strategy"`
	Ranked   bool     `json:"ranked"`
	Results  []Result `json:"results"`
}

type Resolver struct {
	tokenizer *tokenizer.Tokenizer
	index     *index.Index
	directory *index.Directory
	strategy  Strategy
	logger    *slog.Logger
}

// New returns a Resolver over idx and dir. A nil tokenizer uses the default
// one; a nil strategy uses UnionCount.
func New(idx *index.Index, dir *index.Directory, tok *tokenizer.Tokenizer, strategy Strategy) *Resolver {
	if tok == nil {
		tok = tokenizer.New(nil)
	}
	if strategy == nil {
		strategy = UnionCount{}
	}
	return &Resolver{
		tokenizer: tok,
		index:     idx,
		directory: dir,
		strategy:  strategy,
		logger:    slog.Default().With("component", "resolver", "strategy", strategy.Name()),
	}
}

func (r *Resolver) Strategy() Strategy {
	return r.strategy
}

// Terms returns the distinct normalised terms of query in first-occurrence
// order.
func (r *Resolver) Terms(query string) []string {
	return distinct(r.tokenizer.Tokenize(query))
}

// Resolve returns ErrInvalidQuery when the query has no indexable term.
// Terms missing from the index match nothing; they are not an error.
func (r *Resolver) Resolve(query string) (*Response, error) {
	terms := r.Terms(query)
	if len(terms) == 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidQuery, "%q has no searchable terms", query)
	}
	resp := &Response{
		Query:    query,
		Terms:    terms,
		Strategy: r.strategy.Name(),
		Results:  []Result{},
	}

	if len(terms) == 1 {
		if list, ok := r.index.Lookup(terms[0]); ok {
			for _, id := range list.DocIDs() {
				resp.Results = append(resp.Results, r.result(Match{DocID: id, MatchCount: 1}))
			}
		}
		return resp, nil
	}

	lists := make([][]index.DocID, len(terms))
	for i, term := range terms {
		if list, ok := r.index.Lookup(term); ok {
			lists[i] = list.DocIDs()
		}
	}
	resp.Ranked = true
	for _, m := range r.strategy.Merge(lists) {
		resp.Results = append(resp.Results, r.result(m))
	}
	r.logger.Debug("query resolved", "terms", len(terms), "results", len(resp.Results))
	return resp, nil
}

func (r *Resolver) result(m Match) Result {
	url, ok := r.directory.URL(m.DocID)
	if !ok {
		r.logger.Warn("document missing from directory", "doc_id", m.DocID)
	}
	return Result{DocID: m.DocID, URL: url, MatchCount: m.MatchCount}
}

// Tiers splits results at every change of MatchCount. Each tier keeps the
// order it had in results.
func Tiers(results []Result) [][]Result {
	var tiers [][]Result
	for i := 0; i < len(results); {
		j := i + 1
		for j < len(results) && results[j].MatchCount == results[i].MatchCount {
			j++
		}
		tiers = append(tiers, results[i:j])
		i = j
	}
	return tiers
}

// distinct drops repeated terms and keeps first-occurrence order.
func distinct(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
