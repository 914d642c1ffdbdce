package index

import (
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// SkippedRecord is a corpus record the builder refused.
type SkippedRecord struct {
	DocID DocID
	Err   error
}

// BuildReport summarises one full build.
type BuildReport struct {
	Indexed int
	Tokens  int
	Skipped []SkippedRecord
}

// Builder accumulates documents into an Index. A Builder is single use:
// each document may be indexed at most once.
type Builder struct {
	tokenizer *tokenizer.Tokenizer
	index     *Index
	directory *Directory
	seen      map[DocID]struct{}
	tokens    int
	logger    *slog.Logger
}

func NewBuilder(tok *tokenizer.Tokenizer) *Builder {
	if tok == nil {
		tok = tokenizer.New(nil)
	}
	return &Builder{
		tokenizer: tok,
		index:     New(),
		directory: NewDirectory(),
		seen:      make(map[DocID]struct{}),
		logger:    slog.Default().With("component", "index-builder"),
	}
}

// IndexDocument tokenises doc.Content, counts each term and appends one
// posting per distinct term. Invalid or already indexed documents are
// refused before the index is touched.
func (b *Builder) IndexDocument(doc Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	if _, dup := b.seen[doc.ID]; dup {
		return apperrors.Newf(apperrors.ErrDuplicateDocument, "document %d", doc.ID)
	}
	terms := b.tokenizer.Tokenize(doc.Content)
	counts := make(map[string]int, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	for term, count := range counts {
		// cannot fail: doc.ID is new and count >= 1
		if err := b.index.AppendPosting(term, Posting{DocID: doc.ID, Frequency: count}); err != nil {
			return err
		}
	}
	b.seen[doc.ID] = struct{}{}
	b.directory.Put(doc.ID, doc.URL)
	b.tokens += len(terms)
	b.logger.Debug("document indexed",
		"doc_id", doc.ID,
		"token_count", len(terms),
		"distinct_terms", len(counts),
	)
	return nil
}

// Build indexes docs in order. Refused records are logged and listed in the
// report; the directory only holds documents that were indexed.
func (b *Builder) Build(docs []Document) (*Index, *Directory, BuildReport) {
	var report BuildReport
	for _, doc := range docs {
		if err := b.IndexDocument(doc); err != nil {
			b.logger.Warn("skipping corpus record", "doc_id", doc.ID, "error", err)
			report.Skipped = append(report.Skipped, SkippedRecord{DocID: doc.ID, Err: err})
			continue
		}
		report.Indexed++
	}
	report.Tokens = b.tokens
	b.logger.Info("index built",
		"documents", report.Indexed,
		"skipped", len(report.Skipped),
		"terms", b.index.Len(),
		"tokens", report.Tokens,
	)
	return b.index, b.directory, report
}

// Index returns the index accumulated so far.
func (b *Builder) Index() *Index {
	return b.index
}

// Directory returns the directory accumulated so far.
func (b *Builder) Directory() *Directory {
	return b.directory
}
