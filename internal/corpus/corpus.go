// Package corpus reads documents from tabular sources. Every source has a
// header row that is skipped, then one document per row with the columns
// id, content, url in that order.
package corpus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// Rejected is a row the loader could not turn into a document. Row is
// 1-based and counts the header.
type Rejected struct {
	Row int
	Err error
}

// Batch is the outcome of one load, in source order.
type Batch struct {
	Documents []index.Document
	Rejected  []Rejected
}

type Loader interface {
	Load(ctx context.Context) (*Batch, error)
}

// New returns the loader selected by cfg.Indexer.CorpusFormat.
func New(cfg *config.Config) (Loader, error) {
	switch cfg.Indexer.CorpusFormat {
	case config.FormatXLSX:
		return &XLSXLoader{Path: cfg.Indexer.CorpusPath, Sheet: cfg.Indexer.Sheet}, nil
	case config.FormatCSV:
		return &DelimitedLoader{Path: cfg.Indexer.CorpusPath, Comma: ','}, nil
	case config.FormatTSV:
		return &DelimitedLoader{Path: cfg.Indexer.CorpusPath, Comma: '\t'}, nil
	case config.FormatPostgres:
		return &PostgresLoader{Config: cfg.Postgres}, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown corpus format %q", cfg.Indexer.CorpusFormat)
	}
}

func (b *Batch) add(row int, cells []string) {
	if blank(cells) {
		return
	}
	doc, err := parseRecord(cells)
	if err != nil {
		b.Rejected = append(b.Rejected, Rejected{Row: row, Err: err})
		return
	}
	b.Documents = append(b.Documents, doc)
}

// parseRecord maps the first three cells onto a document. Content and URL
// are passed through untouched; the builder validates them.
func parseRecord(cells []string) (index.Document, error) {
	if len(cells) < 3 {
		return index.Document{}, apperrors.Newf(apperrors.ErrMalformedRecord, "%d columns, want 3", len(cells))
	}
	id, err := parseID(cells[0])
	if err != nil {
		return index.Document{}, err
	}
	return index.Document{ID: id, Content: cells[1], URL: strings.TrimSpace(cells[2])}, nil
}

// parseID accepts integral ids, including spreadsheet renderings such as
// "12.0". Zero parses; the builder refuses it.
func parseID(cell string) (index.DocID, error) {
	s := strings.TrimSpace(cell)
	if id, err := strconv.ParseUint(s, 10, 64); err == nil {
		return index.DocID(id), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != float64(uint64(f)) {
		return 0, apperrors.Newf(apperrors.ErrMalformedRecord, "document id %q", cell)
	}
	return index.DocID(f), nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func unavailable(path string, err error) error {
	return fmt.Errorf("%w: %s: %w", apperrors.ErrCorpusUnavailable, path, err)
}
