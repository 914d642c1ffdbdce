package corpus

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"os"
)

// DelimitedLoader reads CSV (Comma ',') or TSV (Comma '\t') files.
type DelimitedLoader struct {
	Path  string
	Comma rune
}

func (l *DelimitedLoader) Load(ctx context.Context) (*Batch, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, unavailable(l.Path, err)
	}
	defer f.Close()
	return l.read(ctx, f)
}

func (l *DelimitedLoader) read(ctx context.Context, src io.Reader) (*Batch, error) {
	r := csv.NewReader(src)
	r.Comma = l.Comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = l.Comma == '\t'

	batch := &Batch{}
	for row := 1; ; row++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cells, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			batch.Rejected = append(batch.Rejected, Rejected{Row: row, Err: err})
			continue
		}
		if err != nil {
			return nil, unavailable(l.Path, err)
		}
		if row == 1 {
			continue
		}
		batch.add(row, cells)
	}
	slog.Default().With("component", "corpus-delimited").Info("corpus loaded",
		"path", l.Path,
		"documents", len(batch.Documents),
		"rejected", len(batch.Rejected),
	)
	return batch, nil
}
