package corpus

import (
	"context"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// XLSXLoader reads one worksheet of an Excel workbook. An empty Sheet
// selects the active sheet.
type XLSXLoader struct {
	Path  string
	Sheet string
}

func (l *XLSXLoader) Load(ctx context.Context) (*Batch, error) {
	f, err := excelize.OpenFile(l.Path)
	if err != nil {
		return nil, unavailable(l.Path, err)
	}
	defer f.Close()

	sheet := l.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, unavailable(l.Path, err)
	}
	defer rows.Close()

	batch := &Batch{}
	row := 0
	for rows.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row++
		cells, err := rows.Columns()
		if err != nil {
			return nil, unavailable(l.Path, err)
		}
		if row == 1 {
			continue
		}
		batch.add(row, cells)
	}
	if err := rows.Error(); err != nil {
		return nil, unavailable(l.Path, err)
	}
	slog.Default().With("component", "corpus-xlsx").Info("corpus loaded",
		"path", l.Path,
		"sheet", sheet,
		"documents", len(batch.Documents),
		"rejected", len(batch.Rejected),
	)
	return batch, nil
}
