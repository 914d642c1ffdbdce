package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/postgres"
)

// PostgresLoader reads the id, content and url columns of
// Config.CorpusTable in id order. There is no header row to skip.
type PostgresLoader struct {
	Config config.PostgresConfig
}

func (l *PostgresLoader) Load(ctx context.Context) (*Batch, error) {
	client, err := postgres.New(l.Config)
	if err != nil {
		return nil, unavailable(l.Config.CorpusTable, err)
	}
	defer client.Close()

	query := fmt.Sprintf(
		"SELECT id::text, coalesce(content, ''), coalesce(url, '') FROM %s ORDER BY id",
		pq.QuoteIdentifier(l.Config.CorpusTable),
	)
	batch := &Batch{}
	err = client.InTx(ctx, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead}, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer rows.Close()
		for row := 1; rows.Next(); row++ {
			cells := make([]string, 3)
			if err := rows.Scan(&cells[0], &cells[1], &cells[2]); err != nil {
				return err
			}
			batch.add(row, cells)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, unavailable(l.Config.CorpusTable, err)
	}
	slog.Default().With("component", "corpus-postgres").Info("corpus loaded",
		"table", l.Config.CorpusTable,
		"documents", len(batch.Documents),
		"rejected", len(batch.Rejected),
	)
	return batch, nil
}
