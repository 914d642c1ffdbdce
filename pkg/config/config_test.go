package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Indexer.FrequentTermPruneCount)
	assert.Equal(t, BackendSegment, cfg.Storage.Backend)
	assert.Equal(t, StrategyUnion, cfg.Search.Strategy)
	assert.Equal(t, FormatXLSX, cfg.Indexer.CorpusFormat)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
indexer:
  corpusPath: news.csv
  corpusFormat: csv
  frequentTermPruneCount: 12
storage:
  backend: bolt
  dataDir: /tmp/idx
search:
  strategy: kway
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "news.csv", cfg.Indexer.CorpusPath)
	assert.Equal(t, FormatCSV, cfg.Indexer.CorpusFormat)
	assert.Equal(t, 12, cfg.Indexer.FrequentTermPruneCount)
	assert.Equal(t, BackendBolt, cfg.Storage.Backend)
	assert.Equal(t, StrategyKWay, cfg.Search.Strategy)
	// untouched sections keep their defaults
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("CS_PRUNE_COUNT", "3")
	t.Setenv("CS_STORAGE_BACKEND", "badger")
	t.Setenv("CS_REBUILD", "true")
	t.Setenv("CS_KAFKA_BROKERS", "a:9092,b:9092")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Indexer.FrequentTermPruneCount)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.True(t, cfg.Indexer.Rebuild)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		target error
	}{
		{"negative k", "indexer:\n  frequentTermPruneCount: -1\n", apperrors.ErrInvalidInput},
		{"bad format", "indexer:\n  corpusFormat: parquet\n", apperrors.ErrInvalidInput},
		{"bad backend", "storage:\n  backend: s3\n", apperrors.ErrUnsupportedBackend},
		{"bad strategy", "search:\n  strategy: bm25\n", apperrors.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
