package storage

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index/indextest"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
)

func TestOpen_EveryBackendRoundTrips(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	backends := []string{config.BackendSegment, config.BackendBolt, config.BackendBadger, config.BackendRedis}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			cfg := &config.Config{
				Storage: config.StorageConfig{Backend: backend, DataDir: t.TempDir()},
				Redis:   config.RedisConfig{Addr: mr.Addr(), KeyPrefix: backend + ":"},
			}
			m := metrics.New(nil)
			store, err := Open(cfg, m)
			require.NoError(t, err)
			defer store.Close()

			_, err = store.LoadIndex(ctx)
			assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)

			idx, dir := indextest.Build(t)
			require.NoError(t, store.SaveIndex(ctx, idx))
			require.NoError(t, store.SaveDirectory(ctx, dir))

			loadedIdx, err := store.LoadIndex(ctx)
			require.NoError(t, err)
			assert.True(t, idx.Equal(loadedIdx))
			loadedDir, err := store.LoadDirectory(ctx)
			require.NoError(t, err)
			assert.True(t, dir.Equal(loadedDir))

			assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOpsTotal.WithLabelValues(backend, "load_index", "error")))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOpsTotal.WithLabelValues(backend, "load_index", "ok")))
			assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageOpsTotal.WithLabelValues(backend, "save_directory", "ok")))
		})
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(&config.Config{Storage: config.StorageConfig{Backend: "s3"}}, nil)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedBackend)
}

func TestOpen_NilMetrics(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Backend: config.BackendSegment, DataDir: t.TempDir()}}
	store, err := Open(cfg, nil)
	require.NoError(t, err)
	_, err = store.LoadDirectory(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
	assert.NoError(t, store.Close())
}
