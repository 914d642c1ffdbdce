package kv

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index/indextest"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

var engines = []string{Bolt, Badger}

func openStore(t *testing.T, engine string) *Store {
	t.Helper()
	store, err := NewStore(engine, filepath.Join(t.TempDir(), "index."+engine))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDB_GetPut(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			db, err := OpenDB(engine, filepath.Join(t.TempDir(), "nested", "db"))
			require.NoError(t, err)
			defer db.Close()

			_, err = db.Get("ns", []byte("k"))
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, db.Put("ns", []byte("k"), []byte("v1")))
			v, err := db.Get("ns", []byte("k"))
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), v)

			_, err = db.Get("other", []byte("k"))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestDB_ReplaceDropsOldKeys(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			db, err := OpenDB(engine, filepath.Join(t.TempDir(), "db"))
			require.NoError(t, err)
			defer db.Close()

			require.NoError(t, db.Replace("ns", [][]byte{[]byte("a"), []byte("b")}, [][]byte{[]byte("1"), []byte("2")}))
			require.NoError(t, db.Replace("ns", [][]byte{[]byte("c")}, [][]byte{[]byte("3")}))
			require.NoError(t, db.Put("neighbour", []byte("x"), []byte("y")))

			got := map[string]string{}
			n, err := db.Iterate("ns", func(k, v []byte) error {
				got[string(k)] = string(v)
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)
			assert.Equal(t, map[string]string{"c": "3"}, got)
		})
	}
}

func TestDB_ReplaceRejectsMismatchedLengths(t *testing.T) {
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			db, err := OpenDB(engine, filepath.Join(t.TempDir(), "db"))
			require.NoError(t, err)
			defer db.Close()

			assert.Error(t, db.Replace("ns", [][]byte{[]byte("a")}, nil))
		})
	}
}

func TestOpenDB_UnknownEngine(t *testing.T) {
	_, err := OpenDB("leveldb", filepath.Join(t.TempDir(), "db"))
	assert.Error(t, err)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			idx, dir := indextest.Build(t)
			store := openStore(t, engine)

			require.NoError(t, store.SaveIndex(ctx, idx))
			require.NoError(t, store.SaveDirectory(ctx, dir))

			loadedIdx, err := store.LoadIndex(ctx)
			require.NoError(t, err)
			assert.True(t, idx.Equal(loadedIdx))

			loadedDir, err := store.LoadDirectory(ctx)
			require.NoError(t, err)
			assert.True(t, dir.Equal(loadedDir))
			assert.Equal(t, dir.IDs(), loadedDir.IDs())
		})
	}
}

func TestStore_SaveReplacesPreviousIndex(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			store := openStore(t, engine)
			first, _ := indextest.FromPostings(t, map[string][]index.DocID{"a": {1}, "b": {1}})
			second, _ := indextest.FromPostings(t, map[string][]index.DocID{"c": {2, 3}})

			require.NoError(t, store.SaveIndex(ctx, first))
			require.NoError(t, store.SaveIndex(ctx, second))

			loaded, err := store.LoadIndex(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"c"}, loaded.Terms())
		})
	}
}

func TestStore_EmptyIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			store := openStore(t, engine)
			require.NoError(t, store.SaveIndex(ctx, index.New()))

			loaded, err := store.LoadIndex(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, loaded.Len())
		})
	}
}

func TestStore_NothingSavedIsUnavailable(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			store := openStore(t, engine)

			_, err := store.LoadIndex(ctx)
			assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)

			_, err = store.LoadDirectory(ctx)
			assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
		})
	}
}

func TestStore_CountMismatchIsUnavailable(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			idx, _ := indextest.Build(t)
			store := openStore(t, engine)
			require.NoError(t, store.SaveIndex(ctx, idx))

			// simulate an interrupted rewrite: data replaced, meta stale
			require.NoError(t, store.db.Replace(nsTerms, [][]byte{[]byte("x")}, [][]byte{[]byte(`[{"d":1,"f":1}]`)}))

			_, err := store.LoadIndex(ctx)
			assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
		})
	}
}

func TestStore_CorruptPostingsAreUnavailable(t *testing.T) {
	ctx := context.Background()
	for _, engine := range engines {
		t.Run(engine, func(t *testing.T) {
			store := openStore(t, engine)
			require.NoError(t, store.db.Replace(nsTerms, [][]byte{[]byte("x")}, [][]byte{[]byte("not json")}))
			require.NoError(t, store.putMeta(keyIndexMeta, 1))

			_, err := store.LoadIndex(ctx)
			assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
		})
	}
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := openStore(t, Bolt)

	assert.ErrorIs(t, store.SaveIndex(ctx, index.New()), context.Canceled)
	_, err := store.LoadDirectory(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
