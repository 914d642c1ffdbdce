package segment

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index/indextest"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	idx, dir := indextest.Build(t)
	store := NewStore(t.TempDir())

	require.NoError(t, store.SaveIndex(ctx, idx))
	require.NoError(t, store.SaveDirectory(ctx, dir))

	loadedIdx, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.True(t, idx.Equal(loadedIdx))
	assert.Equal(t, idx.Snapshot(), loadedIdx.Snapshot())

	loadedDir, err := store.LoadDirectory(ctx)
	require.NoError(t, err)
	assert.True(t, dir.Equal(loadedDir))
}

func TestStore_SaveReplacesPreviousIndex(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())
	first, _ := indextest.FromPostings(t, map[string][]index.DocID{"a": {1}})
	second, _ := indextest.FromPostings(t, map[string][]index.DocID{"b": {2, 3}})

	require.NoError(t, store.SaveIndex(ctx, first))
	require.NoError(t, store.SaveIndex(ctx, second))

	loaded, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, loaded.Terms())
}

func TestStore_EmptyIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	require.NoError(t, store.SaveIndex(ctx, index.New()))
	loaded, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.Len())
}

func TestStore_MissingFilesAreUnavailable(t *testing.T) {
	ctx := context.Background()
	store := NewStore(t.TempDir())

	_, err := store.LoadIndex(ctx)
	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)

	_, err = store.LoadDirectory(ctx)
	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
}

func TestStore_CorruptedFileIsUnavailable(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	idx, _ := indextest.Build(t)
	store := NewStore(dataDir)
	require.NoError(t, store.SaveIndex(ctx, idx))
	path := filepath.Join(dataDir, IndexFile)
	saved, err := os.ReadFile(path)
	require.NoError(t, err)

	allOnes := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	tests := []struct {
		name    string
		corrupt func(data []byte)
		want    string
	}{
		{"postings byte", func(data []byte) { data[HeaderSize+3] ^= 0xff }, "checksum"},
		{"dictionary offset", func(data []byte) { copy(data[16:24], allOnes) }, "invalid segment file"},
		{"dictionary size", func(data []byte) { copy(data[24:32], allOnes) }, "invalid segment file"},
		{"postings offset", func(data []byte) { copy(data[32:40], allOnes) }, "invalid segment file"},
		{"postings size", func(data []byte) { copy(data[40:48], allOnes) }, "invalid segment file"},
		{"postings past dictionary", func(data []byte) {
			binary.LittleEndian.PutUint64(data[40:48], binary.LittleEndian.Uint64(data[40:48])+1)
		}, "overlaps the dictionary"},
		{"dictionary past footer", func(data []byte) {
			binary.LittleEndian.PutUint64(data[24:32], binary.LittleEndian.Uint64(data[24:32])+1)
		}, "exceeds file size"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := append([]byte(nil), saved...)
			tt.corrupt(data)
			require.NoError(t, os.WriteFile(path, data, 0o644))

			var loadErr error
			assert.NotPanics(t, func() { _, loadErr = store.LoadIndex(ctx) })
			assert.ErrorIs(t, loadErr, apperrors.ErrIndexUnavailable)
			assert.ErrorContains(t, loadErr, tt.want)
		})
	}
}

func TestStore_WrongFileKind(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	_, dir := indextest.Build(t)
	store := NewStore(dataDir)
	require.NoError(t, store.SaveDirectory(ctx, dir))

	require.NoError(t, os.Rename(filepath.Join(dataDir, DirectoryFile), filepath.Join(dataDir, IndexFile)))
	_, err := store.LoadIndex(ctx)
	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
	assert.Contains(t, err.Error(), "bad magic")
}

func TestStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := NewStore(t.TempDir())

	assert.ErrorIs(t, store.SaveIndex(ctx, index.New()), context.Canceled)
}

func TestReader_Entries(t *testing.T) {
	dataDir := t.TempDir()
	idx, _ := indextest.Build(t)
	require.NoError(t, NewWriter(dataDir).WriteIndex(idx.Snapshot()))

	r, err := OpenReader(filepath.Join(dataDir, IndexFile), IndexMagic)
	require.NoError(t, err)

	assert.Equal(t, idx.Len(), r.Terms())
	assert.EqualValues(t, 5, r.DocCount())

	entries, err := r.Entries()
	require.NoError(t, err)
	assert.Equal(t, idx.Snapshot(), entries)
	for _, e := range entries {
		if e.Term == "بورس" {
			assert.Equal(t, []index.Posting{{DocID: 3, Frequency: 1}, {DocID: 4, Frequency: 1}}, e.Postings)
		}
	}

	_, err = r.DirectoryEntries()
	assert.ErrorContains(t, err, "not a directory file")
}

func TestOpenReader_TooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), IndexFile)
	require.NoError(t, os.WriteFile(path, []byte("SPDX"), 0o644))

	_, err := OpenReader(path, IndexMagic)
	assert.Error(t, err)
}

func BenchmarkStore_SaveLoad(b *testing.B) {
	ctx := context.Background()
	idx := index.New()
	for doc := 1; doc <= 2000; doc++ {
		for term := doc % 7; term < 300; term += 7 {
			p := index.Posting{DocID: index.DocID(doc), Frequency: 1 + doc%3}
			if err := idx.AppendPosting(fmt.Sprintf("t%03d", term), p); err != nil {
				b.Fatal(err)
			}
		}
	}
	store := NewStore(b.TempDir())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.SaveIndex(ctx, idx); err != nil {
			b.Fatal(err)
		}
		if _, err := store.LoadIndex(ctx); err != nil {
			b.Fatal(err)
		}
	}
}
