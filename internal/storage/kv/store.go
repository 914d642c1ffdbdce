package kv

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

const (
	nsTerms     = "terms"
	nsDirectory = "directory"
	nsMeta      = "meta"
)

var (
	keyIndexMeta     = []byte("index")
	keyDirectoryMeta = []byte("directory")
)

// meta is written after the data it describes. A load that finds no meta
// record, or counts that disagree with it, treats the artifact as missing.
type meta struct {
	Count int64 `json:"count"`
}

// Store keeps the index and the directory in an embedded key-value database:
// one key per term and one key per document.
type Store struct {
	db     DB
	logger *slog.Logger
}

// NewStore opens the database for engine at path.
func NewStore(engine, path string) (*Store, error) {
	db, err := OpenDB(engine, path)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "kv-store", "engine", engine, "path", path),
	}, nil
}

func (s *Store) SaveIndex(ctx context.Context, idx *index.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := idx.Snapshot()
	keys := make([][]byte, 0, len(entries))
	values := make([][]byte, 0, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", e.Term, err)
		}
		keys = append(keys, []byte(e.Term))
		values = append(values, data)
	}
	if err := s.db.Replace(nsTerms, keys, values); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	if err := s.putMeta(keyIndexMeta, int64(len(entries))); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	s.logger.Info("index saved", "terms", len(entries))
	return nil
}

func (s *Store) LoadIndex(ctx context.Context) (*index.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := s.getMeta(keyIndexMeta)
	if err != nil {
		return nil, err
	}
	var entries []index.TermEntry
	n, err := s.db.Iterate(nsTerms, func(k, v []byte) error {
		var postings []index.Posting
		if err := json.Unmarshal(v, &postings); err != nil {
			return fmt.Errorf("term %q: %w", k, err)
		}
		entries = append(entries, index.TermEntry{Term: string(k), Postings: postings})
		return nil
	})
	if err != nil && !(errors.Is(err, ErrNotFound) && want == 0) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	if n != want {
		return nil, fmt.Errorf("%w: %d terms stored, expected %d", apperrors.ErrIndexUnavailable, n, want)
	}
	idx, err := index.FromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	s.logger.Info("index loaded", "terms", idx.Len())
	return idx, nil
}

func (s *Store) SaveDirectory(ctx context.Context, dir *index.Directory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries := dir.Entries()
	keys := make([][]byte, 0, len(entries))
	values := make([][]byte, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, docKey(e.ID))
		values = append(values, []byte(e.URL))
	}
	if err := s.db.Replace(nsDirectory, keys, values); err != nil {
		return fmt.Errorf("saving directory: %w", err)
	}
	if err := s.putMeta(keyDirectoryMeta, int64(len(entries))); err != nil {
		return fmt.Errorf("saving directory: %w", err)
	}
	s.logger.Info("directory saved", "docs", len(entries))
	return nil
}

func (s *Store) LoadDirectory(ctx context.Context) (*index.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	want, err := s.getMeta(keyDirectoryMeta)
	if err != nil {
		return nil, err
	}
	var entries []index.DirectoryEntry
	n, err := s.db.Iterate(nsDirectory, func(k, v []byte) error {
		if len(k) != 8 {
			return fmt.Errorf("malformed document key %x", k)
		}
		entries = append(entries, index.DirectoryEntry{
			ID:  index.DocID(binary.BigEndian.Uint64(k)),
			URL: string(v),
		})
		return nil
	})
	if err != nil && !(errors.Is(err, ErrNotFound) && want == 0) {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	if n != want {
		return nil, fmt.Errorf("%w: %d documents stored, expected %d", apperrors.ErrIndexUnavailable, n, want)
	}
	dir, err := index.DirectoryFromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	return dir, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) putMeta(key []byte, count int64) error {
	data, err := json.Marshal(meta{Count: count})
	if err != nil {
		return err
	}
	return s.db.Put(nsMeta, key, data)
}

func (s *Store) getMeta(key []byte) (int64, error) {
	data, err := s.db.Get(nsMeta, key)
	if err != nil {
		return 0, fmt.Errorf("%w: no %s record in %s: %w", apperrors.ErrIndexUnavailable, key, s.db.Path(), err)
	}
	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return 0, fmt.Errorf("%w: %s record: %w", apperrors.ErrIndexUnavailable, key, err)
	}
	return m.Count, nil
}

// docKey encodes id big-endian so keys iterate in id order.
func docKey(id index.DocID) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}
