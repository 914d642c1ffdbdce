// Package redisstore keeps the index and directory in two Redis hashes so
// several searcher processes can share one build.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	pkgredis "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/redis"
)

const (
	fieldTerms     = "terms"
	fieldDirectory = "directory"
)

// Store layout, under the configured key prefix:
//
//	index:terms      hash  term -> JSON postings
//	index:directory  hash  doc id -> url
//	index:meta       hash  terms|directory -> entry count
//
// Each artifact and its count are replaced in one MULTI/EXEC.
type Store struct {
	client       *pkgredis.Client
	termsKey     string
	directoryKey string
	metaKey      string
	logger       *slog.Logger
}

func New(client *pkgredis.Client, keyPrefix string) *Store {
	return &Store{
		client:       client,
		termsKey:     keyPrefix + "index:terms",
		directoryKey: keyPrefix + "index:directory",
		metaKey:      keyPrefix + "index:meta",
		logger:       slog.Default().With("component", "redis-store"),
	}
}

func (s *Store) SaveIndex(ctx context.Context, idx *index.Index) error {
	entries := idx.Snapshot()
	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e.Postings)
		if err != nil {
			return fmt.Errorf("marshaling postings for term %q: %w", e.Term, err)
		}
		fields[e.Term] = string(data)
	}
	if err := s.client.ReplaceHash(ctx, s.termsKey, fields, s.metaKey, fieldTerms, len(entries)); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	s.logger.Info("index saved", "key", s.termsKey, "terms", len(entries))
	return nil
}

func (s *Store) LoadIndex(ctx context.Context) (*index.Index, error) {
	fields, err := s.loadHash(ctx, s.termsKey, fieldTerms)
	if err != nil {
		return nil, err
	}
	entries := make([]index.TermEntry, 0, len(fields))
	for term, data := range fields {
		var postings []index.Posting
		if err := json.Unmarshal([]byte(data), &postings); err != nil {
			return nil, fmt.Errorf("%w: term %q: %w", apperrors.ErrIndexUnavailable, term, err)
		}
		entries = append(entries, index.TermEntry{Term: term, Postings: postings})
	}
	idx, err := index.FromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	s.logger.Info("index loaded", "key", s.termsKey, "terms", idx.Len())
	return idx, nil
}

func (s *Store) SaveDirectory(ctx context.Context, dir *index.Directory) error {
	entries := dir.Entries()
	fields := make(map[string]string, len(entries))
	for _, e := range entries {
		fields[strconv.FormatUint(uint64(e.ID), 10)] = e.URL
	}
	if err := s.client.ReplaceHash(ctx, s.directoryKey, fields, s.metaKey, fieldDirectory, len(entries)); err != nil {
		return fmt.Errorf("saving directory: %w", err)
	}
	s.logger.Info("directory saved", "key", s.directoryKey, "docs", len(entries))
	return nil
}

func (s *Store) LoadDirectory(ctx context.Context) (*index.Directory, error) {
	fields, err := s.loadHash(ctx, s.directoryKey, fieldDirectory)
	if err != nil {
		return nil, err
	}
	entries := make([]index.DirectoryEntry, 0, len(fields))
	for field, url := range fields {
		id, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: document key %q: %w", apperrors.ErrIndexUnavailable, field, err)
		}
		entries = append(entries, index.DirectoryEntry{ID: index.DocID(id), URL: url})
	}
	dir, err := index.DirectoryFromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	return dir, nil
}

// Close is a no-op: the client is owned by the caller.
func (s *Store) Close() error {
	return nil
}

// loadHash reads key after checking its entry count in the meta hash.
func (s *Store) loadHash(ctx context.Context, key, metaField string) (map[string]string, error) {
	countStr, err := s.client.HGet(ctx, s.metaKey, metaField)
	if pkgredis.IsNilError(err) {
		return nil, fmt.Errorf("%w: %s has never been saved", apperrors.ErrIndexUnavailable, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	want, err := strconv.Atoi(countStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s count %q: %w", apperrors.ErrIndexUnavailable, metaField, countStr, err)
	}
	fields, err := s.client.HGetAll(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	if len(fields) != want {
		return nil, fmt.Errorf("%w: %s holds %d entries, expected %d", apperrors.ErrIndexUnavailable, key, len(fields), want)
	}
	return fields, nil
}
