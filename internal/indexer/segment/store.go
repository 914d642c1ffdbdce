package segment

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
)

// Store persists the index and directory as two segment files in dataDir.
type Store struct {
	dataDir string
	writer  *Writer
	logger  *slog.Logger
}

func NewStore(dataDir string) *Store {
	return &Store{
		dataDir: dataDir,
		writer:  NewWriter(dataDir),
		logger:  slog.Default().With("component", "segment-store", "data_dir", dataDir),
	}
}

func (s *Store) SaveIndex(ctx context.Context, idx *index.Index) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writer.WriteIndex(idx.Snapshot()); err != nil {
		return fmt.Errorf("saving index: %w", err)
	}
	s.logger.Info("index segment written", "file", IndexFile, "terms", idx.Len())
	return nil
}

func (s *Store) LoadIndex(ctx context.Context) (*index.Index, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dataDir, IndexFile)
	r, err := OpenReader(path, IndexMagic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	entries, err := r.Entries()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrIndexUnavailable, path, err)
	}
	idx, err := index.FromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrIndexUnavailable, path, err)
	}
	s.logger.Info("index segment loaded", "terms", r.Terms(), "docs", r.DocCount())
	return idx, nil
}

func (s *Store) SaveDirectory(ctx context.Context, dir *index.Directory) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.writer.WriteDirectory(dir.Entries()); err != nil {
		return fmt.Errorf("saving directory: %w", err)
	}
	s.logger.Info("directory segment written", "file", DirectoryFile, "docs", dir.Len())
	return nil
}

func (s *Store) LoadDirectory(ctx context.Context) (*index.Directory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dataDir, DirectoryFile)
	r, err := OpenReader(path, DirectoryMagic)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrIndexUnavailable, err)
	}
	entries, err := r.DirectoryEntries()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrIndexUnavailable, path, err)
	}
	dir, err := index.DirectoryFromEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", apperrors.ErrIndexUnavailable, path, err)
	}
	return dir, nil
}

func (s *Store) Close() error {
	return nil
}
