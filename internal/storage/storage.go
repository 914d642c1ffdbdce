// Package storage selects and instruments the persistence backend for the
// index and the document directory.
package storage

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/segment"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/storage/kv"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/storage/redisstore"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/redis"
)

// Store persists the two build artifacts independently. Loads of a missing
// or damaged artifact fail with an error wrapping ErrIndexUnavailable.
type Store interface {
	SaveIndex(ctx context.Context, idx *index.Index) error
	LoadIndex(ctx context.Context) (*index.Index, error)
	SaveDirectory(ctx context.Context, dir *index.Directory) error
	LoadDirectory(ctx context.Context) (*index.Directory, error)
	Close() error
}

// Open returns the backend named by cfg.Storage.Backend. Every operation is
// counted in m when m is non-nil.
func Open(cfg *config.Config, m *metrics.Metrics) (Store, error) {
	var (
		store  Store
		closer func() error
	)
	switch cfg.Storage.Backend {
	case config.BackendSegment:
		store = segment.NewStore(cfg.Storage.DataDir)
	case config.BackendBolt:
		s, err := kv.NewStore(kv.Bolt, filepath.Join(cfg.Storage.DataDir, "index.bolt"))
		if err != nil {
			return nil, err
		}
		store = s
	case config.BackendBadger:
		s, err := kv.NewStore(kv.Badger, filepath.Join(cfg.Storage.DataDir, "badger"))
		if err != nil {
			return nil, err
		}
		store = s
	case config.BackendRedis:
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			return nil, err
		}
		store = redisstore.New(client, cfg.Redis.KeyPrefix)
		closer = client.Close
	default:
		return nil, apperrors.Newf(apperrors.ErrUnsupportedBackend, "%q", cfg.Storage.Backend)
	}
	return &instrumented{
		Store:   store,
		backend: cfg.Storage.Backend,
		metrics: m,
		closer:  closer,
	}, nil
}

type instrumented struct {
	Store
	backend string
	metrics *metrics.Metrics
	closer  func() error
}

func (s *instrumented) observe(op string, err error) {
	if s.metrics != nil {
		s.metrics.ObserveStorage(s.backend, op, err)
	}
}

func (s *instrumented) SaveIndex(ctx context.Context, idx *index.Index) error {
	err := s.Store.SaveIndex(ctx, idx)
	s.observe("save_index", err)
	return err
}

func (s *instrumented) LoadIndex(ctx context.Context) (*index.Index, error) {
	idx, err := s.Store.LoadIndex(ctx)
	s.observe("load_index", err)
	return idx, err
}

func (s *instrumented) SaveDirectory(ctx context.Context, dir *index.Directory) error {
	err := s.Store.SaveDirectory(ctx, dir)
	s.observe("save_directory", err)
	return err
}

func (s *instrumented) LoadDirectory(ctx context.Context) (*index.Directory, error) {
	dir, err := s.Store.LoadDirectory(ctx)
	s.observe("load_directory", err)
	return dir, err
}

func (s *instrumented) Close() error {
	err := s.Store.Close()
	if s.closer != nil {
		err = errors.Join(err, s.closer())
	}
	return err
}
