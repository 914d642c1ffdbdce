package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/index/indextest"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/internal/indexer/segment"
	apperrors "github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/metrics"
)

type stubLoader struct {
	batch *corpus.Batch
	err   error
	calls int
}

func (l *stubLoader) Load(context.Context) (*corpus.Batch, error) {
	l.calls++
	return l.batch, l.err
}

type recordingTracker struct {
	mu     sync.Mutex
	events []any
}

func (r *recordingTracker) Track(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

type countingInvalidator struct {
	calls int
	err   error
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.calls++
	return c.err
}

func TestEngine_BuildPrunesPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := segment.NewStore(t.TempDir())
	tracker := &recordingTracker{}
	cache := &countingInvalidator{err: errors.New("redis down")}
	m := metrics.New(nil)
	e := NewEngine(store, Options{PruneCount: 3, Backend: "segment", Metrics: m, Tracker: tracker, Cache: cache})

	docs := append(indextest.Corpus(), index.Document{ID: 9, Content: "", URL: "https://news.example/9"})
	report, err := e.Build(ctx, docs)
	require.NoError(t, err)

	assert.Equal(t, 5, report.Indexed)
	require.Len(t, report.Skipped, 1)
	assert.ErrorIs(t, report.Skipped[0].Err, apperrors.ErrMalformedRecord)
	require.Len(t, report.Pruned, 3)
	// eleven terms occur in two documents; the three smallest by text go first
	for _, r := range report.Pruned {
		assert.Equal(t, 2, r.DocumentFrequency)
	}
	assert.Equal(t, e.Index().Len(), report.Terms)
	for _, r := range report.Pruned {
		_, ok := e.Index().Lookup(r.Term)
		assert.False(t, ok, r.Term)
	}

	loaded, err := store.LoadIndex(ctx)
	require.NoError(t, err)
	assert.True(t, e.Index().Equal(loaded))
	assert.Equal(t, 5, e.Directory().Len())

	assert.Equal(t, 1, cache.calls)
	require.Len(t, tracker.events, 1)
	event := tracker.events[0].(analytics.IndexEvent)
	assert.Equal(t, analytics.EventIndexBuilt, event.Type)
	assert.Equal(t, 5, event.Documents)
	assert.Equal(t, 3, event.Pruned)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.DocsIndexedTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkippedTotal))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.TermsPrunedTotal))
	assert.Equal(t, float64(report.Terms), testutil.ToFloat64(m.IndexTerms))
}

func TestEngine_BuildRejectsNegativePruneCount(t *testing.T) {
	e := NewEngine(segment.NewStore(t.TempDir()), Options{PruneCount: -1})
	_, err := e.Build(context.Background(), indextest.Corpus())
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Nil(t, e.Index())
}

func TestEngine_BuildIsDeterministic(t *testing.T) {
	ctx := context.Background()
	a := NewEngine(segment.NewStore(t.TempDir()), Options{PruneCount: 2})
	b := NewEngine(segment.NewStore(t.TempDir()), Options{PruneCount: 2})

	ra, err := a.Build(ctx, indextest.Corpus())
	require.NoError(t, err)
	rb, err := b.Build(ctx, indextest.Corpus())
	require.NoError(t, err)

	assert.Equal(t, ra.Pruned, rb.Pruned)
	assert.True(t, a.Index().Equal(b.Index()))
	assert.True(t, a.Directory().Equal(b.Directory()))
}

func TestEngine_LoadOrBuild(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()
	loader := &stubLoader{batch: &corpus.Batch{
		Documents: indextest.Corpus(),
		Rejected:  []corpus.Rejected{{Row: 7, Err: apperrors.New(apperrors.ErrMalformedRecord, "2 columns")}},
	}}

	first := NewEngine(segment.NewStore(dataDir), Options{})
	report, err := first.LoadOrBuild(ctx, loader)
	require.NoError(t, err)
	require.NotNil(t, report, "nothing persisted yet, so it builds")
	assert.Len(t, report.Rejected, 1)
	assert.Equal(t, 1, loader.calls)

	second := NewEngine(segment.NewStore(dataDir), Options{})
	report, err = second.LoadOrBuild(ctx, loader)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Equal(t, 1, loader.calls)
	assert.True(t, first.Index().Equal(second.Index()))
	assert.True(t, first.Directory().Equal(second.Directory()))

	rebuild := NewEngine(segment.NewStore(dataDir), Options{Rebuild: true})
	report, err = rebuild.LoadOrBuild(ctx, loader)
	require.NoError(t, err)
	assert.NotNil(t, report)
	assert.Equal(t, 2, loader.calls)
}

func TestEngine_LoadOrBuildLoaderFailure(t *testing.T) {
	loader := &stubLoader{err: apperrors.New(apperrors.ErrCorpusUnavailable, "corpus.xlsx")}
	e := NewEngine(segment.NewStore(t.TempDir()), Options{})

	_, err := e.LoadOrBuild(context.Background(), loader)
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnavailable)
}

func TestEngine_LoadMissing(t *testing.T) {
	e := NewEngine(segment.NewStore(t.TempDir()), Options{})
	err := e.Load(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrIndexUnavailable)
}
