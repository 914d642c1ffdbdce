package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	calls  [][]kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.calls = append(w.calls, msgs)
	return w.err
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestProducer_PublishWritesOneBatch(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, "events")

	err := p.Publish(context.Background(),
		Event{Key: "q1", Type: "search", Value: map[string]int{"results": 2}},
		Event{Key: "build", Value: "done"},
	)
	require.NoError(t, err)

	require.Len(t, w.calls, 1)
	msgs := w.calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, []byte("q1"), msgs[0].Key)
	assert.JSONEq(t, `{"results":2}`, string(msgs[0].Value))
	assert.Equal(t, []kafka.Header{{Key: TypeHeader, Value: []byte("search")}}, msgs[0].Headers)
	assert.JSONEq(t, `"done"`, string(msgs[1].Value))
	assert.Empty(t, msgs[1].Headers)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestProducer_PublishNothing(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, "events").Publish(context.Background()))
	assert.Empty(t, w.calls)
}

func TestProducer_EncodeErrorWritesNothing(t *testing.T) {
	w := &fakeWriter{}
	err := newProducer(w, "events").Publish(context.Background(),
		Event{Key: "ok", Value: 1},
		Event{Key: "bad", Type: "search", Value: make(chan int)},
	)
	assert.ErrorContains(t, err, `search event "bad"`)
	assert.Empty(t, w.calls)
}

func TestProducer_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	err := newProducer(w, "events").Publish(context.Background(), Event{Key: "k", Value: 1})
	assert.ErrorContains(t, err, "leader not available")
}

// fakeReader serves queued fetch results, then blocks until ctx ends.
type fakeReader struct {
	mu        sync.Mutex
	fetches   []fetchResult
	committed []int64
}

type fetchResult struct {
	msg kafka.Message
	err error
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.fetches) > 0 {
		next := r.fetches[0]
		r.fetches = r.fetches[1:]
		r.mu.Unlock()
		return next.msg, next.err
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) Committed() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func TestConsumer_DispatchesAndCommits(t *testing.T) {
	reader := &fakeReader{fetches: []fetchResult{
		{msg: kafka.Message{Offset: 1, Key: []byte("q1"), Value: []byte(`{}`),
			Headers: []kafka.Header{{Key: "trace", Value: []byte("x")}, {Key: TypeHeader, Value: []byte("search")}}}},
		{err: errors.New("connection reset")},
		{msg: kafka.Message{Offset: 2, Value: []byte(`bad`)}},
		{msg: kafka.Message{Offset: 3, Value: []byte(`{}`)}},
	}}

	var (
		mu  sync.Mutex
		got []Message
	)
	handler := func(_ context.Context, msg Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, msg)
		if string(msg.Value) == "bad" {
			return errors.New("cannot decode")
		}
		return nil
	}
	c := newConsumer(reader, "events", handler)
	c.retryDelay = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 3
	}, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	require.NoError(t, c.Close())

	assert.Equal(t, Message{Key: []byte("q1"), Type: "search", Value: []byte(`{}`)}, got[0])
	assert.Equal(t, "", got[2].Type)
	// the message the handler refused is not committed
	assert.Equal(t, []int64{1, 3}, reader.Committed())
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Query string `json:"query"`
	}
	p, err := DecodeJSON[payload]([]byte(`{"query":"تهران"}`))
	require.NoError(t, err)
	assert.Equal(t, "تهران", p.Query)

	_, err = DecodeJSON[payload]([]byte(`{`))
	assert.ErrorContains(t, err, "decoding kafka message")
}
