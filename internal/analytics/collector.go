package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/corpus-search/pkg/kafka"
)

// Tracker accepts events without blocking the caller.
type Tracker interface {
	Track(event any)
}

// Publisher is the part of *kafka.Producer the collector needs.
type Publisher interface {
	Publish(ctx context.Context, events ...kafka.Event) error
}

// NopTracker discards every event. It stands in when Kafka is disabled.
type NopTracker struct{}

func (NopTracker) Track(any) {}

const finalFlushTimeout = 5 * time.Second

// Collector buffers events in a channel and publishes them in batches from
// a single goroutine. A batch goes out when it reaches batchSize or when
// flushInterval passes, whichever comes first. Events are dropped, with a
// warning, when the channel is full.
type Collector struct {
	publisher     Publisher
	eventCh       chan any
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}
}

// NewCollector returns a Collector. Zero values select a 10000 event
// buffer, 100 event batches and a one second flush interval.
func NewCollector(publisher Publisher, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan any, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				c.finalFlush(batch)
				return
			}
			batch = append(batch, toKafkaEvent(event))
			if len(batch) >= c.batchSize {
				c.flush(ctx, batch)
				batch = make([]kafka.Event, 0, c.batchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				c.flush(ctx, batch)
				batch = make([]kafka.Event, 0, c.batchSize)
			}
		case <-ctx.Done():
			c.finalFlush(c.drainInto(batch))
			return
		}
	}
}

func (c *Collector) Track(event any) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events and waits for the remaining ones to be
// published. Track must not be called after Close.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) {
	if err := c.publisher.Publish(ctx, batch...); err != nil {
		c.logger.Error("failed to publish analytics batch", "events", len(batch), "error", err)
		return
	}
	c.logger.Debug("analytics batch published", "events", len(batch))
}

// finalFlush publishes with its own deadline: the run context may already
// be cancelled.
func (c *Collector) finalFlush(batch []kafka.Event) {
	if len(batch) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), finalFlushTimeout)
	defer cancel()
	c.flush(ctx, batch)
}

func (c *Collector) drainInto(batch []kafka.Event) []kafka.Event {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, toKafkaEvent(event))
		default:
			return batch
		}
	}
}

func toKafkaEvent(event any) kafka.Event {
	return kafka.Event{Key: Key(event), Type: string(TypeOf(event)), Value: event}
}
