package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sakif/student-dashboard/internal/metrics"
)

// compile-time check that *Collector satisfies Tracker
var _ Tracker = (*Collector)(nil)

// CollectorConfig sizes the buffer and batches. Zero values use defaults.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers events and flushes them to a Publisher when a batch
// fills up or the flush interval passes, whichever comes first.
//
// Shared aggregations run detached from their callers, so Track can be
// called after Close during shutdown. Such late events are dropped.
type Collector struct {
	publisher     Publisher
	eventCh       chan Event
	batchSize     int
	flushInterval time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	done          chan struct{}

	mu      sync.RWMutex // guards started, closed and sends on eventCh
	started bool
	closed  bool
}

// NewCollector returns a collector. Call Start before Track, and Close on shutdown.
func NewCollector(publisher Publisher, cfg CollectorConfig, m *metrics.Metrics, logger *slog.Logger) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		eventCh:       make(chan Event, cfg.BufferSize),
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		metrics:       m,
		logger:        logger.With(slog.String("component", "event-collector")),
		done:          make(chan struct{}),
	}
}

// Start launches the flush loop. The loop exits when ctx is cancelled or
// Close is called, flushing whatever is still buffered.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed {
		return
	}
	c.started = true

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.flushInterval)
		defer ticker.Stop()

		batch := make([]Event, 0, c.batchSize)
		for {
			select {
			case ev, ok := <-c.eventCh:
				if !ok {
					c.finalFlush(batch)
					return
				}
				batch = append(batch, ev)
				if len(batch) >= c.batchSize {
					batch = c.flush(ctx, batch)
				}
			case <-ticker.C:
				batch = c.flush(ctx, batch)
			case <-ctx.Done():
				c.finalFlush(c.drain(batch))
				return
			}
		}
	}()
	c.logger.Info("event collector started",
		slog.Int("buffer_size", cap(c.eventCh)),
		slog.Int("batch_size", c.batchSize),
		slog.Duration("flush_interval", c.flushInterval),
	)
}

// Track enqueues ev, dropping it if the buffer is full or the collector
// is closed.
func (c *Collector) Track(ev Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		c.metrics.ObserveEvent("dropped", 1)
		c.logger.Warn("analytics event dropped (collector closed)", slog.String("event_id", ev.ID))
		return
	}
	select {
	case c.eventCh <- ev:
	default:
		c.metrics.ObserveEvent("dropped", 1)
		c.logger.Warn("analytics event dropped (buffer full)", slog.String("event_id", ev.ID))
	}
}

// Close stops accepting events, flushes the rest and closes the publisher.
// Only the first call has any effect.
func (c *Collector) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.eventCh)
	started := c.started
	c.mu.Unlock()

	// without a flush loop the buffered events have nowhere to go
	if started {
		<-c.done
	}
	return c.publisher.Close()
}

func (c *Collector) flush(ctx context.Context, batch []Event) []Event {
	if len(batch) == 0 {
		return batch
	}
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		c.metrics.ObserveEvent("failed", len(batch))
		c.logger.Error("event batch flush failed",
			slog.Int("count", len(batch)),
			slog.String("error", err.Error()),
		)
	} else {
		c.metrics.ObserveEvent("published", len(batch))
	}
	return make([]Event, 0, c.batchSize)
}

// drain moves everything still queued into batch without blocking.
func (c *Collector) drain(batch []Event) []Event {
	for {
		select {
		case ev, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
}

func (c *Collector) finalFlush(batch []Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c.flush(ctx, batch)
}
