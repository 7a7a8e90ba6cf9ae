package analytics

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/sakif/student-dashboard/internal/events"
	"github.com/sakif/student-dashboard/internal/metrics"
	"github.com/sakif/student-dashboard/internal/model"
)

// ServiceConfig holds the cache policy.
type ServiceConfig struct {
	// TTL applies to results where every platform succeeded.
	TTL time.Duration
	// PartialTTL applies to results with at least one failed platform,
	// so a transient outage is retried sooner. Zero disables caching them.
	PartialTTL time.Duration
	// FetchTimeout bounds a whole shared aggregation, independent of callers.
	FetchTimeout time.Duration
}

// Service is the cached entry point to the aggregator.
//
// WHY SINGLEFLIGHT?
// Two students opening the same leaderboard page at once would otherwise
// hit every platform twice. Concurrent misses for one handle-set share a
// single aggregation, and the first finisher fills the cache for the rest.
//
// WHY A DETACHED CONTEXT?
// The shared aggregation belongs to no single caller. It runs on
// context.WithoutCancel plus its own deadline, so a caller that disconnects
// stops waiting without cancelling the fetch for everyone else or leaving a
// half-built result behind.
type Service struct {
	aggregator *Aggregator
	cache      Cache
	cfg        ServiceConfig
	group      singleflight.Group
	tracker    events.Tracker
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewService wires the aggregator to a cache. tracker and m may be nil.
func NewService(aggregator *Aggregator, cache Cache, cfg ServiceConfig, tracker events.Tracker, m *metrics.Metrics, logger *slog.Logger) *Service {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 3 * aggregator.timeout
	}
	if tracker == nil {
		tracker = events.Noop{}
	}
	return &Service{
		aggregator: aggregator,
		cache:      cache,
		cfg:        cfg,
		tracker:    tracker,
		metrics:    m,
		logger:     logger.With(slog.String("component", "analytics-service")),
	}
}

// Combined returns the analytics for handles, from the cache when possible.
// refresh drops the cached entry first.
func (s *Service) Combined(ctx context.Context, handles []model.PlatformHandle, refresh bool) (*model.CombinedAnalytics, error) {
	normalized, err := s.aggregator.Normalize(handles)
	if err != nil {
		return nil, err
	}
	key := Key(normalized)

	if refresh {
		s.cache.Delete(ctx, key)
	} else if cached, ok := s.cache.Get(ctx, key); ok {
		s.metrics.ObserveCache(true)
		return cached, nil
	}
	s.metrics.ObserveCache(false)

	return s.shared(ctx, key, normalized, false)
}

// Refresh aggregates handles and stores the result. The warm-up job uses it.
//
// Unlike Combined with refresh, it never drops the cached entry first: a
// failed aggregation leaves it untouched, and a partial one only replaces
// an entry that was itself partial. A platform outage therefore cannot
// wipe good results out of the cache.
func (s *Service) Refresh(ctx context.Context, handles []model.PlatformHandle) error {
	normalized, err := s.aggregator.Normalize(handles)
	if err != nil {
		return err
	}
	_, err = s.shared(ctx, Key(normalized), normalized, true)
	return err
}

// shared runs one aggregation per key at a time and waits for it, or for ctx.
func (s *Service) shared(ctx context.Context, key string, handles []model.PlatformHandle, keepComplete bool) (*model.CombinedAnalytics, error) {
	ch := s.group.DoChan(key, func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx), key, handles, keepComplete)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.CombinedAnalytics), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Service) refresh(ctx context.Context, key string, handles []model.PlatformHandle, keepComplete bool) (*model.CombinedAnalytics, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()

	result, err := s.aggregator.Aggregate(ctx, handles)
	if err != nil {
		return nil, err
	}

	ttl := s.cfg.TTL
	if len(result.Failures) > 0 {
		ttl = s.cfg.PartialTTL
		if keepComplete {
			if cached, ok := s.cache.Get(ctx, key); ok && len(cached.Failures) == 0 {
				ttl = 0
			}
		}
	}
	if ttl > 0 {
		s.cache.Set(ctx, key, result, ttl)
	}

	s.tracker.Track(events.NewAnalyticsRefreshed(handles, result))
	return result, nil
}
