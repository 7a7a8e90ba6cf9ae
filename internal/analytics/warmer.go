package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
)

// HandleSource lists every handle-set worth keeping warm.
type HandleSource interface {
	ListHandleSets(ctx context.Context) ([][]model.PlatformHandle, error)
}

// WarmerConfig schedules the background jobs. A zero Interval disables
// warm-up; a zero SweepInterval disables the memory-cache sweep.
type WarmerConfig struct {
	Interval      time.Duration
	Concurrency   int
	SweepInterval time.Duration
}

// Warmer periodically re-aggregates every linked handle-set so dashboard
// requests are served from the cache, and sweeps expired memory entries.
type Warmer struct {
	service   *Service
	source    HandleSource
	sweeper   *MemoryCache
	cfg       WarmerConfig
	scheduler *gocron.Scheduler
	logger    *slog.Logger
	baseCtx   context.Context
}

// NewWarmer returns a warmer. sweeper may be nil (Redis expires keys itself).
func NewWarmer(service *Service, source HandleSource, sweeper *MemoryCache, cfg WarmerConfig, logger *slog.Logger) *Warmer {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Warmer{
		service:   service,
		source:    source,
		sweeper:   sweeper,
		cfg:       cfg,
		scheduler: gocron.NewScheduler(time.UTC),
		logger:    logger.With(slog.String("component", "cache-warmer")),
		baseCtx:   context.Background(),
	}
}

// Start schedules the jobs. Warm-up waits one interval before its first run
// so startup does not hit every platform at once.
func (w *Warmer) Start(ctx context.Context) error {
	w.baseCtx = ctx

	if w.cfg.Interval > 0 {
		_, err := w.scheduler.Every(w.cfg.Interval).SingletonMode().WaitForSchedule().Do(func() {
			if _, err := w.WarmOnce(w.baseCtx); err != nil {
				w.logger.Error("cache warm-up failed", slog.String("error", err.Error()))
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling warm-up: %w", err)
		}
	}

	if w.sweeper != nil && w.cfg.SweepInterval > 0 {
		_, err := w.scheduler.Every(w.cfg.SweepInterval).WaitForSchedule().Do(func() {
			if n := w.sweeper.Sweep(); n > 0 {
				w.logger.Debug("swept expired cache entries", slog.Int("removed", n))
			}
		})
		if err != nil {
			return fmt.Errorf("scheduling cache sweep: %w", err)
		}
	}

	w.scheduler.StartAsync()
	w.logger.Info("cache warmer started",
		slog.Duration("interval", w.cfg.Interval),
		slog.Int("concurrency", w.cfg.Concurrency),
	)
	return nil
}

func (w *Warmer) Stop() {
	w.scheduler.Stop()
}

// WarmOnce refreshes every handle-set, at most Concurrency at a time, and
// returns how many succeeded. A failing set is logged and skipped.
func (w *Warmer) WarmOnce(ctx context.Context) (int, error) {
	sets, err := w.source.ListHandleSets(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing handle sets: %w", err)
	}

	var refreshed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Concurrency)

	for _, set := range sets {
		g.Go(func() error {
			if err := w.service.Refresh(gctx, set); err != nil {
				if errors.Is(err, context.Canceled) {
					return err
				}
				level := slog.LevelWarn
				if errors.Is(err, apperror.ErrValidation) {
					level = slog.LevelDebug
				}
				w.logger.Log(gctx, level, "warm-up refresh failed",
					slog.String("key", Key(set)),
					slog.String("error", err.Error()),
				)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}

	err = g.Wait()
	w.logger.Info("cache warm-up finished",
		slog.Int("sets", len(sets)),
		slog.Int64("refreshed", refreshed.Load()),
	)
	return int(refreshed.Load()), err
}
