// Package analytics combines per-platform statistics into one dashboard view.
//
// PIPELINE:
//
//	handles ──Normalize──▶ Aggregator.Aggregate ──▶ CombinedAnalytics
//	                         │ one goroutine per platform, each under its
//	                         │ own timeout; failures are collected, not fatal
//	                         ▼
//	             Service.Combined adds the cache, singleflight and events
//
// The aggregator is stateless. All cross-request state lives in the Cache
// and the singleflight group owned by Service.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/metrics"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/platform"
)

// MsgNoHandles is returned when a request names no usable handle.
const MsgNoHandles = "Please add your LeetCode or Codeforces handle"

const defaultAdapterTimeout = 10 * time.Second

type Aggregator struct {
	adapters map[string]platform.Adapter
	timeout  time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewAggregator registers adapters by Name. timeout bounds each adapter call
// (10s when zero). m may be nil.
func NewAggregator(adapters []platform.Adapter, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Aggregator {
	if timeout <= 0 {
		timeout = defaultAdapterTimeout
	}
	byName := make(map[string]platform.Adapter, len(adapters))
	for _, a := range adapters {
		byName[a.Name()] = a
	}
	return &Aggregator{
		adapters: byName,
		timeout:  timeout,
		metrics:  m,
		logger:   logger.With(slog.String("component", "aggregator")),
		now:      time.Now,
	}
}

// Platforms lists the registered platform names, sorted.
func (a *Aggregator) Platforms() []string {
	names := make([]string, 0, len(a.adapters))
	for name := range a.adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Normalize trims and lowercases every pair, drops blank handles, and sorts
// by platform. Every supported platform treats handles case-insensitively,
// and the adapters report the canonical spelling in the profile. It fails with a validation error for unknown or repeated platforms and
// when nothing is left.
func (a *Aggregator) Normalize(handles []model.PlatformHandle) ([]model.PlatformHandle, error) {
	out := make([]model.PlatformHandle, 0, len(handles))
	seen := make(map[string]bool, len(handles))

	for _, h := range handles {
		name := strings.ToLower(strings.TrimSpace(h.Platform))
		handle := strings.ToLower(strings.TrimSpace(h.Handle))
		if handle == "" {
			continue
		}
		if _, ok := a.adapters[name]; !ok {
			return nil, apperror.ValidationFailed("platform", fmt.Sprintf("unsupported platform %q", h.Platform))
		}
		if seen[name] {
			return nil, apperror.ValidationFailed(name, fmt.Sprintf("more than one %s handle given", name))
		}
		seen[name] = true
		out = append(out, model.PlatformHandle{Platform: name, Handle: handle})
	}

	if len(out) == 0 {
		return nil, apperror.ValidationFailed("handles", MsgNoHandles)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out, nil
}

// Key is the cache and singleflight key of a normalized handle-set.
func Key(handles []model.PlatformHandle) string {
	parts := make([]string, len(handles))
	for i, h := range handles {
		parts[i] = h.Platform + "=" + h.Handle
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}

type fetchOutcome struct {
	handle model.PlatformHandle
	result *platform.Result
	err    error
}

// Aggregate fetches every handle concurrently and merges the results.
//
// A failed platform becomes an entry in Failures. Only when every platform
// fails does Aggregate return an error, an AggregateFailure naming each reason.
func (a *Aggregator) Aggregate(ctx context.Context, handles []model.PlatformHandle) (*model.CombinedAnalytics, error) {
	handles, err := a.Normalize(handles)
	if err != nil {
		return nil, err
	}

	outcomes := make([]fetchOutcome, len(handles))
	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = a.fetchOne(ctx, h)
		}()
	}
	wg.Wait()

	combined := &model.CombinedAnalytics{
		Profiles:  make(map[string]*model.PlatformProfile, len(handles)),
		Failures:  []apperror.PlatformFailure{},
		FetchedAt: a.now().UTC(),
	}
	calendars := make([]model.ActivityCalendar, 0, len(handles))

	for _, o := range outcomes {
		if o.err != nil {
			combined.Failures = append(combined.Failures, apperror.PlatformFailure{
				Platform: o.handle.Platform,
				Handle:   o.handle.Handle,
				Kind:     apperror.Kind(o.err),
				Reason:   o.err.Error(),
			})
			continue
		}
		combined.Profiles[o.handle.Platform] = o.result.Profile
		calendars = append(calendars, o.result.Calendar)
	}

	if len(combined.Profiles) == 0 {
		a.metrics.ObserveAggregation("failed")
		return nil, apperror.AggregateFailure(combined.Failures)
	}

	combined.ActivityCalendar = MergeCalendars(calendars...)
	combined.Topics = MergeTopics(combined.Profiles)
	combined.Stats = ComputeStats(combined.Profiles, combined.ActivityCalendar, combined.FetchedAt)

	outcome := "ok"
	if len(combined.Failures) > 0 {
		outcome = "partial"
	}
	a.metrics.ObserveAggregation(outcome)
	a.logger.Info("analytics aggregated",
		slog.Int("platforms", len(handles)),
		slog.Int("failed", len(combined.Failures)),
		slog.Int("totalSolved", combined.Stats.TotalSolved),
	)
	return combined, nil
}

func (a *Aggregator) fetchOne(ctx context.Context, h model.PlatformHandle) fetchOutcome {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	res, err := a.adapters[h.Platform].Fetch(ctx, h.Handle)
	if err == nil && (res == nil || res.Profile == nil) {
		err = apperror.Upstream(h.Platform, errors.New("empty result"))
	}
	if err == nil && res.Calendar == nil {
		res.Calendar = model.ActivityCalendar{}
	}
	return fetchOutcome{handle: h, result: res, err: err}
}
