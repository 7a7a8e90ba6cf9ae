package platform

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/metrics"
	"github.com/sakif/student-dashboard/internal/resilience"
)

// compile-time check that *Resilient is itself an Adapter
var _ Adapter = (*Resilient)(nil)

// ResilienceOptions tunes the decorator. Zero values fall back to the
// resilience package defaults.
type ResilienceOptions struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Resilient decorates an Adapter with a per-platform circuit breaker, retry
// with backoff for rate-limit and upstream errors, metrics and logging.
//
// ORDER OF WRAPPING:
// Retry is the outer loop and the breaker the inner one, so every attempt
// is counted by the breaker and an open breaker stops the retries at once
// (ErrCircuitOpen is not retryable).
type Resilient struct {
	next    Adapter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewResilient wraps next. m may be nil.
func NewResilient(next Adapter, opts ResilienceOptions, m *metrics.Metrics, logger *slog.Logger) *Resilient {
	name := next.Name()
	breaker := resilience.NewCircuitBreaker(name, resilience.BreakerConfig{
		FailureThreshold: opts.FailureThreshold,
		ResetTimeout:     opts.ResetTimeout,
		IsFailure:        apperror.Retryable,
		OnStateChange: func(name string, to resilience.State) {
			m.SetBreakerState(name, int(to))
		},
	}, logger)
	m.SetBreakerState(name, int(resilience.StateClosed))

	return &Resilient{
		next:    next,
		breaker: breaker,
		retry: resilience.RetryConfig{
			MaxAttempts:  opts.MaxAttempts,
			InitialDelay: opts.InitialDelay,
			MaxDelay:     opts.MaxDelay,
			ShouldRetry:  apperror.Retryable,
		},
		metrics: m,
		logger:  logger.With(slog.String("platform", name)),
	}
}

func (r *Resilient) Name() string {
	return r.next.Name()
}

// Breaker exposes the circuit breaker for health reporting.
func (r *Resilient) Breaker() *resilience.CircuitBreaker {
	return r.breaker
}

func (r *Resilient) Fetch(ctx context.Context, handle string) (*Result, error) {
	start := time.Now()

	var result *Result
	err := resilience.Retry(ctx, r.retry, func(ctx context.Context) error {
		return r.breaker.Execute(func() error {
			res, err := r.next.Fetch(ctx, handle)
			if err != nil {
				return Classify(r.Name(), handle, err)
			}
			if res == nil || res.Profile == nil {
				return apperror.Upstream(r.Name(), errors.New("empty result"))
			}
			result = res
			return nil
		})
	})

	if errors.Is(err, resilience.ErrCircuitOpen) {
		err = apperror.Upstream(r.Name(), errors.New("temporarily unavailable (circuit open)"))
	}

	outcome := "ok"
	if err != nil {
		outcome = apperror.Kind(err)
	}
	r.metrics.ObservePlatformFetch(r.Name(), outcome, time.Since(start).Seconds())

	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, apperror.ErrNotFound) {
			level = slog.LevelInfo
		}
		r.logger.Log(ctx, level, "platform fetch failed",
			slog.String("handle", handle),
			slog.String("kind", outcome),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	r.logger.Debug("platform fetch succeeded",
		slog.String("handle", handle),
		slog.Int("totalSolved", result.Profile.TotalSolved),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}
