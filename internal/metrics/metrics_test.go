package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObservePlatformFetch("leetcode", "ok", 0.1)
		m.SetBreakerState("leetcode", 1)
		m.ObserveAggregation("complete")
		m.ObserveCache(true)
		m.ObserveEvent("published", 3)
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObservePlatformFetch("codeforces", "rate_limited", 0.2)
	m.ObservePlatformFetch("codeforces", "rate_limited", 0.3)
	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PlatformFetchTotal.WithLabelValues("codeforces", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheHitsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheMissesTotal))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveAggregation("partial")

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `aggregations_total{outcome="partial"} 1`)
}
