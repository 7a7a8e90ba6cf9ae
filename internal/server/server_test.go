package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-dashboard/internal/config"
	"github.com/sakif/student-dashboard/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Database.DSN = ":memory:"
	cfg.Warmup.Interval = 0
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(context.Background(), cfg, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{"liveness", http.MethodGet, "/healthz", "", http.StatusOK},
		{"readiness pings the store", http.MethodGet, "/readyz", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"combined without handles", http.MethodGet, "/api/platform/combined", "", http.StatusBadRequest},
		{"me needs a session", http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
		{"bulk create needs a session", http.MethodPost, "/api/users/bulk/create", `{"users":[]}`, http.StatusUnauthorized},
		{"empty user list", http.MethodGet, "/api/users", "", http.StatusOK},
		{"unknown resume", http.MethodGet, "/api/resumes/NOPE/exists", "", http.StatusOK},
		{"github disabled", http.MethodGet, "/auth/github/login", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_RegisterThenMe(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rr := serve(s, http.MethodPost, "/api/auth/register",
		`{"name":"Alice","email":"alice@example.com","password":"secret123","rollNumber":"CS-001"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var session *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "token" {
			session = c
		}
	}
	require.NotNil(t, session)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(session)
	rr = httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"rollNumber":"CS-001"`)
}

func TestServer_OptionalBackends(t *testing.T) {
	t.Run("metrics disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Metrics.Enabled = false
		s := newTestServer(t, cfg)

		assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/metrics", "").Code)
	})

	t.Run("github enabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.GitHub.ClientID = "id"
		cfg.GitHub.ClientSecret = "secret"
		s := newTestServer(t, cfg)

		rr := serve(s, http.MethodGet, "/auth/github/login", "")
		assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
		assert.Contains(t, rr.Header().Get("Location"), "client_id=id")
	})

	t.Run("unreachable redis fails readiness", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Cache.Backend = "redis"
		cfg.Redis.Addr = "127.0.0.1:1"
		s := newTestServer(t, cfg)

		rr := serve(s, http.MethodGet, "/readyz", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), `"redis"`)
	})

	t.Run("kafka brokers create a collector", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Kafka.Brokers = []string{"127.0.0.1:1"}
		s := newTestServer(t, cfg)
		assert.NotNil(t, s.collector)
	})
}
