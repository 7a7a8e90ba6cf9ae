package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-dashboard/internal/handler"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		checks     map[string]handler.Pinger
		wantStatus int
		wantReport string
	}{
		{"all up", map[string]handler.Pinger{"database": ok, "redis": ok}, http.StatusOK, "up"},
		{"nil checks are skipped", map[string]handler.Pinger{"database": ok, "redis": nil}, http.StatusOK, "up"},
		{"one down", map[string]handler.Pinger{"database": ok, "redis": down}, http.StatusServiceUnavailable, "down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handler.NewHealthHandler(tt.checks)
			rr := httptest.NewRecorder()

			h.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rr.Code)
			var report struct {
				Status     string                       `json:"status"`
				Components map[string]map[string]string `json:"components"`
			}
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&report))
			assert.Equal(t, tt.wantReport, report.Status)
			assert.Equal(t, "up", report.Components["database"]["status"])
		})
	}

	t.Run("liveness", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.NewHealthHandler(nil).HandleLive(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}
