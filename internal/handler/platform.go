package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/sakif/student-dashboard/internal/model"
)

// CombinedAnalytics is implemented by analytics.Service.
type CombinedAnalytics interface {
	Combined(ctx context.Context, handles []model.PlatformHandle, refresh bool) (*model.CombinedAnalytics, error)
}

// PlatformHandler serves the combined competitive-programming analytics.
type PlatformHandler struct {
	analytics CombinedAnalytics
	logger    *slog.Logger
}

func NewPlatformHandler(analytics CombinedAnalytics, logger *slog.Logger) *PlatformHandler {
	return &PlatformHandler{analytics: analytics, logger: logger}
}

// HandleCombined aggregates the handles given in the query string.
//
// HTTP: GET /api/platform/combined?leetcode=&codeforces=&atcoder=[&refresh=true]
//
// A request without any non-blank handle is answered 400 before any
// platform is contacted. When only some platforms fail the response is
// still 200 and lists them under data.failures; when all fail it is 502.
func (h *PlatformHandler) HandleCombined(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	handles := make([]model.PlatformHandle, 0, 3)
	for _, name := range []string{model.PlatformLeetCode, model.PlatformCodeforces, model.PlatformAtCoder} {
		if v := q.Get(name); v != "" {
			handles = append(handles, model.PlatformHandle{Platform: name, Handle: v})
		}
	}
	refresh, _ := strconv.ParseBool(q.Get("refresh"))

	result, err := h.analytics.Combined(r.Context(), handles, refresh)
	if err != nil {
		if r.Context().Err() != nil {
			// client went away; nobody is listening for a response
			h.logger.Debug("combined analytics abandoned by client")
			return
		}
		writeError(w, err)
		return
	}
	writeData(w, http.StatusOK, "", result)
}
