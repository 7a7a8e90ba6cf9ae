package atcoder

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/platform"
)

const historyOK = `[
	{"IsRated":true,"NewRating":800,"EndTime":"2024-02-03T22:40:00+09:00","ContestName":"ABC 339"},
	{"IsRated":false,"NewRating":800,"EndTime":"2024-02-10T22:40:00+09:00","ContestName":"ARC 171"},
	{"IsRated":true,"NewRating":650,"EndTime":"2024-01-27T22:40:00+09:00","ContestName":"ABC 338"}
]`

// 2024-01-01 00:00 UTC and 2024-01-02 00:00 UTC
const submissionsOK = `[
	{"id":1,"epoch_second":1704067200,"problem_id":"abc338_a","result":"AC"},
	{"id":2,"epoch_second":1704067300,"problem_id":"abc338_a","result":"AC"},
	{"id":3,"epoch_second":1704067400,"problem_id":"abc338_c","result":"WA"},
	{"id":4,"epoch_second":1704153600,"problem_id":"abc338_c","result":"AC"},
	{"id":5,"epoch_second":1704153700,"problem_id":"abc338_f","result":"AC"},
	{"id":6,"epoch_second":1704153800,"problem_id":"arc001_2","result":"AC"}
]`

type fakeServer struct {
	historyStatus int
	history       string
	submissions   func(from string) string
	pages         atomic.Int32
}

func (f *fakeServer) start(t *testing.T) *Adapter {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/site/users/{user}/history/json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(f.historyStatus)
		_, _ = w.Write([]byte(f.history))
	})
	mux.HandleFunc("/problems/user/submissions", func(w http.ResponseWriter, r *http.Request) {
		f.pages.Add(1)
		_, _ = w.Write([]byte(f.submissions(r.URL.Query().Get("from_second"))))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return New(platform.NewHTTPClient(srv.Client(), "test"), srv.URL+"/site", srv.URL+"/problems")
}

func TestFetch_FullProfile(t *testing.T) {
	f := &fakeServer{
		historyStatus: http.StatusOK,
		history:       historyOK,
		submissions:   func(string) string { return submissionsOK },
	}
	a := f.start(t)

	res, err := a.Fetch(context.Background(), "alice")
	require.NoError(t, err)

	p := res.Profile
	assert.Equal(t, "atcoder", p.Platform)
	assert.Equal(t, 4, p.TotalSolved)
	assert.Equal(t, 2, p.DifficultyBreakdown.Easy) // abc338_a, arc001_2
	assert.Equal(t, 1, p.DifficultyBreakdown.Medium)
	assert.Equal(t, 1, p.DifficultyBreakdown.Hard)
	assert.Equal(t, p.TotalSolved, p.DifficultyBreakdown.Total())

	// unrated contest skipped; dates are UTC
	require.Len(t, p.RatingHistory, 2)
	assert.Equal(t, "2024-01-27", p.RatingHistory[0].Date)
	assert.Equal(t, "2024-02-03", p.RatingHistory[1].Date)
	assert.Equal(t, 800, p.Rating)
	assert.Equal(t, 800, p.MaxRating)

	assert.Empty(t, p.Topics)
	assert.NotNil(t, p.Topics)
	assert.Equal(t, 3, res.Calendar["2024-01-01"])
	assert.Equal(t, 3, res.Calendar["2024-01-02"])
	assert.Equal(t, int32(1), f.pages.Load())
}

func TestFetch_Paginates(t *testing.T) {
	page := func(start int64, n int) string {
		parts := make([]string, n)
		for i := range parts {
			parts[i] = fmt.Sprintf(`{"id":%d,"epoch_second":%d,"problem_id":"abc%d_a","result":"AC"}`, start+int64(i), start+int64(i), start+int64(i))
		}
		return "[" + strings.Join(parts, ",") + "]"
	}
	f := &fakeServer{
		historyStatus: http.StatusOK,
		history:       `[]`,
		submissions: func(from string) string {
			if from == "0" {
				return page(1704067200, pageSize)
			}
			return page(1704067200+pageSize, 3)
		},
	}
	a := f.start(t)

	res, err := a.Fetch(context.Background(), "grinder")
	require.NoError(t, err)
	assert.Equal(t, pageSize+3, res.Profile.TotalSolved)
	assert.Equal(t, int32(2), f.pages.Load())
}

func TestFetch_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		subs   string
		want   error
	}{
		{"history 404", http.StatusNotFound, `not found`, `[]`, apperror.ErrNotFound},
		{"no trace of user", http.StatusOK, `[]`, `[]`, apperror.ErrNotFound},
		{"throttled", http.StatusTooManyRequests, ``, `[]`, apperror.ErrRateLimited},
		{"server error", http.StatusInternalServerError, ``, `[]`, apperror.ErrUpstream},
		{"bad submissions payload", http.StatusOK, `[]`, `{"oops"`, apperror.ErrUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeServer{
				historyStatus: tt.status,
				history:       tt.body,
				submissions:   func(string) string { return tt.subs },
			}
			a := f.start(t)

			_, err := a.Fetch(context.Background(), "ghost")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestDifficultyOf(t *testing.T) {
	tests := map[string]string{
		"abc300_a":  "easy",
		"abc300_B":  "easy",
		"abc300_c":  "medium",
		"abc300_d":  "medium",
		"abc300_e":  "hard",
		"abc300_h":  "hard",
		"arc001_1":  "easy",
		"arc001_4":  "medium",
		"agc001_ex": "hard",
	}
	for id, want := range tests {
		assert.Equal(t, want, difficultyOf(id), id)
	}
}
