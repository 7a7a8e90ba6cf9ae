// Package codeforces fetches a user's statistics from the Codeforces API.
//
// Three methods are called in order: user.info (existence, rating, rank),
// user.rating (contest history) and user.status (every submission).
// Calls are sequential on purpose: Codeforces throttles bursts from one
// client and answers with "Call limit exceeded".
//
// Codeforces has no easy/medium/hard labels. Solved problems are bucketed
// by their problem rating instead; see difficultyOf.
package codeforces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/platform"
)

// compile-time check that *Adapter satisfies platform.Adapter
var _ platform.Adapter = (*Adapter)(nil)

// Problem rating thresholds for the difficulty buckets.
const (
	mediumFrom = 1200
	hardFrom   = 1900
)

type Adapter struct {
	client  *platform.HTTPClient
	baseURL string
}

// New returns an adapter for the API rooted at baseURL (normally https://codeforces.com/api).
func New(client *platform.HTTPClient, baseURL string) *Adapter {
	return &Adapter{client: client, baseURL: strings.TrimRight(baseURL, "/")}
}

func (a *Adapter) Name() string {
	return model.PlatformCodeforces
}

// envelope is the wrapper around every Codeforces API response.
type envelope[T any] struct {
	Status  string `json:"status"`
	Comment string `json:"comment"`
	Result  T      `json:"result"`
}

type userInfo struct {
	Handle    string `json:"handle"`
	Rating    int    `json:"rating"`
	MaxRating int    `json:"maxRating"`
	Rank      string `json:"rank"`
}

type ratingChange struct {
	ContestName             string `json:"contestName"`
	RatingUpdateTimeSeconds int64  `json:"ratingUpdateTimeSeconds"`
	NewRating               int    `json:"newRating"`
}

type submission struct {
	CreationTimeSeconds int64  `json:"creationTimeSeconds"`
	Verdict             string `json:"verdict"`
	Problem             struct {
		ContestID      int      `json:"contestId"`
		ProblemsetName string   `json:"problemsetName"`
		Index          string   `json:"index"`
		Name           string   `json:"name"`
		Rating         int      `json:"rating"`
		Tags           []string `json:"tags"`
	} `json:"problem"`
}

func (a *Adapter) Fetch(ctx context.Context, handle string) (*platform.Result, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apperror.ValidationFailed("codeforces", "codeforces handle is empty")
	}

	var infos []userInfo
	if err := call(ctx, a, handle, "user.info", url.Values{"handles": {handle}}, &infos); err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return nil, platform.UserNotFound(a.Name(), handle)
	}
	info := infos[0]

	var changes []ratingChange
	if err := call(ctx, a, handle, "user.rating", url.Values{"handle": {handle}}, &changes); err != nil {
		return nil, err
	}

	var submissions []submission
	if err := call(ctx, a, handle, "user.status", url.Values{"handle": {handle}}, &submissions); err != nil {
		return nil, err
	}

	profile := platform.NewProfile(a.Name(), handle)
	if info.Handle != "" {
		profile.Handle = info.Handle
	}
	profile.Rating = info.Rating
	profile.MaxRating = info.MaxRating
	profile.Rank = info.Rank

	for _, c := range changes {
		profile.RatingHistory = append(profile.RatingHistory, model.RatingPoint{
			Date:    platform.DateOf(c.RatingUpdateTimeSeconds),
			Rating:  c.NewRating,
			Contest: c.ContestName,
		})
	}
	platform.SortHistory(profile.RatingHistory)

	calendar, solved := summarize(submissions)

	tags := make(map[string]int)
	for _, s := range solved {
		switch difficultyOf(s.Problem.Rating) {
		case "easy":
			profile.DifficultyBreakdown.Easy++
		case "medium":
			profile.DifficultyBreakdown.Medium++
		default:
			profile.DifficultyBreakdown.Hard++
		}
		for _, tag := range s.Problem.Tags {
			tags[tag]++
		}
	}
	profile.TotalSolved = len(solved)
	profile.Topics = platform.SortedTopics(tags)

	return &platform.Result{Profile: profile, Calendar: calendar}, nil
}

// summarize counts every submission per UTC day and keeps the first accepted
// submission of each distinct problem.
func summarize(submissions []submission) (model.ActivityCalendar, map[string]submission) {
	calendar := model.ActivityCalendar{}
	solved := make(map[string]submission)

	for _, s := range submissions {
		if s.CreationTimeSeconds > 0 {
			calendar[platform.DateOf(s.CreationTimeSeconds)]++
		}
		if s.Verdict != "OK" {
			continue
		}
		key := problemKey(s)
		if _, seen := solved[key]; !seen {
			solved[key] = s
		}
	}
	return calendar, solved
}

func problemKey(s submission) string {
	if s.Problem.ContestID != 0 {
		return fmt.Sprintf("%d/%s", s.Problem.ContestID, s.Problem.Index)
	}
	return s.Problem.ProblemsetName + "/" + s.Problem.Index + "/" + s.Problem.Name
}

// difficultyOf buckets a problem rating. Unrated problems (rating 0) are
// counted as easy so every solved problem lands in exactly one bucket.
func difficultyOf(rating int) string {
	switch {
	case rating >= hardFrom:
		return "hard"
	case rating >= mediumFrom:
		return "medium"
	default:
		return "easy"
	}
}

// call invokes one API method and unwraps the envelope into out.
func call[T any](ctx context.Context, a *Adapter, handle, method string, params url.Values, out *T) error {
	endpoint := a.baseURL + "/" + method + "?" + params.Encode()

	var env envelope[T]
	err := a.client.GetJSON(ctx, endpoint, nil, &env)
	if err != nil {
		var statusErr *platform.StatusError
		if errors.As(err, &statusErr) {
			// Codeforces reports most failures as 400 with a JSON envelope.
			var failed envelope[json.RawMessage]
			if json.Unmarshal(statusErr.Body, &failed) == nil && failed.Comment != "" {
				return a.classifyComment(handle, failed.Comment, statusErr.Code)
			}
		}
		return platform.Classify(a.Name(), handle, err)
	}

	if env.Status != "OK" {
		return a.classifyComment(handle, env.Comment, http.StatusOK)
	}
	*out = env.Result
	return nil
}

func (a *Adapter) classifyComment(handle, comment string, status int) error {
	lower := strings.ToLower(comment)
	switch {
	case strings.Contains(lower, "not found"):
		return platform.UserNotFound(a.Name(), handle)
	case strings.Contains(lower, "call limit exceeded") || status == http.StatusTooManyRequests:
		return apperror.RateLimited(a.Name(), 0)
	default:
		return apperror.Upstream(a.Name(), fmt.Errorf("status %d: %s", status, comment))
	}
}
