// Package atcoder fetches a user's statistics from AtCoder.
//
// Contest history comes from atcoder.jp itself; submissions come from the
// community AtCoder Problems API, which pages them 500 at a time ordered by
// time. AtCoder has no topic tags, so profiles carry an empty topic list.
package atcoder

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/platform"
)

// compile-time check that *Adapter satisfies platform.Adapter
var _ platform.Adapter = (*Adapter)(nil)

const (
	pageSize = 500
	// maxPages bounds a single fetch to the most recent history of very
	// active users; 5000 submissions is far beyond a typical student.
	maxPages = 10
)

type Adapter struct {
	client      *platform.HTTPClient
	siteURL     string
	problemsURL string
}

// New returns an adapter. siteURL is normally https://atcoder.jp and
// problemsURL https://kenkoooo.com/atcoder/atcoder-api/v3.
func New(client *platform.HTTPClient, siteURL, problemsURL string) *Adapter {
	return &Adapter{
		client:      client,
		siteURL:     strings.TrimRight(siteURL, "/"),
		problemsURL: strings.TrimRight(problemsURL, "/"),
	}
}

func (a *Adapter) Name() string {
	return model.PlatformAtCoder
}

type contestResult struct {
	IsRated     bool   `json:"IsRated"`
	NewRating   int    `json:"NewRating"`
	EndTime     string `json:"EndTime"`
	ContestName string `json:"ContestName"`
}

type submission struct {
	ID          int64  `json:"id"`
	EpochSecond int64  `json:"epoch_second"`
	ProblemID   string `json:"problem_id"`
	Result      string `json:"result"`
}

func (a *Adapter) Fetch(ctx context.Context, handle string) (*platform.Result, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apperror.ValidationFailed("atcoder", "atcoder handle is empty")
	}

	var history []contestResult
	historyURL := fmt.Sprintf("%s/users/%s/history/json", a.siteURL, url.PathEscape(handle))
	if err := a.client.GetJSON(ctx, historyURL, nil, &history); err != nil {
		return nil, platform.Classify(a.Name(), handle, err)
	}

	submissions, err := a.submissions(ctx, handle)
	if err != nil {
		return nil, err
	}

	// atcoder.jp answers 200 with [] for unknown users, so an account with no
	// contests and no submissions is indistinguishable from a missing one.
	if len(history) == 0 && len(submissions) == 0 {
		return nil, platform.UserNotFound(a.Name(), handle)
	}

	profile := platform.NewProfile(a.Name(), handle)
	for _, c := range history {
		if !c.IsRated {
			continue
		}
		end, err := time.Parse(time.RFC3339, c.EndTime)
		if err != nil {
			continue
		}
		profile.RatingHistory = append(profile.RatingHistory, model.RatingPoint{
			Date:    end.UTC().Format(model.CalendarDateLayout),
			Rating:  c.NewRating,
			Contest: c.ContestName,
		})
		profile.MaxRating = max(profile.MaxRating, c.NewRating)
	}
	platform.SortHistory(profile.RatingHistory)
	if n := len(profile.RatingHistory); n > 0 {
		profile.Rating = profile.RatingHistory[n-1].Rating
	}

	calendar := model.ActivityCalendar{}
	solved := make(map[string]struct{})
	for _, s := range submissions {
		calendar[platform.DateOf(s.EpochSecond)]++
		if s.Result != "AC" {
			continue
		}
		if _, seen := solved[s.ProblemID]; seen {
			continue
		}
		solved[s.ProblemID] = struct{}{}
		switch difficultyOf(s.ProblemID) {
		case "easy":
			profile.DifficultyBreakdown.Easy++
		case "medium":
			profile.DifficultyBreakdown.Medium++
		default:
			profile.DifficultyBreakdown.Hard++
		}
	}
	profile.TotalSolved = len(solved)

	return &platform.Result{Profile: profile, Calendar: calendar}, nil
}

// submissions pages through the AtCoder Problems API from the beginning of
// time until a short page or the page cap.
func (a *Adapter) submissions(ctx context.Context, handle string) ([]submission, error) {
	var all []submission
	var from int64

	for page := 0; page < maxPages; page++ {
		q := url.Values{
			"user":        {handle},
			"from_second": {strconv.FormatInt(from, 10)},
		}
		var batch []submission
		if err := a.client.GetJSON(ctx, a.problemsURL+"/user/submissions?"+q.Encode(), nil, &batch); err != nil {
			return nil, platform.Classify(a.Name(), handle, err)
		}
		all = append(all, batch...)
		if len(batch) < pageSize {
			break
		}
		from = batch[len(batch)-1].EpochSecond + 1
	}
	return all, nil
}

// difficultyOf buckets a problem by its task letter: "abc300_a" → a.
// Older contests number their tasks (arc001_1), which map the same way.
func difficultyOf(problemID string) string {
	task := strings.ToLower(problemID)
	if i := strings.LastIndexByte(task, '_'); i >= 0 {
		task = task[i+1:]
	}
	switch task {
	case "a", "b", "1", "2":
		return "easy"
	case "c", "d", "3", "4":
		return "medium"
	default:
		return "hard"
	}
}
