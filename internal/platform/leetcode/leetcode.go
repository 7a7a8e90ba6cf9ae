// Package leetcode fetches a user's statistics from LeetCode's public GraphQL API.
//
// One POST returns everything we need:
//   - matchedUser.submitStatsGlobal  → solved counts per difficulty
//   - matchedUser.tagProblemCounts   → solved counts per topic tag
//   - matchedUser.userCalendar       → daily submission counts (last year)
//   - userContestRanking(History)    → current rating and rating history
//
// LeetCode answers an unknown username with HTTP 200, matchedUser = null and
// an "errors" array, so NotFound is detected from the payload, not the status.
package leetcode

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/sakif/student-dashboard/internal/apperror"
	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/platform"
)

// compile-time check that *Adapter satisfies platform.Adapter
var _ platform.Adapter = (*Adapter)(nil)

const profileQuery = `query studentProfile($username: String!) {
  matchedUser(username: $username) {
    username
    submitStatsGlobal { acSubmissionNum { difficulty count } }
    tagProblemCounts {
      advanced { tagName problemsSolved }
      intermediate { tagName problemsSolved }
      fundamental { tagName problemsSolved }
    }
    userCalendar { submissionCalendar }
  }
  userContestRanking(username: $username) { rating }
  userContestRankingHistory(username: $username) {
    attended
    rating
    contest { title startTime }
  }
}`

type Adapter struct {
	client   *platform.HTTPClient
	endpoint string
}

// New returns an adapter posting to endpoint (normally https://leetcode.com/graphql).
func New(client *platform.HTTPClient, endpoint string) *Adapter {
	return &Adapter{client: client, endpoint: endpoint}
}

func (a *Adapter) Name() string {
	return model.PlatformLeetCode
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type tagCount struct {
	TagName        string `json:"tagName"`
	ProblemsSolved int    `json:"problemsSolved"`
}

type graphQLResponse struct {
	Data struct {
		MatchedUser *struct {
			Username          string `json:"username"`
			SubmitStatsGlobal struct {
				AcSubmissionNum []struct {
					Difficulty string `json:"difficulty"`
					Count      int    `json:"count"`
				} `json:"acSubmissionNum"`
			} `json:"submitStatsGlobal"`
			TagProblemCounts struct {
				Advanced     []tagCount `json:"advanced"`
				Intermediate []tagCount `json:"intermediate"`
				Fundamental  []tagCount `json:"fundamental"`
			} `json:"tagProblemCounts"`
			UserCalendar *struct {
				SubmissionCalendar string `json:"submissionCalendar"`
			} `json:"userCalendar"`
		} `json:"matchedUser"`
		UserContestRanking *struct {
			Rating float64 `json:"rating"`
		} `json:"userContestRanking"`
		UserContestRankingHistory []struct {
			Attended bool    `json:"attended"`
			Rating   float64 `json:"rating"`
			Contest  struct {
				Title     string `json:"title"`
				StartTime int64  `json:"startTime"`
			} `json:"contest"`
		} `json:"userContestRankingHistory"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

func (a *Adapter) Fetch(ctx context.Context, handle string) (*platform.Result, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apperror.ValidationFailed("leetcode", "leetcode handle is empty")
	}

	var resp graphQLResponse
	err := a.client.PostJSON(ctx, a.endpoint, map[string]string{
		"Referer": "https://leetcode.com/u/" + handle + "/",
	}, graphQLRequest{
		Query:     profileQuery,
		Variables: map[string]any{"username": handle},
	}, &resp)
	if err != nil {
		return nil, platform.Classify(a.Name(), handle, err)
	}

	user := resp.Data.MatchedUser
	if user == nil {
		if isRateLimitMessage(resp.Errors) {
			return nil, apperror.RateLimited(a.Name(), 0)
		}
		return nil, platform.UserNotFound(a.Name(), handle)
	}

	profile := platform.NewProfile(a.Name(), handle)
	if user.Username != "" {
		profile.Handle = user.Username
	}

	// "All" is ignored: the total is defined as the sum of the buckets so
	// the breakdown always adds up, even when LeetCode's own total disagrees.
	for _, s := range user.SubmitStatsGlobal.AcSubmissionNum {
		switch strings.ToLower(s.Difficulty) {
		case "easy":
			profile.DifficultyBreakdown.Easy = max(s.Count, 0)
		case "medium":
			profile.DifficultyBreakdown.Medium = max(s.Count, 0)
		case "hard":
			profile.DifficultyBreakdown.Hard = max(s.Count, 0)
		}
	}
	profile.TotalSolved = profile.DifficultyBreakdown.Total()

	tags := make(map[string]int)
	for _, group := range [][]tagCount{
		user.TagProblemCounts.Fundamental,
		user.TagProblemCounts.Intermediate,
		user.TagProblemCounts.Advanced,
	} {
		for _, t := range group {
			tags[t.TagName] += t.ProblemsSolved
		}
	}
	profile.Topics = platform.SortedTopics(tags)

	if r := resp.Data.UserContestRanking; r != nil {
		profile.Rating = int(math.Round(r.Rating))
	}
	for _, h := range resp.Data.UserContestRankingHistory {
		if !h.Attended || h.Contest.StartTime == 0 {
			continue
		}
		rating := int(math.Round(h.Rating))
		profile.RatingHistory = append(profile.RatingHistory, model.RatingPoint{
			Date:    platform.DateOf(h.Contest.StartTime),
			Rating:  rating,
			Contest: h.Contest.Title,
		})
		profile.MaxRating = max(profile.MaxRating, rating)
	}
	platform.SortHistory(profile.RatingHistory)

	calendar := model.ActivityCalendar{}
	if user.UserCalendar != nil {
		calendar = parseSubmissionCalendar(user.UserCalendar.SubmissionCalendar)
	}

	return &platform.Result{Profile: profile, Calendar: calendar}, nil
}

// parseSubmissionCalendar decodes LeetCode's calendar, a JSON object encoded
// as a string, keyed by unix seconds. Malformed input yields an empty calendar.
func parseSubmissionCalendar(raw string) model.ActivityCalendar {
	calendar := model.ActivityCalendar{}
	if strings.TrimSpace(raw) == "" {
		return calendar
	}

	var byTimestamp map[string]int
	if err := json.Unmarshal([]byte(raw), &byTimestamp); err != nil {
		return calendar
	}
	for ts, count := range byTimestamp {
		secs, err := strconv.ParseInt(ts, 10, 64)
		if err != nil || count <= 0 {
			continue
		}
		calendar[platform.DateOf(secs)] += count
	}
	return calendar
}

func isRateLimitMessage(errs []graphQLError) bool {
	for _, e := range errs {
		msg := strings.ToLower(e.Message)
		if strings.Contains(msg, "too many requests") || strings.Contains(msg, "rate limit") {
			return true
		}
	}
	return false
}
