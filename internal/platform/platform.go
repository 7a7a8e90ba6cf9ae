// Package platform defines the contract every competitive-programming
// platform adapter implements, plus the helpers they share.
//
// ADAPTER CONTRACT:
// Fetch(ctx, handle) returns the user's normalized profile and their daily
// submission calendar, or an *apperror.AppError whose kind is one of
//   - apperror.ErrNotFound    → the platform has no such user
//   - apperror.ErrRateLimited → the platform throttled us
//   - apperror.ErrUpstream    → anything else (network, 5xx, bad payload)
//
// Missing optional data (no contests, no tags, empty calendar) is NOT an
// error: adapters return empty collections instead.
//
// Concrete adapters live in sub-packages (leetcode, codeforces, atcoder) and
// are decorated with Resilient before the aggregator sees them.
package platform

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sakif/student-dashboard/internal/model"
)

// Result is a successful fetch.
type Result struct {
	Profile  *model.PlatformProfile
	Calendar model.ActivityCalendar
}

// Adapter fetches one user's statistics from one platform.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, handle string) (*Result, error)
}

// NewProfile returns a profile with every collection initialised.
func NewProfile(platform, handle string) *model.PlatformProfile {
	return &model.PlatformProfile{
		Platform:      platform,
		Handle:        handle,
		RatingHistory: []model.RatingPoint{},
		Topics:        []model.TopicCount{},
	}
}

// DateOf converts a unix timestamp to the calendar's UTC date key.
func DateOf(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format(model.CalendarDateLayout)
}

// SortedTopics turns a tag→count map into a slice ordered by count desc,
// then name asc. Blank names and non-positive counts are dropped.
func SortedTopics(counts map[string]int) []model.TopicCount {
	topics := make([]model.TopicCount, 0, len(counts))
	for name, n := range counts {
		name = strings.TrimSpace(name)
		if name == "" || n <= 0 {
			continue
		}
		topics = append(topics, model.TopicCount{Name: name, Count: n})
	}
	sort.Slice(topics, func(i, j int) bool {
		if topics[i].Count != topics[j].Count {
			return topics[i].Count > topics[j].Count
		}
		return topics[i].Name < topics[j].Name
	})
	return topics
}

// SortHistory orders rating points chronologically. Dates are ISO so a string
// comparison is a date comparison.
func SortHistory(points []model.RatingPoint) {
	sort.SliceStable(points, func(i, j int) bool { return points[i].Date < points[j].Date })
}
