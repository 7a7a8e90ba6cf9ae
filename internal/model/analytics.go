package model

import (
	"time"

	"github.com/sakif/student-dashboard/internal/apperror"
)

// Supported competitive-programming platforms.
const (
	PlatformLeetCode   = "leetcode"
	PlatformCodeforces = "codeforces"
	PlatformAtCoder    = "atcoder"
)

// CalendarDateLayout is the key format of ActivityCalendar (UTC days).
const CalendarDateLayout = "2006-01-02"

// DifficultyBreakdown splits solved problems into three buckets.
// Adapters build it so that Easy+Medium+Hard equals the profile's TotalSolved.
type DifficultyBreakdown struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
}

// Total is the number of problems across all buckets.
func (d DifficultyBreakdown) Total() int {
	return d.Easy + d.Medium + d.Hard
}

// RatingPoint is the contest rating after one rated contest.
type RatingPoint struct {
	Date    string `json:"date"`
	Rating  int    `json:"rating"`
	Contest string `json:"contest,omitempty"`
}

// TopicCount is the number of solved problems tagged with a topic.
type TopicCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// PlatformProfile is one user's normalized statistics on one platform.
// Collections are never nil so they encode as [] rather than null.
type PlatformProfile struct {
	Platform            string              `json:"platform"`
	Handle              string              `json:"handle"`
	TotalSolved         int                 `json:"totalSolved"`
	DifficultyBreakdown DifficultyBreakdown `json:"difficultyBreakdown"`
	Rating              int                 `json:"rating"`
	MaxRating           int                 `json:"maxRating,omitempty"`
	Rank                string              `json:"rank,omitempty"`
	RatingHistory       []RatingPoint       `json:"ratingHistory"`
	Topics              []TopicCount        `json:"topics"`
}

// ActivityCalendar maps a UTC date ("2006-01-02") to a submission count.
type ActivityCalendar map[string]int

// PlatformHandle is one requested {platform, handle} pair.
type PlatformHandle struct {
	Platform string `json:"platform"`
	Handle   string `json:"handle"`
}

// Stats are totals derived from every successful profile and the merged calendar.
type Stats struct {
	TotalSolved         int                 `json:"totalSolved"`
	DifficultyBreakdown DifficultyBreakdown `json:"difficultyBreakdown"`
	TotalSubmissions    int                 `json:"totalSubmissions"`
	ActiveDays          int                 `json:"activeDays"`
	MaxDailySubmissions int                 `json:"maxDailySubmissions"`
	CurrentStreak       int                 `json:"currentStreak"`
	LongestStreak       int                 `json:"longestStreak"`
}

// CombinedAnalytics is the unified view served to the dashboard.
//
// It is built once per aggregation and then only read: cached values are
// shared between concurrent requests, so nothing may mutate it afterwards.
type CombinedAnalytics struct {
	Profiles         map[string]*PlatformProfile `json:"profiles"`
	ActivityCalendar ActivityCalendar            `json:"activityCalendar"`
	Topics           []TopicCount                `json:"topics"`
	Stats            Stats                       `json:"stats"`
	Failures         []apperror.PlatformFailure  `json:"failures"`
	FetchedAt        time.Time                   `json:"fetchedAt"`
}
