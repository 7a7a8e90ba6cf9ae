package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sakif/student-dashboard/internal/model"
)

func TestMergeCalendars_CommutativeAndAssociative(t *testing.T) {
	a := model.ActivityCalendar{"2024-01-01": 1, "2024-01-02": 2}
	b := model.ActivityCalendar{"2024-01-02": 3, "2024-01-03": 4}
	c := model.ActivityCalendar{"2024-01-01": 5}

	assert.Equal(t, MergeCalendars(a, b), MergeCalendars(b, a))
	assert.Equal(t,
		MergeCalendars(MergeCalendars(a, b), c),
		MergeCalendars(a, MergeCalendars(b, c)),
	)
	assert.Equal(t, model.ActivityCalendar{"2024-01-01": 6, "2024-01-02": 5, "2024-01-03": 4}, MergeCalendars(a, b, c))

	// inputs untouched
	assert.Equal(t, model.ActivityCalendar{"2024-01-01": 1, "2024-01-02": 2}, a)
}

func TestMergeCalendars_DropsNonPositive(t *testing.T) {
	got := MergeCalendars(model.ActivityCalendar{"2024-01-01": 0, "2024-01-02": -3, "2024-01-03": 1}, nil)
	assert.Equal(t, model.ActivityCalendar{"2024-01-03": 1}, got)
	assert.NotNil(t, MergeCalendars())
}

func TestComputeStats_Streaks(t *testing.T) {
	cal := model.ActivityCalendar{
		"2024-01-01": 1,
		"2024-01-02": 2,
		"2024-01-03": 1,
		"2024-01-05": 4,
		"2024-01-06": 1,
	}
	at := func(day int) time.Time { return time.Date(2024, 1, day, 15, 0, 0, 0, time.UTC) }

	tests := []struct {
		name    string
		today   time.Time
		current int
	}{
		{"ends today", at(6), 2},
		{"ends yesterday", at(7), 2},
		{"broken", at(8), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ComputeStats(nil, cal, tt.today)
			assert.Equal(t, tt.current, s.CurrentStreak)
			assert.Equal(t, 3, s.LongestStreak)
			assert.Equal(t, 5, s.ActiveDays)
			assert.Equal(t, 9, s.TotalSubmissions)
			assert.Equal(t, 4, s.MaxDailySubmissions)
		})
	}
}

func TestComputeStats_TodayInOtherZone(t *testing.T) {
	// 2024-01-03 23:30 in UTC-5 is 2024-01-04 04:30 UTC, so 01-03 is yesterday
	loc := time.FixedZone("EST", -5*3600)
	cal := model.ActivityCalendar{"2024-01-02": 1, "2024-01-03": 1}

	s := ComputeStats(nil, cal, time.Date(2024, 1, 3, 23, 30, 0, 0, loc))
	assert.Equal(t, 2, s.CurrentStreak)
}

func TestComputeStats_SumsProfiles(t *testing.T) {
	profiles := map[string]*model.PlatformProfile{
		"leetcode":   {TotalSolved: 6, DifficultyBreakdown: model.DifficultyBreakdown{Easy: 3, Medium: 2, Hard: 1}},
		"codeforces": {TotalSolved: 4, DifficultyBreakdown: model.DifficultyBreakdown{Easy: 1, Hard: 3}},
	}

	s := ComputeStats(profiles, model.ActivityCalendar{}, time.Now())
	assert.Equal(t, 10, s.TotalSolved)
	assert.Equal(t, s.TotalSolved, s.DifficultyBreakdown.Total())
	assert.Zero(t, s.CurrentStreak)
	assert.Zero(t, s.LongestStreak)
}

func TestMergeTopics(t *testing.T) {
	profiles := map[string]*model.PlatformProfile{
		"leetcode":   {Topics: []model.TopicCount{{Name: "Greedy", Count: 2}, {Name: "dp", Count: 5}}},
		"codeforces": {Topics: []model.TopicCount{{Name: "greedy", Count: 3}, {Name: "dp", Count: 1}}},
		"atcoder":    {Topics: []model.TopicCount{}},
	}

	assert.Equal(t, []model.TopicCount{
		{Name: "dp", Count: 6},
		{Name: "greedy", Count: 3},
		{Name: "Greedy", Count: 2},
	}, MergeTopics(profiles))
}
