package analytics

import (
	"time"

	"github.com/sakif/student-dashboard/internal/model"
	"github.com/sakif/student-dashboard/internal/platform"
)

const day = 24 * time.Hour

// ComputeStats derives the dashboard totals from the successful profiles and
// the merged calendar. today anchors the current streak: it counts only if it
// ends today or yesterday (UTC).
func ComputeStats(profiles map[string]*model.PlatformProfile, cal model.ActivityCalendar, today time.Time) model.Stats {
	var s model.Stats
	for _, p := range profiles {
		s.TotalSolved += p.TotalSolved
		s.DifficultyBreakdown.Easy += p.DifficultyBreakdown.Easy
		s.DifficultyBreakdown.Medium += p.DifficultyBreakdown.Medium
		s.DifficultyBreakdown.Hard += p.DifficultyBreakdown.Hard
	}

	for _, n := range cal {
		if n <= 0 {
			continue
		}
		s.TotalSubmissions += n
		s.ActiveDays++
		s.MaxDailySubmissions = max(s.MaxDailySubmissions, n)
	}

	dates := activeDates(cal)
	run := 0
	for i, d := range dates {
		if i > 0 && d.Sub(dates[i-1]) == day {
			run++
		} else {
			run = 1
		}
		s.LongestStreak = max(s.LongestStreak, run)
	}

	if len(dates) > 0 {
		todayUTC := truncateDay(today)
		last := dates[len(dates)-1]
		if gap := todayUTC.Sub(last); gap == 0 || gap == day {
			s.CurrentStreak = run
		}
	}
	return s
}

// MergeTopics sums topic counts by name across profiles.
func MergeTopics(profiles map[string]*model.PlatformProfile) []model.TopicCount {
	counts := make(map[string]int)
	for _, p := range profiles {
		for _, t := range p.Topics {
			counts[t.Name] += t.Count
		}
	}
	return platform.SortedTopics(counts)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
