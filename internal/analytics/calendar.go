package analytics

import (
	"sort"
	"time"

	"github.com/sakif/student-dashboard/internal/model"
)

// MergeCalendars sums the counts of every calendar per date. It never
// mutates its inputs, and the result does not depend on argument order.
// Non-positive counts are dropped.
func MergeCalendars(calendars ...model.ActivityCalendar) model.ActivityCalendar {
	merged := model.ActivityCalendar{}
	for _, cal := range calendars {
		for date, n := range cal {
			if n <= 0 {
				continue
			}
			merged[date] += n
		}
	}
	return merged
}

// activeDates returns the calendar's dates with a positive count, oldest first.
func activeDates(cal model.ActivityCalendar) []time.Time {
	dates := make([]time.Time, 0, len(cal))
	for key, n := range cal {
		if n <= 0 {
			continue
		}
		d, err := time.Parse(model.CalendarDateLayout, key)
		if err != nil {
			continue
		}
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
