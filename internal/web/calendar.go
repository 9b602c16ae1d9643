package web

import (
	"time"

	"flowlog/internal/journal"
	"flowlog/internal/store"
)

type CalendarMonth struct {
	Label string
	Weeks []CalendarWeek
}

type CalendarWeek struct {
	Days []CalendarDay
}

type CalendarDay struct {
	Date       string
	Day        int
	InMonth    bool
	EntryCount int
	URL        string
	Active     bool
}

// buildCalendarMonth lays out the month containing now as full weeks,
// Sunday first. Days with entries link to the day filter, and clicking the
// active day clears it.
func buildCalendarMonth(now time.Time, days []store.DaySummary, activeDate string) CalendarMonth {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)
	counts := make(map[string]int, len(days))
	for _, d := range days {
		counts[d.Day] = d.Count
	}

	offset := int(monthStart.Weekday())
	gridStart := monthStart.AddDate(0, 0, -offset)

	var weeks []CalendarWeek
	var week []CalendarDay
	for day := gridStart; ; day = day.AddDate(0, 0, 1) {
		key := day.Format(journal.DayLayout)
		count := counts[key]
		active := activeDate == key
		url := ""
		if count > 0 || active {
			url = "/?d=" + key
			if active {
				url = "/"
			}
		}
		week = append(week, CalendarDay{
			Date:       key,
			Day:        day.Day(),
			InMonth:    day.Month() == monthStart.Month(),
			EntryCount: count,
			URL:        url,
			Active:     active,
		})
		if len(week) == 7 {
			weeks = append(weeks, CalendarWeek{Days: week})
			week = nil
			if !day.Before(monthEnd) {
				break
			}
		}
	}

	return CalendarMonth{
		Label: monthStart.Format("January 2006"),
		Weeks: weeks,
	}
}
