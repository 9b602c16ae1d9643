package web

import (
	"testing"
	"time"

	"flowlog/internal/store"
)

func TestBuildCalendarMonth(t *testing.T) {
	now := time.Date(2024, 3, 14, 9, 0, 0, 0, time.UTC)
	month := buildCalendarMonth(now, []store.DaySummary{
		{Day: "2024-03-01", Count: 2},
		{Day: "2024-03-14", Count: 1},
	}, "2024-03-14")

	if month.Label != "March 2024" {
		t.Fatalf("unexpected label %q", month.Label)
	}
	// March 2024 starts on a Friday and ends on a Sunday.
	if len(month.Weeks) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(month.Weeks))
	}
	first := month.Weeks[0].Days[0]
	if first.Date != "2024-02-25" || first.InMonth {
		t.Fatalf("expected grid to start on Sunday 2024-02-25, got %+v", first)
	}
	last := month.Weeks[len(month.Weeks)-1].Days[6]
	if last.Date != "2024-04-06" {
		t.Fatalf("expected grid to end on 2024-04-06, got %s", last.Date)
	}

	days := map[string]CalendarDay{}
	for _, week := range month.Weeks {
		if len(week.Days) != 7 {
			t.Fatalf("expected full weeks, got %d days", len(week.Days))
		}
		for _, d := range week.Days {
			days[d.Date] = d
		}
	}
	if d := days["2024-03-01"]; d.EntryCount != 2 || d.URL != "/?d=2024-03-01" || d.Active {
		t.Fatalf("unexpected day with entries %+v", d)
	}
	if d := days["2024-03-14"]; !d.Active || d.URL != "/" {
		t.Fatalf("expected active day to clear the filter, got %+v", d)
	}
	if d := days["2024-03-02"]; d.URL != "" || d.EntryCount != 0 {
		t.Fatalf("expected empty day without link, got %+v", d)
	}
}
