package journal

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

const DayLayout = "2006-01-02"

type Entry struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseTime accepts an RFC 3339 instant or a bare calendar day. A bare day is
// midnight in loc.
func ParseTime(raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(DayLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339 or %s", raw, DayLayout)
	}
	return t, nil
}

type Day struct {
	Key     string
	Date    time.Time
	Entries []Entry
}

func NewEntry(date time.Time, content string, now time.Time) Entry {
	return Entry{
		ID:        uuid.New().String(),
		Date:      date,
		Content:   content,
		Timestamp: now,
	}
}

// DayKey is the calendar day an entry belongs to, in loc.
func (e Entry) DayKey(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return e.Date.In(loc).Format(DayLayout)
}

func Sort(entries []Entry, ascending bool) {
	sort.SliceStable(entries, func(i, j int) bool {
		if ascending {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}

// GroupByDay sorts a copy of entries by timestamp and buckets them by Date.
// Days keep the order in which they are first seen in the sorted list.
func GroupByDay(entries []Entry, ascending bool, loc *time.Location) []Day {
	if len(entries) == 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	Sort(sorted, ascending)

	var days []Day
	pos := make(map[string]int)
	for _, entry := range sorted {
		key := entry.DayKey(loc)
		i, ok := pos[key]
		if !ok {
			local := entry.Date.In(loc)
			days = append(days, Day{
				Key:  key,
				Date: time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
			})
			i = len(days) - 1
			pos[key] = i
		}
		days[i].Entries = append(days[i].Entries, entry)
	}
	return days
}

func TitleNote(title, text string) string {
	return "Notes on [[" + title + "]]:\n" + text
}
