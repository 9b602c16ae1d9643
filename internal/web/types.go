package web

import (
	"html/template"

	"flowlog/internal/store"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	Toasts          []Toast

	Today     string
	Order     string
	ActiveDay string
	Days      []DayView
	Calendar  CalendarMonth
	Titles    []store.TitleSummary

	EntryTitle string
	Related    []EntryView
	Backlinks  []BacklinkView

	ExportHTML template.HTML
}

type DayView struct {
	Key     string
	Label   string
	Entries []EntryView
}

type EntryView struct {
	ID        string
	DateLabel string
	TimeLabel string
	HTML      template.HTML
}

type BacklinkView struct {
	Title string
	URL   string
}
