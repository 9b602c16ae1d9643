package links

import (
	"strings"

	"flowlog/internal/content"
	"flowlog/internal/journal"
)

type Backlinks struct {
	Title   string
	Entries []journal.Entry
	Titles  []string
}

// RelatedEntries keeps the entries whose content contains [[title]] verbatim.
func RelatedEntries(all []journal.Entry, title string) []journal.Entry {
	ref := content.Reference(title)
	var out []journal.Entry
	for _, entry := range all {
		if strings.Contains(entry.Content, ref) {
			out = append(out, entry)
		}
	}
	return out
}

// BacklinkTitles collects the wiki-link titles used by related, first seen
// first. The excluded title and the empty title are never reported.
func BacklinkTitles(related []journal.Entry, exclude string) []string {
	var titles []string
	seen := map[string]bool{exclude: true, "": true}
	for _, entry := range related {
		for _, title := range content.WikiLinks(entry.Content) {
			if seen[title] {
				continue
			}
			seen[title] = true
			titles = append(titles, title)
		}
	}
	return titles
}

func Resolve(all []journal.Entry, title string) Backlinks {
	related := RelatedEntries(all, title)
	return Backlinks{
		Title:   title,
		Entries: related,
		Titles:  BacklinkTitles(related, title),
	}
}
