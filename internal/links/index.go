package links

import (
	"sort"
	"strings"

	"flowlog/internal/content"
	"flowlog/internal/journal"
)

// Index maps titles to the positions of the entries referencing them, so a
// fixed snapshot can be queried for many titles without a rescan per title.
// Results match RelatedEntries and BacklinkTitles on the same snapshot.
type Index struct {
	entries []journal.Entry
	links   [][]string
	refs    map[string][]int
}

func NewIndex(all []journal.Entry) *Index {
	idx := &Index{
		entries: all,
		links:   make([][]string, len(all)),
		refs:    make(map[string][]int),
	}
	for i, entry := range all {
		idx.links[i] = content.WikiLinks(entry.Content)
		seen := make(map[string]bool)
		for _, ref := range references(entry.Content) {
			if seen[ref] {
				continue
			}
			seen[ref] = true
			idx.refs[ref] = append(idx.refs[ref], i)
		}
	}
	return idx
}

// references lists the text between every "[[" and the first "]]" after it.
// Unlike the wiki-link scan, overlapping openers are all visited, which makes
// the key set agree with a substring search for titles without ']'.
func references(s string) []string {
	var out []string
	for i := 0; i < len(s); {
		start := strings.Index(s[i:], "[[")
		if start < 0 {
			break
		}
		start += i
		end := strings.Index(s[start+2:], "]]")
		if end < 0 {
			break
		}
		out = append(out, s[start+2:start+2+end])
		i = start + 1
	}
	return out
}

func (idx *Index) Related(title string) []journal.Entry {
	if strings.Contains(title, "]") {
		return RelatedEntries(idx.entries, title)
	}
	positions := idx.refs[title]
	if len(positions) == 0 {
		return nil
	}
	out := make([]journal.Entry, 0, len(positions))
	for _, i := range positions {
		out = append(out, idx.entries[i])
	}
	return out
}

func (idx *Index) Backlinks(title string) Backlinks {
	related := idx.Related(title)
	if strings.Contains(title, "]") {
		return Backlinks{Title: title, Entries: related, Titles: BacklinkTitles(related, title)}
	}
	var titles []string
	seen := map[string]bool{title: true, "": true}
	for _, i := range idx.refs[title] {
		for _, t := range idx.links[i] {
			if seen[t] {
				continue
			}
			seen[t] = true
			titles = append(titles, t)
		}
	}
	return Backlinks{Title: title, Entries: related, Titles: titles}
}

// Titles lists every wiki-link title in the snapshot, sorted.
func (idx *Index) Titles() []string {
	set := make(map[string]struct{})
	for _, titles := range idx.links {
		for _, t := range titles {
			if t != "" {
				set[t] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
