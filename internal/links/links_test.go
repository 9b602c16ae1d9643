package links

import (
	"reflect"
	"testing"

	"flowlog/internal/journal"
)

func entries(contents ...string) []journal.Entry {
	out := make([]journal.Entry, 0, len(contents))
	for i, c := range contents {
		out = append(out, journal.Entry{ID: string(rune('a' + i)), Content: c})
	}
	return out
}

func ids(list []journal.Entry) []string {
	var out []string
	for _, e := range list {
		out = append(out, e.ID)
	}
	return out
}

func TestRelatedEntriesAndBacklinkTitles(t *testing.T) {
	all := entries("refs [[A]]", "about [[B]] and [[A]]", "unrelated")

	related := RelatedEntries(all, "A")
	if got := ids(related); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("expected entries a and b, got %v", got)
	}
	titles := BacklinkTitles(related, "A")
	if !reflect.DeepEqual(titles, []string{"B"}) {
		t.Fatalf("expected [B], got %v", titles)
	}
}

func TestRelatedEntriesEmptyCollection(t *testing.T) {
	for _, title := range []string{"", "A", "anything"} {
		if got := RelatedEntries(nil, title); len(got) != 0 {
			t.Fatalf("expected no entries for %q, got %v", title, got)
		}
	}
}

func TestRelatedEntriesIsCaseSensitiveAndExact(t *testing.T) {
	all := entries("[[a]]", "[[A ]]", "[[A]]", "[[AB]]")
	if got := ids(RelatedEntries(all, "A")); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("expected only exact match c, got %v", got)
	}
}

func TestBacklinkTitlesFirstSeenOrderAndDedup(t *testing.T) {
	related := entries("[[A]] [[C]] [[B]]", "[[B]] [[A]] [[D]] [[C]] [[]]")
	got := BacklinkTitles(related, "A")
	want := []string{"C", "B", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestResolve(t *testing.T) {
	all := entries("[[Go]] with [[Rust]]", "[[Rust]] only", "[[Go]] and [[Zig]]")
	got := Resolve(all, "Go")
	if got.Title != "Go" {
		t.Fatalf("expected title Go, got %q", got.Title)
	}
	if !reflect.DeepEqual(ids(got.Entries), []string{"a", "c"}) {
		t.Fatalf("unexpected entries %v", ids(got.Entries))
	}
	if !reflect.DeepEqual(got.Titles, []string{"Rust", "Zig"}) {
		t.Fatalf("unexpected titles %v", got.Titles)
	}
}

func TestIndexMatchesResolve(t *testing.T) {
	all := entries(
		"refs [[A]]",
		"about [[B]] and [[A]]",
		"unrelated",
		"[[x [[A]] overlapping opener",
		"[[[A]]] triple brackets",
		"[[A[[B]]C]] nested",
		"code `[[B]]` still counts",
		"[[]] empty",
		"[[a]b]] bracket title",
	)
	idx := NewIndex(all)
	for _, title := range []string{"A", "B", "x [[A", "[A", "A[[B", "", "a]b", "missing"} {
		want := Resolve(all, title)
		got := idx.Backlinks(title)
		if !reflect.DeepEqual(ids(got.Entries), ids(want.Entries)) {
			t.Fatalf("%q: index entries %v, resolve entries %v", title, ids(got.Entries), ids(want.Entries))
		}
		if !reflect.DeepEqual(got.Titles, want.Titles) {
			t.Fatalf("%q: index titles %v, resolve titles %v", title, got.Titles, want.Titles)
		}
	}
}

func TestIndexTitles(t *testing.T) {
	idx := NewIndex(entries("[[B]] [[A]]", "[[A]] [[]]"))
	if got := idx.Titles(); !reflect.DeepEqual(got, []string{"A", "B"}) {
		t.Fatalf("expected [A B], got %v", got)
	}
}
