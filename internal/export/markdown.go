package export

import (
	"bytes"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"flowlog/internal/journal"
)

const (
	DefaultHeading  = "Flow Journal"
	DateLabelLayout = "2006/1/2"

	sectionMarker = "## "
	entryTrailer  = "\n\n---\n"
)

type Options struct {
	Heading  string
	Location *time.Location
}

var mdRenderer = goldmark.New(goldmark.WithExtensions(extension.Linkify))

// Markdown renders entries as one document: a heading, then one
// "## <date>" section per entry closed by a horizontal rule.
func Markdown(entries []journal.Entry, opts Options) string {
	heading := strings.TrimSpace(opts.Heading)
	if heading == "" {
		heading = DefaultHeading
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	blocks := make([]string, 0, len(entries))
	for _, entry := range entries {
		label := entry.Date.In(loc).Format(DateLabelLayout)
		blocks = append(blocks, sectionMarker+label+"\n\n"+entry.Content+entryTrailer)
	}
	return "# " + heading + "\n\n" + strings.Join(blocks, "\n")
}

// ParseMarkdown reads a document produced by Markdown. Date labels are
// dropped; every entry gets a fresh id and is dated now. Timestamps step back
// one millisecond per section so newest-first document order is kept.
func ParseMarkdown(doc string, now time.Time) []journal.Entry {
	var entries []journal.Entry
	for _, section := range sections(doc) {
		_, body, ok := strings.Cut(section, "\n")
		if !ok {
			continue
		}
		body = strings.TrimPrefix(body, "\n")
		if strings.HasSuffix(body, entryTrailer) {
			body = strings.TrimSuffix(body, entryTrailer)
		} else {
			body = strings.TrimSuffix(body, "\n---\n")
			body = strings.TrimRight(body, "\n")
		}
		stamp := now.Add(-time.Duration(len(entries)) * time.Millisecond)
		entries = append(entries, journal.NewEntry(now, body, stamp))
	}
	return entries
}

// sections splits doc into "## " sections, label line first. Documents that
// carry entry trailers are split only where a trailer is followed by a new
// marker, so content lines starting with "## " survive. Anything before the
// first marker is the document heading.
func sections(doc string) []string {
	if !strings.Contains(doc, entryTrailer) {
		return lineSections(doc)
	}
	rest := doc
	if !strings.HasPrefix(rest, sectionMarker) {
		i := strings.Index(rest, "\n"+sectionMarker)
		if i < 0 {
			return nil
		}
		rest = rest[i+1:]
	}
	rest = rest[len(sectionMarker):]
	sep := entryTrailer + "\n" + sectionMarker
	var out []string
	for {
		i := strings.Index(rest, sep)
		if i < 0 {
			return append(out, rest)
		}
		out = append(out, rest[:i+len(entryTrailer)])
		rest = rest[i+len(sep):]
	}
}

func lineSections(doc string) []string {
	var (
		out []string
		cur *strings.Builder
	)
	for _, line := range strings.SplitAfter(doc, "\n") {
		if strings.HasPrefix(line, sectionMarker) {
			if cur != nil {
				out = append(out, cur.String())
			}
			cur = &strings.Builder{}
			cur.WriteString(strings.TrimPrefix(line, sectionMarker))
			continue
		}
		if cur != nil {
			cur.WriteString(line)
		}
	}
	if cur != nil {
		out = append(out, cur.String())
	}
	return out
}

// HTML renders an exported document for preview.
func HTML(doc string) (string, error) {
	var b bytes.Buffer
	if err := mdRenderer.Convert([]byte(doc), &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
