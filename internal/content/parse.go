package content

import (
	"regexp"
	"strings"
)

type Kind int

const (
	Plain Kind = iota
	Link
	Code
	WikiLink
)

func (k Kind) String() string {
	switch k {
	case Link:
		return "link"
	case Code:
		return "code"
	case WikiLink:
		return "wikilink"
	default:
		return "plain"
	}
}

// Segment is one contiguous span of entry text.
// Text carries the plain text, the code body or the wiki-link title.
// URL and Label are set for links only.
type Segment struct {
	Kind  Kind
	Text  string
	URL   string
	Label string
}

// Source returns the input span the segment was cut from.
func (s Segment) Source() string {
	switch s.Kind {
	case Link:
		return s.URL
	case Code:
		return "`" + s.Text + "`"
	case WikiLink:
		return "[[" + s.Text + "]]"
	default:
		return s.Text
	}
}

var (
	wikiLinkRe   = regexp.MustCompile(`\[\[(.*?)\]\]`)
	inlineCodeRe = regexp.MustCompile("`([^`]+)`")
	urlRe        = regexp.MustCompile(`https?://[^\s\p{Z}\x{FEFF}]+`)
)

type layer struct {
	re   *regexp.Regexp
	make func(match string, group string) Segment
}

// Layers in precedence order. A layer only sees the gaps left by the layers
// before it.
var layers = []layer{
	{re: wikiLinkRe, make: func(_ string, title string) Segment {
		return Segment{Kind: WikiLink, Text: title}
	}},
	{re: inlineCodeRe, make: func(_ string, code string) Segment {
		return Segment{Kind: Code, Text: code}
	}},
	{re: urlRe, make: func(url string, _ string) Segment {
		return Segment{Kind: Link, URL: url, Label: url}
	}},
}

func Parse(input string) []Segment {
	if input == "" {
		return nil
	}
	return scan(input, layers, nil)
}

func scan(text string, rest []layer, out []Segment) []Segment {
	if text == "" {
		return out
	}
	if len(rest) == 0 {
		return appendPlain(out, text)
	}
	current := rest[0]
	last := 0
	for _, loc := range current.re.FindAllStringSubmatchIndex(text, -1) {
		if loc[0] > last {
			out = scan(text[last:loc[0]], rest[1:], out)
		}
		group := ""
		if len(loc) >= 4 && loc[2] >= 0 {
			group = text[loc[2]:loc[3]]
		}
		out = append(out, current.make(text[loc[0]:loc[1]], group))
		last = loc[1]
	}
	if last < len(text) {
		out = scan(text[last:], rest[1:], out)
	}
	return out
}

func appendPlain(out []Segment, text string) []Segment {
	if n := len(out); n > 0 && out[n-1].Kind == Plain {
		out[n-1].Text += text
		return out
	}
	return append(out, Segment{Kind: Plain, Text: text})
}

// WikiLinks returns every wiki-link title in input, in order, duplicates kept.
func WikiLinks(input string) []string {
	matches := wikiLinkRe.FindAllStringSubmatch(input, -1)
	if len(matches) == 0 {
		return nil
	}
	titles := make([]string, 0, len(matches))
	for _, m := range matches {
		titles = append(titles, m[1])
	}
	return titles
}

// Reference is the literal markup that links to title.
func Reference(title string) string {
	return "[[" + title + "]]"
}

// PlainText joins the display text of segments, markup removed.
func PlainText(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case Link:
			b.WriteString(seg.Label)
		default:
			b.WriteString(seg.Text)
		}
	}
	return b.String()
}
