package render

import (
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"flowlog/internal/content"
)

const (
	wikiLinkClass = "wikilink"
	linkClass     = "external"
	codeClass     = "inline-code chroma"
)

var (
	codeFormatter = chromahtml.New(chromahtml.WithClasses(true), chromahtml.PreventSurroundingPre(true))
	codeStyle     = styles.Get("github")
)

// EntryURL is the page that lists the entries referencing title. "." and ".."
// would be collapsed as dot segments by clients and by ServeMux, so they go in
// the query instead.
func EntryURL(title string) string {
	if title == "." || title == ".." {
		return "/entries/?title=" + url.QueryEscape(title)
	}
	return "/entries/" + url.PathEscape(title) + "/"
}

// Content parses raw entry text and renders it.
func Content(raw string) template.HTML {
	return Segments(content.Parse(raw))
}

func Segments(segments []content.Segment) template.HTML {
	var b strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case content.WikiLink:
			writeWikiLink(&b, seg.Text)
		case content.Link:
			b.WriteString(`<a class="` + linkClass + `" href="`)
			b.WriteString(template.HTMLEscapeString(seg.URL))
			b.WriteString(`" target="_blank" rel="noopener noreferrer">`)
			b.WriteString(template.HTMLEscapeString(seg.Label))
			b.WriteString(`</a>`)
		case content.Code:
			b.WriteString(`<code class="` + codeClass + `">`)
			b.WriteString(highlight(seg.Text))
			b.WriteString(`</code>`)
		default:
			writePlain(&b, seg.Text)
		}
	}
	return template.HTML(b.String())
}

func writeWikiLink(b *strings.Builder, title string) {
	if title == "" {
		b.WriteString("[[]]")
		return
	}
	b.WriteString(`<a class="` + wikiLinkClass + `" href="`)
	b.WriteString(template.HTMLEscapeString(EntryURL(title)))
	b.WriteString(`">`)
	b.WriteString(template.HTMLEscapeString(title))
	b.WriteString(`</a>`)
}

func writePlain(b *strings.Builder, text string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString("<br>\n")
		}
		b.WriteString(template.HTMLEscapeString(line))
	}
}

// highlight tokenises inline code with a guessed lexer. Falls back to
// escaped text when chroma cannot handle it.
func highlight(code string) string {
	lexer := lexers.Analyse(code)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		slog.Debug("inline code tokenise failed", "err", err)
		return template.HTMLEscapeString(code)
	}
	tokens := trimAddedNewline(iterator.Tokens(), code)
	var b strings.Builder
	if err := codeFormatter.Format(&b, codeStyle, chroma.Literator(tokens...)); err != nil {
		slog.Debug("inline code format failed", "err", err)
		return template.HTMLEscapeString(code)
	}
	return b.String()
}

// trimAddedNewline drops the newline lexers append to input that had none.
func trimAddedNewline(tokens []chroma.Token, code string) []chroma.Token {
	n := len(tokens)
	if n == 0 || strings.HasSuffix(code, "\n") || !strings.HasSuffix(tokens[n-1].Value, "\n") {
		return tokens
	}
	tokens[n-1].Value = strings.TrimSuffix(tokens[n-1].Value, "\n")
	if tokens[n-1].Value == "" {
		tokens = tokens[:n-1]
	}
	return tokens
}

// CSS returns the stylesheet for highlighted inline code.
func CSS() string {
	var b strings.Builder
	if err := codeFormatter.WriteCSS(&b, codeStyle); err != nil {
		slog.Warn("write highlight css", "err", err)
		return ""
	}
	return b.String()
}
