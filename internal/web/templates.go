package web

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"flowlog/internal/render"
)

// Templates holds the page layouts. Every page renders its content template
// first and is then wrapped by "base".
type Templates struct {
	all *template.Template
}

// templateDir prefers FLOWLOG_TEMPLATE_DIR and falls back to the templates
// directory of the source tree.
func templateDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("FLOWLOG_TEMPLATE_DIR")); dir != "" {
		return dir, nil
	}
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("unable to resolve template path")
	}
	return filepath.Join(filepath.Dir(file), "..", "..", "templates"), nil
}

func ParseTemplates() (*Templates, error) {
	dir, err := templateDir()
	if err != nil {
		return nil, err
	}
	t := template.New("").Funcs(template.FuncMap{
		"entryURL": render.EntryURL,
	})
	t, err = t.ParseGlob(filepath.Join(filepath.Clean(dir), "*.html"))
	if err != nil {
		return nil, fmt.Errorf("parse templates in %s: %w", dir, err)
	}
	for _, name := range []string{"base", "home", "entry", "export"} {
		if t.Lookup(name) == nil {
			return nil, fmt.Errorf("template %q missing from %s", name, dir)
		}
	}
	return &Templates{all: t}, nil
}

func MustParseTemplates() *Templates {
	t, err := ParseTemplates()
	if err != nil {
		panic(err)
	}
	return t
}

// RenderPage writes nothing until both passes succeed, so a template error
// still produces a clean 500.
func (t *Templates) RenderPage(w http.ResponseWriter, data ViewData) {
	var content bytes.Buffer
	if err := t.all.ExecuteTemplate(&content, data.ContentTemplate, data); err != nil {
		slog.Error("render template", "template", data.ContentTemplate, "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	data.ContentHTML = template.HTML(content.String())

	var page bytes.Buffer
	if err := t.all.ExecuteTemplate(&page, "base", data); err != nil {
		slog.Error("render template", "template", "base", "err", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = page.WriteTo(w)
}
