package web

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"flowlog/internal/export"
	"flowlog/internal/journal"
	"flowlog/internal/links"
	"flowlog/internal/render"
	"flowlog/internal/store"
)

const (
	maxImportBytes  = 10 << 20
	dayLabelLayout  = "January 2, 2006"
	timeLabelLayout = "15:04:05"
)

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx := r.Context()
	loc := s.cfg.Location

	order := "desc"
	if r.URL.Query().Get("order") == "asc" {
		order = "asc"
	}
	activeDay := strings.TrimSpace(r.URL.Query().Get("d"))

	var (
		entries []journal.Entry
		err     error
	)
	if activeDay != "" {
		entries, err = s.store.EntriesOn(ctx, activeDay)
		if errors.Is(err, store.ErrInvalidDay) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			slog.Error("entries on day", "day", activeDay, "err", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	} else {
		entries, err = s.store.Entries(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	titles, err := s.store.Titles(ctx, 30)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	daySummaries, err := s.store.Days(ctx, s.cfg.DayLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	now := s.now().In(loc)
	data := ViewData{
		Title:           "Journal",
		ContentTemplate: "home",
		Toasts:          s.toasts.Take(sessionID(ctx), s.now()),
		Today:           now.Format(journal.DayLayout),
		Order:           order,
		ActiveDay:       activeDay,
		Days:            s.dayViews(journal.GroupByDay(entries, order == "asc", loc)),
		Calendar:        buildCalendarMonth(now, daySummaries, activeDay),
		Titles:          titles,
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body := r.Form.Get("content")
	if strings.TrimSpace(body) == "" {
		http.Error(w, "content required", http.StatusBadRequest)
		return
	}
	now := s.now()
	date := now
	if raw := strings.TrimSpace(r.Form.Get("date")); raw != "" {
		parsed, err := time.ParseInLocation(journal.DayLayout, raw, s.cfg.Location)
		if err != nil {
			http.Error(w, "invalid date", http.StatusBadRequest)
			return
		}
		date = parsed
	}

	entry := journal.NewEntry(date, body, now)
	if err := s.store.Add(r.Context(), entry); err != nil {
		slog.Error("add entry", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("entry added", "id", entry.ID, "day", entry.DayKey(s.cfg.Location))
	s.addToast(r, toastSuccess, "Entry saved")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleTitle serves /entries/<title>/: the entries referencing a title and
// the titles those entries link to.
func (s *Server) handleTitle(w http.ResponseWriter, r *http.Request) {
	title, ok := titleFromPath(r.URL.EscapedPath())
	if !ok && r.URL.Path == "/entries/" {
		title = r.URL.Query().Get("title")
		ok = title != ""
	}
	if !ok {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.handleViewTitle(w, r, title)
	case http.MethodPost:
		s.handleAddTitleNote(w, r, title)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func titleFromPath(escaped string) (string, bool) {
	raw := strings.TrimPrefix(escaped, "/entries/")
	raw = strings.TrimSuffix(raw, "/")
	if raw == "" || strings.Contains(raw, "/") {
		return "", false
	}
	title, err := url.PathUnescape(raw)
	if err != nil || title == "" {
		return "", false
	}
	return title, true
}

func (s *Server) handleViewTitle(w http.ResponseWriter, r *http.Request, title string) {
	all, err := s.store.Entries(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resolved := links.Resolve(all, title)

	backlinks := make([]BacklinkView, 0, len(resolved.Titles))
	for _, t := range resolved.Titles {
		backlinks = append(backlinks, BacklinkView{Title: t, URL: render.EntryURL(t)})
	}
	data := ViewData{
		Title:           title,
		ContentTemplate: "entry",
		Toasts:          s.toasts.Take(sessionID(r.Context()), s.now()),
		EntryTitle:      title,
		Related:         s.entryViews(resolved.Entries),
		Backlinks:       backlinks,
	}
	s.views.RenderPage(w, data)
}

func (s *Server) handleAddTitleNote(w http.ResponseWriter, r *http.Request, title string) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	text := r.Form.Get("content")
	if strings.TrimSpace(text) == "" {
		http.Error(w, "content required", http.StatusBadRequest)
		return
	}
	now := s.now()
	entry := journal.NewEntry(now, journal.TitleNote(title, text), now)
	if err := s.store.Add(r.Context(), entry); err != nil {
		slog.Error("add title note", "title", title, "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.addToast(r, toastSuccess, "Note saved")
	http.Redirect(w, r, render.EntryURL(title), http.StatusSeeOther)
}

func (s *Server) handleExportMarkdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	doc, err := s.exportDocument(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	filename := fmt.Sprintf("flowlog-%s.md", s.now().In(s.cfg.Location).Format(journal.DayLayout))
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = io.WriteString(w, doc)
}

func (s *Server) handleExportPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	doc, err := s.exportDocument(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	htmlStr, err := export.HTML(doc)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data := ViewData{
		Title:           "Export preview",
		ContentTemplate: "export",
		ExportHTML:      template.HTML(htmlStr),
	}
	s.views.RenderPage(w, data)
}

func (s *Server) exportDocument(r *http.Request) (string, error) {
	entries, err := s.store.Entries(r.Context())
	if err != nil {
		return "", err
	}
	return export.Markdown(entries, export.Options{
		Heading:  s.cfg.ExportHeading,
		Location: s.cfg.Location,
	}), nil
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	doc, err := readImportDocument(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	entries := export.ParseMarkdown(doc, s.now())
	if len(entries) == 0 {
		s.addToast(r, toastError, "No entries found in file")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := s.store.Save(r.Context(), entries); err != nil {
		slog.Error("import entries", "count", len(entries), "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	slog.Info("entries imported", "count", len(entries))
	s.addToast(r, toastSuccess, fmt.Sprintf("Imported %d entries", len(entries)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// readImportDocument accepts a multipart "file" upload or a plain
// "markdown" form field.
func readImportDocument(r *http.Request) (string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return "", err
		}
		file, _, err := r.FormFile("file")
		if err == nil {
			defer file.Close()
			data, err := io.ReadAll(file)
			if err != nil {
				return "", err
			}
			return string(data), nil
		}
		if err != http.ErrMissingFile {
			return "", err
		}
	} else if err := r.ParseForm(); err != nil {
		return "", err
	}
	doc := r.FormValue("markdown")
	if strings.TrimSpace(doc) == "" {
		return "", fmt.Errorf("file required")
	}
	return doc, nil
}

func (s *Server) handleHighlightCSS(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = io.WriteString(w, render.CSS())
}

func (s *Server) dayViews(days []journal.Day) []DayView {
	out := make([]DayView, 0, len(days))
	for _, day := range days {
		out = append(out, DayView{
			Key:     day.Key,
			Label:   day.Date.Format(dayLabelLayout),
			Entries: s.entryViews(day.Entries),
		})
	}
	return out
}

func (s *Server) entryViews(entries []journal.Entry) []EntryView {
	out := make([]EntryView, 0, len(entries))
	for _, entry := range entries {
		out = append(out, EntryView{
			ID:        entry.ID,
			DateLabel: entry.Date.In(s.cfg.Location).Format(export.DateLabelLayout),
			TimeLabel: entry.Timestamp.In(s.cfg.Location).Format(timeLabelLayout),
			HTML:      render.Content(entry.Content),
		})
	}
	return out
}
