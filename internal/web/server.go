package web

import (
	"context"
	"net/http"
	"time"

	"flowlog/internal/config"
	"flowlog/internal/journal"
	"flowlog/internal/store"
)

// EntryStore is the persistence the server reads from and writes to.
type EntryStore interface {
	Add(ctx context.Context, entry journal.Entry) error
	Save(ctx context.Context, entries []journal.Entry) error
	Entries(ctx context.Context) ([]journal.Entry, error)
	EntriesOn(ctx context.Context, day string) ([]journal.Entry, error)
	Titles(ctx context.Context, limit int) ([]store.TitleSummary, error)
	Days(ctx context.Context, limit int) ([]store.DaySummary, error)
}

type Server struct {
	cfg    config.Config
	store  EntryStore
	mux    *http.ServeMux
	views  *Templates
	toasts *toastStore
	now    func() time.Time
}

func NewServer(cfg config.Config, st EntryStore) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.DayLimit <= 0 {
		cfg.DayLimit = 60
	}
	s := &Server{
		cfg:    cfg,
		store:  st,
		mux:    http.NewServeMux(),
		views:  MustParseTemplates(),
		toasts: newToastStore(),
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return logRequests(withSession(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/entries", s.handleAddEntry)
	s.mux.HandleFunc("/entries/", s.handleTitle)
	s.mux.HandleFunc("/export.md", s.handleExportMarkdown)
	s.mux.HandleFunc("/export.html", s.handleExportPreview)
	s.mux.HandleFunc("/import", s.handleImport)
	s.mux.HandleFunc("/api/journal", s.handleAPIJournal)
	s.mux.HandleFunc("/static/highlight.css", s.handleHighlightCSS)
}
