package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"flowlog/internal/journal"
)

// handleAPIJournal lists every entry on GET and upserts a batch on POST.
func (s *Server) handleAPIJournal(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		entries, err := s.store.Entries(r.Context())
		if err != nil {
			slog.Error("api list entries", "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read entries"})
			return
		}
		if entries == nil {
			entries = []journal.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
		var payload []apiEntry
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid JSON payload"})
			return
		}
		entries := make([]journal.Entry, 0, len(payload))
		for _, in := range payload {
			if in.ID == "" {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Entry id required"})
				return
			}
			entry, err := in.entry(s.cfg.Location)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			entries = append(entries, entry)
		}
		if err := s.store.Save(r.Context(), entries); err != nil {
			slog.Error("api save entries", "count", len(entries), "err", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save entries"})
			return
		}
		slog.Info("api entries saved", "count", len(entries))
		writeJSON(w, http.StatusOK, map[string]string{"message": "Entries saved successfully"})
	default:
		w.Header().Set("Allow", "GET, POST")
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	}
}

// apiEntry is the POST shape of an entry. Dates may be full instants or bare
// calendar days.
type apiEntry struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (in apiEntry) entry(loc *time.Location) (journal.Entry, error) {
	entry := journal.Entry{ID: in.ID, Content: in.Content}
	var err error
	if in.Date != "" {
		if entry.Date, err = journal.ParseTime(in.Date, loc); err != nil {
			return journal.Entry{}, fmt.Errorf("entry %s: date: %w", in.ID, err)
		}
	}
	if in.Timestamp != "" {
		if entry.Timestamp, err = journal.ParseTime(in.Timestamp, loc); err != nil {
			return journal.Entry{}, fmt.Errorf("entry %s: timestamp: %w", in.ID, err)
		}
	}
	return entry, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("write json", "err", err)
	}
}
