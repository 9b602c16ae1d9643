package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"flowlog/internal/content"
	"flowlog/internal/journal"
)

var (
	ErrNotFound   = errors.New("entry not found")
	ErrInvalidDay = errors.New("invalid day")
)

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration
	loc         *time.Location
}

type Options struct {
	BusyTimeout time.Duration
	LockTimeout time.Duration
	// Location decides which calendar day an entry date falls on.
	Location *time.Location
}

type TitleSummary struct {
	Name  string
	Count int
}

type DaySummary struct {
	Day   string
	Count int
}

func Open(path string, opts Options) (*Store, error) {
	dsn := "file:" + path
	if opts.BusyTimeout > 0 {
		dsn += fmt.Sprintf("?_busy_timeout=%d", opts.BusyTimeout.Milliseconds())
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// a single connection keeps writers from tripping over each other
	db.SetMaxOpenConns(1)
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Store{db: db, lockTimeout: opts.LockTimeout, loc: loc}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Location() *time.Location {
	return s.loc
}

func (s *Store) Init(ctx context.Context) error {
	if _, err := s.execContext(ctx, s.db, schemaSQL); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	dayLoc, err := s.meta(ctx, metaDayLocation)
	if err != nil {
		return err
	}
	switch {
	case version != schemaVersion:
		slog.Info("schema version changed, rebuilding derived data", "from", version, "to", schemaVersion)
	case dayLoc != s.loc.String():
		slog.Info("day location changed, rebuilding derived data", "from", dayLoc, "to", s.loc.String())
	default:
		return nil
	}
	if err := s.rebuildDerived(ctx); err != nil {
		return err
	}
	if err := s.setSchemaVersion(ctx, schemaVersion); err != nil {
		return err
	}
	return s.setMeta(ctx, metaDayLocation, s.loc.String())
}

func (s *Store) meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key=?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return v, nil
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	return s.inTx(ctx, "meta", func(tx *sql.Tx) error {
		_, err := s.execContext(ctx, tx, "INSERT OR REPLACE INTO meta(key, value) VALUES(?, ?)", key, value)
		return err
	})
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	return s.inTx(ctx, "schema_version", func(tx *sql.Tx) error {
		if _, err := s.execContext(ctx, tx, "DELETE FROM schema_version"); err != nil {
			return err
		}
		_, err := s.execContext(ctx, tx, "INSERT INTO schema_version(version) VALUES(?)", v)
		return err
	})
}

// rebuildDerived recomputes the day column and the link table from content.
func (s *Store) rebuildDerived(ctx context.Context) error {
	entries, err := s.Entries(ctx)
	if err != nil {
		return err
	}
	return s.inTx(ctx, "rebuild", func(tx *sql.Tx) error {
		if _, err := s.execContext(ctx, tx, "DELETE FROM entry_links"); err != nil {
			return err
		}
		for _, entry := range entries {
			if err := s.upsert(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Add(ctx context.Context, entry journal.Entry) error {
	if strings.TrimSpace(entry.ID) == "" {
		return fmt.Errorf("add entry: id required")
	}
	err := s.inTx(ctx, "add", func(tx *sql.Tx) error {
		return s.upsert(ctx, tx, entry)
	})
	if err != nil {
		return fmt.Errorf("add entry: %w", err)
	}
	return nil
}

// Save writes entries with INSERT OR REPLACE semantics in one transaction.
func (s *Store) Save(ctx context.Context, entries []journal.Entry) error {
	err := s.inTx(ctx, "save", func(tx *sql.Tx) error {
		for _, entry := range entries {
			if strings.TrimSpace(entry.ID) == "" {
				return fmt.Errorf("entry id required")
			}
			if err := s.upsert(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save entries: %w", err)
	}
	return nil
}

// ReplaceAll rewrites the whole collection.
func (s *Store) ReplaceAll(ctx context.Context, entries []journal.Entry) error {
	err := s.inTx(ctx, "replace_all", func(tx *sql.Tx) error {
		for _, stmt := range []string{"DELETE FROM entry_links", "DELETE FROM journal_entries"} {
			if _, err := s.execContext(ctx, tx, stmt); err != nil {
				return err
			}
		}
		for _, entry := range entries {
			if err := s.upsert(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("replace entries: %w", err)
	}
	return nil
}

func (s *Store) upsert(ctx context.Context, tx *sql.Tx, entry journal.Entry) error {
	_, err := s.execContext(ctx, tx, `
		INSERT OR REPLACE INTO journal_entries(id, date, day, content, timestamp)
		VALUES(?, ?, ?, ?, ?)`,
		entry.ID,
		formatTime(entry.Date),
		s.dayKey(entry),
		entry.Content,
		formatTime(entry.Timestamp),
	)
	if err != nil {
		return err
	}
	if _, err := s.execContext(ctx, tx, "DELETE FROM entry_links WHERE entry_id=?", entry.ID); err != nil {
		return err
	}
	for _, title := range content.WikiLinks(entry.Content) {
		if title == "" {
			continue
		}
		if _, err := s.execContext(ctx, tx, "INSERT OR IGNORE INTO entry_links(entry_id, title) VALUES(?, ?)", entry.ID, title); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Entries(ctx context.Context) ([]journal.Entry, error) {
	return s.queryEntries(ctx, "SELECT id, date, content, timestamp FROM journal_entries ORDER BY timestamp DESC, id ASC")
}

func (s *Store) EntriesOn(ctx context.Context, day string) ([]journal.Entry, error) {
	if _, err := time.Parse(journal.DayLayout, day); err != nil {
		return nil, fmt.Errorf("%w %q: want %s", ErrInvalidDay, day, journal.DayLayout)
	}
	return s.queryEntries(ctx, "SELECT id, date, content, timestamp FROM journal_entries WHERE day=? ORDER BY timestamp DESC, id ASC", day)
}

func (s *Store) Entry(ctx context.Context, id string) (journal.Entry, error) {
	entries, err := s.queryEntries(ctx, "SELECT id, date, content, timestamp FROM journal_entries WHERE id=?", id)
	if err != nil {
		return journal.Entry{}, err
	}
	if len(entries) == 0 {
		return journal.Entry{}, ErrNotFound
	}
	return entries[0], nil
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]journal.Entry, error) {
	rows, err := s.queryContext(ctx, s.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var (
			e         journal.Entry
			date      sql.NullString
			timestamp sql.NullString
		)
		if err := rows.Scan(&e.ID, &date, &e.Content, &timestamp); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Date = parseTime(date.String)
		e.Timestamp = parseTime(timestamp.String)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Titles lists referenced titles with the number of entries using them.
func (s *Store) Titles(ctx context.Context, limit int) ([]TitleSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.queryContext(ctx, s.db, `
		SELECT title, COUNT(*) AS refs
		FROM entry_links
		GROUP BY title
		ORDER BY refs DESC, title ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer rows.Close()

	var titles []TitleSummary
	for rows.Next() {
		var t TitleSummary
		if err := rows.Scan(&t.Name, &t.Count); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

// Days lists the most recent days that have entries.
func (s *Store) Days(ctx context.Context, limit int) ([]DaySummary, error) {
	if limit <= 0 {
		limit = 60
	}
	rows, err := s.queryContext(ctx, s.db, `
		SELECT day, COUNT(*)
		FROM journal_entries
		WHERE day <> ''
		GROUP BY day
		ORDER BY day DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var days []DaySummary
	for rows.Next() {
		var d DaySummary
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

func (s *Store) dayKey(entry journal.Entry) string {
	if entry.Date.IsZero() {
		return ""
	}
	return entry.DayKey(s.loc)
}

// Fixed width so that text ordering in SQL matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := journal.ParseTime(raw, time.UTC)
	if err != nil {
		slog.Warn("unparseable stored time", "value", raw)
		return time.Time{}
	}
	return t
}
