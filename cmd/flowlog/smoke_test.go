package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"flowlog/internal/journal"
	"flowlog/internal/web"
)

// smokeBaseURL points at E2E_BASE_URL when set, otherwise at an in-process
// server over a fresh database.
func smokeBaseURL(t *testing.T) string {
	t.Helper()
	if base := os.Getenv("E2E_BASE_URL"); base != "" {
		return strings.TrimRight(base, "/")
	}
	dir := t.TempDir()
	a := &app{now: time.Now}
	a.cfg.DBPath = filepath.Join(dir, "journal.db")
	a.cfg.Location = time.UTC
	a.cfg.DayLimit = 60
	a.cfg.ExportHeading = "Flow Journal"
	st, err := a.openStore(context.Background())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(web.NewServer(a.cfg, st).Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

func newSmokeClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &http.Client{Jar: jar, Timeout: 10 * time.Second}
}

func TestJournalSmoke(t *testing.T) {
	baseURL := smokeBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := waitForHTTP(ctx, baseURL); err != nil {
		t.Fatalf("base url not reachable: %v", err)
	}
	client := newSmokeClient(t)

	title := "Smoke " + time.Now().Format("150405.000000000")
	resp, err := client.PostForm(baseURL+"/entries", url.Values{
		"content": {"checking [[" + title + "]] with [[Smoke Partner]]"},
	})
	if err != nil {
		t.Fatalf("post entry: %v", err)
	}
	home := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected redirected home page, got %d", resp.StatusCode)
	}
	if !strings.Contains(home, "Entry saved") || !strings.Contains(home, "Smoke Partner") {
		t.Fatalf("home page missing new entry")
	}

	resp, err = client.Get(baseURL + "/entries/" + url.PathEscape(title) + "/")
	if err != nil {
		t.Fatalf("get title: %v", err)
	}
	page := readBody(t, resp)
	if !strings.Contains(page, `href="/entries/Smoke%20Partner/"`) {
		t.Fatalf("title page missing backlink")
	}

	resp, err = client.Get(baseURL + "/export.md")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if doc := readBody(t, resp); !strings.Contains(doc, "[["+title+"]]") {
		t.Fatalf("export missing entry")
	}

	resp, err = client.Get(baseURL + "/api/journal")
	if err != nil {
		t.Fatalf("api: %v", err)
	}
	var entries []journal.Entry
	if err := json.Unmarshal([]byte(readBody(t, resp)), &entries); err != nil {
		t.Fatalf("decode api: %v", err)
	}
	found := false
	for _, entry := range entries {
		if strings.Contains(entry.Content, "[["+title+"]]") {
			found = true
		}
	}
	if !found {
		t.Fatalf("api missing new entry")
	}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func waitForHTTP(ctx context.Context, rawURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 500 {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}
