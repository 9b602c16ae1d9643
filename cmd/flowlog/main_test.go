package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	color.NoColor = true
	os.Exit(m.Run())
}

func runCLI(t *testing.T, db string, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--db", db}, args...))
	err := root.Execute()
	return out.String(), err
}

func setupCLI(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("FLOWLOG_TIMEZONE", "UTC")
	t.Setenv("FLOWLOG_EXPORT_HEADING", "")
	return filepath.Join(dir, "data", "journal.db")
}

func TestAddListAndLinks(t *testing.T) {
	db := setupCLI(t)
	if _, err := runCLI(t, db, "", "add", "--date", "2024-02-01", "paired", "on", "[[Go]]", "and", "[[Rust]]"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := runCLI(t, db, "", "add", "--date", "2024-02-02", "more [[Go]]"); err != nil {
		t.Fatalf("add: %v", err)
	}

	out, err := runCLI(t, db, "", "list", "--asc")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "== 2024-02-01 ==") || strings.Index(out, "2024-02-01") > strings.Index(out, "2024-02-02") {
		t.Fatalf("unexpected list output:\n%s", out)
	}

	out, err = runCLI(t, db, "", "list", "--day", "2024-02-02")
	if err != nil {
		t.Fatalf("list day: %v", err)
	}
	if strings.Contains(out, "paired") || !strings.Contains(out, "more [[Go]]") {
		t.Fatalf("unexpected day output:\n%s", out)
	}

	out, err = runCLI(t, db, "", "links", "Go")
	if err != nil {
		t.Fatalf("links: %v", err)
	}
	if !strings.Contains(out, "Go: 2 related entries") || !strings.Contains(out, "Links: Rust") {
		t.Fatalf("unexpected links output:\n%s", out)
	}

	out, err = runCLI(t, db, "", "links", "--all")
	if err != nil {
		t.Fatalf("links --all: %v", err)
	}
	rows := map[string][]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			rows[fields[0]] = fields
		}
	}
	if got := strings.Join(rows["Go"], " "); got != "Go 2 Rust" {
		t.Fatalf("unexpected Go row %q in:\n%s", got, out)
	}
	if got := strings.Join(rows["Rust"], " "); got != "Rust 1 Go" {
		t.Fatalf("unexpected Rust row %q in:\n%s", got, out)
	}
}

func TestAddRejectsBadDate(t *testing.T) {
	db := setupCLI(t)
	if _, err := runCLI(t, db, "", "add", "--date", "02/01/2024", "x"); err == nil {
		t.Fatalf("expected error for bad date")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	db := setupCLI(t)
	if _, err := runCLI(t, db, "", "add", "--date", "2024-02-01", "line one\nline `two`"); err != nil {
		t.Fatalf("add: %v", err)
	}

	stdout, err := runCLI(t, db, "", "export")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	want := "# Flow Journal\n\n## 2024/2/1\n\nline one\nline `two`\n\n---\n"
	if stdout != want {
		t.Fatalf("expected %q, got %q", want, stdout)
	}

	file := filepath.Join(t.TempDir(), "out", "journal.md")
	if _, err := runCLI(t, db, "", "export", "-o", file); err != nil {
		t.Fatalf("export to file: %v", err)
	}
	data, err := os.ReadFile(file)
	if err != nil || string(data) != want {
		t.Fatalf("expected file export %q, got %q (%v)", want, data, err)
	}

	other := filepath.Join(t.TempDir(), "other.db")
	out, err := runCLI(t, other, "", "import", file)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 1 entries") {
		t.Fatalf("unexpected import output %q", out)
	}
	today := time.Now().UTC().Format("2006-01-02")
	out, err = runCLI(t, other, "", "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "== "+today+" ==") || !strings.Contains(out, "line `two`") {
		t.Fatalf("unexpected imported list:\n%s", out)
	}

	if _, err := runCLI(t, other, "# nothing here\n", "import", "-"); err == nil {
		t.Fatalf("expected error importing a document without entries")
	}
}

func TestExportHTML(t *testing.T) {
	db := setupCLI(t)
	if _, err := runCLI(t, db, "", "add", "--date", "2024-02-01", "see https://go.dev"); err != nil {
		t.Fatalf("add: %v", err)
	}
	out, err := runCLI(t, db, "", "export", "--html")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "<h1>Flow Journal</h1>") || !strings.Contains(out, `<a href="https://go.dev">`) {
		t.Fatalf("unexpected html export:\n%s", out)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for raw, want := range cases {
		if got := parseLogLevel(raw).Level(); got != want {
			t.Fatalf("%q: expected %v, got %v", raw, want, got)
		}
	}
}

func TestPrettyHandlerWritesAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newPrettyHandler(&buf, slog.LevelInfo)).With("component", "store")
	logger.WithGroup("req").Info("saved", "count", 2)
	logger.Debug("hidden")

	out := buf.String()
	for _, want := range []string{"INFO saved", "  component: store", "  req.count: 2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug record should be filtered")
	}
}

// chdir changes the working directory for the duration of the test,
// equivalent to testing.T.Chdir (Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
