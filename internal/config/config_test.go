package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"FLOWLOG_DB_PATH", "FLOWLOG_LISTEN_ADDR", "FLOWLOG_DB_BUSY_TIMEOUT", "FLOWLOG_TIMEZONE", "FLOWLOG_DAY_LIMIT"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.DBPath != "journal.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.ListenAddr != "127.0.0.1:8080" {
		t.Fatalf("expected default listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.DBBusyTimeout != 5*time.Second {
		t.Fatalf("expected default busy timeout, got %v", cfg.DBBusyTimeout)
	}
	if cfg.DayLimit != 60 {
		t.Fatalf("expected default day limit, got %d", cfg.DayLimit)
	}
	if cfg.Location != time.Local {
		t.Fatalf("expected local timezone, got %v", cfg.Location)
	}
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("FLOWLOG_DB_PATH", "/tmp/j.db")
	t.Setenv("FLOWLOG_DB_BUSY_TIMEOUT", "250ms")
	t.Setenv("FLOWLOG_DAY_LIMIT", "-3")
	t.Setenv("FLOWLOG_TIMEZONE", "UTC")
	cfg := Load()
	if cfg.DBPath != "/tmp/j.db" {
		t.Fatalf("expected db path from env, got %q", cfg.DBPath)
	}
	if cfg.DBBusyTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %v", cfg.DBBusyTimeout)
	}
	if cfg.DayLimit != 60 {
		t.Fatalf("expected invalid limit to fall back, got %d", cfg.DayLimit)
	}
	if cfg.Location.String() != "UTC" {
		t.Fatalf("expected UTC, got %v", cfg.Location)
	}
}

func TestLoadEnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	data := "# comment\nFLOWLOG_LISTEN_ADDR=\"0.0.0.0:9000\"\nexport FLOWLOG_EXPORT_HEADING=From File\nbroken line\n"
	if err := os.WriteFile(filepath.Join(dir, envFileName), []byte(data), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("FLOWLOG_LISTEN_ADDR", "")
	t.Setenv("FLOWLOG_EXPORT_HEADING", "From Env")

	cfg := Load()
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Fatalf("expected listen addr from .env, got %q", cfg.ListenAddr)
	}
	if cfg.ExportHeading != "From Env" {
		t.Fatalf("expected env to win over .env, got %q", cfg.ExportHeading)
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
