package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DBPath        string
	ListenAddr    string
	DBBusyTimeout time.Duration
	DBLockTimeout time.Duration
	Location      *time.Location
	ExportHeading string
	// DayLimit bounds the calendar and title sidebars.
	DayLimit int
}

func Load() Config {
	if err := loadEnvFile(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load env file", "path", envFileName, "err", err)
	}
	cfg := Config{
		DBPath:        envOr("FLOWLOG_DB_PATH", "journal.db"),
		ListenAddr:    envOr("FLOWLOG_LISTEN_ADDR", "127.0.0.1:8080"),
		ExportHeading: envOr("FLOWLOG_EXPORT_HEADING", "Flow Journal"),
	}

	cfg.DBBusyTimeout = parseDurationOr("FLOWLOG_DB_BUSY_TIMEOUT", 5*time.Second)
	cfg.DBLockTimeout = parseDurationOr("FLOWLOG_DB_LOCK_TIMEOUT", 5*time.Second)
	cfg.DayLimit = parseIntOr("FLOWLOG_DAY_LIMIT", 60)
	cfg.Location = parseLocationOr("FLOWLOG_TIMEZONE", time.Local)
	return cfg
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", key, "value", v, "default", fallback.String())
	}
	return fallback
}

func parseIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return i
		}
		slog.Warn("invalid integer, using default", "key", key, "value", v, "default", fallback)
	}
	return fallback
}

func parseLocationOr(key string, fallback *time.Location) *time.Location {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		loc, err := time.LoadLocation(v)
		if err == nil {
			return loc
		}
		slog.Warn("invalid timezone, using default", "key", key, "value", v, "err", err)
	}
	return fallback
}
