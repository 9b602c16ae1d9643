package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func isSQLiteBusy(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked
	}
	return false
}

// retry runs op until it succeeds, fails with something other than
// SQLITE_BUSY, or the lock timeout runs out.
func (s *Store) retry(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !isSQLiteBusy(err) {
			slog.Debug(op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err)
			return err
		}
		slog.Debug(op+" busy", "attempt", attempt+1, "err", err)
		if s.lockTimeout <= 0 {
			slog.Debug(op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", "no-timeout")
			return err
		}
		if ctx.Err() != nil {
			slog.Debug(op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", ctx.Err(), "reason", "context")
			return ctx.Err()
		}
		if time.Since(start) >= s.lockTimeout {
			slog.Debug(op+" done", "duration_ms", time.Since(start).Milliseconds(), "attempts", attempt+1, "err", err, "reason", "timeout")
			return err
		}
		time.Sleep(retryDelay(attempt))
	}
}

func (s *Store) execContext(ctx context.Context, ex execer, query string, args ...any) (sql.Result, error) {
	slog.Debug("sql exec", "query", query, "args", args)
	var res sql.Result
	err := s.retry(ctx, "sql exec", func() error {
		var err error
		res, err = ex.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

func (s *Store) queryContext(ctx context.Context, q querier, query string, args ...any) (*sql.Rows, error) {
	slog.Debug("sql query", "query", query, "args", args)
	var rows *sql.Rows
	err := s.retry(ctx, "sql query", func() error {
		var err error
		rows, err = q.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

func retryDelay(attempt int) time.Duration {
	delay := time.Duration(attempt+1) * 40 * time.Millisecond
	if delay > 300*time.Millisecond {
		delay = 300 * time.Millisecond
	}
	return delay
}

// inTx runs fn inside a transaction, retrying the whole transaction when
// SQLite reports the database busy.
func (s *Store) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	return s.retry(ctx, "sql tx "+name, func() error {
		start := time.Now()
		slog.Debug("sql tx begin", "op", name)
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			slog.Error("sql tx begin failed", "op", name, "err", err)
			return err
		}
		if err := fn(tx); err != nil {
			s.rollbackTx(tx, name, start)
			return err
		}
		err = tx.Commit()
		slog.Debug("sql tx commit", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return err
	})
}

func (s *Store) rollbackTx(tx *sql.Tx, name string, start time.Time) {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		slog.Warn("sql tx rollback failed", "op", name, "duration_ms", time.Since(start).Milliseconds(), "err", err)
		return
	}
	slog.Debug("sql tx rollback", "op", name, "duration_ms", time.Since(start).Milliseconds())
}
