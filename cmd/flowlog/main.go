package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"flowlog/internal/config"
	"flowlog/internal/export"
	"flowlog/internal/journal"
	"flowlog/internal/links"
	storagefs "flowlog/internal/storage/fs"
	"flowlog/internal/store"
	"flowlog/internal/web"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"
)

func main() {
	closeLog := setupLogging(os.Stderr)
	err := newRootCmd().Execute()
	closeLog()
	if err != nil {
		os.Exit(1)
	}
}

type app struct {
	cfg    config.Config
	dbPath string
	listen string
	now    func() time.Time
}

func newRootCmd() *cobra.Command {
	a := &app{now: time.Now}
	root := &cobra.Command{
		Use:          "flowlog",
		Short:        "Flow journal with wiki-style links",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.cfg = config.Load()
			if cmd.Flags().Changed("db") {
				a.cfg.DBPath = a.dbPath
			}
			if cmd.Flags().Changed("listen") {
				a.cfg.ListenAddr = a.listen
			}
		},
	}
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "database path (default $FLOWLOG_DB_PATH or journal.db)")
	root.PersistentFlags().StringVar(&a.listen, "listen", "", "listen address (default $FLOWLOG_LISTEN_ADDR)")

	root.AddCommand(a.serveCmd())
	root.AddCommand(a.addCmd())
	root.AddCommand(a.listCmd())
	root.AddCommand(a.exportCmd())
	root.AddCommand(a.importCmd())
	root.AddCommand(a.linksCmd())
	return root
}

// openStore opens and initialises the database. Callers own the Close.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if dir := filepath.Dir(a.cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	st, err := store.Open(a.cfg.DBPath, store.Options{
		BusyTimeout: a.cfg.DBBusyTimeout,
		LockTimeout: a.cfg.DBLockTimeout,
		Location:    a.cfg.Location,
	})
	if err != nil {
		return nil, err
	}
	initCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := st.Init(initCtx); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return st, nil
}

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the journal web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			srv := &http.Server{
				Addr:              a.cfg.ListenAddr,
				Handler:           web.NewServer(a.cfg, st).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				slog.Info("listening", "addr", a.cfg.ListenAddr, "db", a.cfg.DBPath)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("server error", "err", err)
					return err
				}
				return nil
			case <-ctx.Done():
			}
			slog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "add [content]",
		Short: "Add a journal entry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.Join(args, " ")
			if strings.TrimSpace(body) == "" {
				return errors.New("content required")
			}
			now := a.now()
			day := now
			if date != "" {
				parsed, err := time.ParseInLocation(journal.DayLayout, date, a.cfg.Location)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want %s", date, journal.DayLayout)
				}
				day = parsed
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			entry := journal.NewEntry(day, body, now)
			if err := st.Add(cmd.Context(), entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added entry %s on %s\n", entry.ID[:8], entry.DayKey(a.cfg.Location))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "entry date (YYYY-MM-DD, default today)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var (
		day string
		asc bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries grouped by day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			var entries []journal.Entry
			if day != "" {
				entries, err = st.EntriesOn(cmd.Context(), day)
			} else {
				entries, err = st.Entries(cmd.Context())
			}
			if err != nil {
				return err
			}
			writeDays(cmd.OutOrStdout(), journal.GroupByDay(entries, asc, a.cfg.Location), a.cfg.Location)
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "only entries on this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asc, "asc", false, "oldest first")
	return cmd
}

var (
	dayHeader = color.New(color.Bold, color.Underline)
	faint     = color.New(color.Faint)
)

func writeDays(w io.Writer, days []journal.Day, loc *time.Location) {
	if len(days) == 0 {
		_, _ = faint.Fprintln(w, "No entries")
		return
	}
	for i, day := range days {
		if i > 0 {
			fmt.Fprintln(w)
		}
		_, _ = dayHeader.Fprintf(w, "== %s ==", day.Key)
		_, _ = faint.Fprintf(w, " - %d\n", len(day.Entries))
		for _, entry := range day.Entries {
			_, _ = faint.Fprintf(w, "[%s] ", entry.Timestamp.In(loc).Format("15:04:05"))
			fmt.Fprintln(w, indent(entry.Content))
		}
	}
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n           ")
}

func (a *app) exportCmd() *cobra.Command {
	var (
		output string
		asHTML bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the journal as markdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.Entries(cmd.Context())
			if err != nil {
				return err
			}
			doc := export.Markdown(entries, export.Options{
				Heading:  a.cfg.ExportHeading,
				Location: a.cfg.Location,
			})
			if asHTML {
				if doc, err = export.HTML(doc); err != nil {
					return err
				}
			}
			if output == "" || output == "-" {
				_, err := io.WriteString(cmd.OutOrStdout(), doc)
				return err
			}
			if err := storagefs.WriteFileAtomic(output, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			slog.Info("journal exported", "path", output, "entries", len(entries))
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	cmd.Flags().BoolVar(&asHTML, "html", false, "render the export as HTML")
	return cmd
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import entries from an exported markdown file (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}
			entries := export.ParseMarkdown(string(data), a.now())
			if len(entries) == 0 {
				return errors.New("no entries found in file")
			}

			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.Save(cmd.Context(), entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d entries\n", len(entries))
			return nil
		},
	}
}

func (a *app) linksCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "links [title]",
		Short: "Show entries and backlinks for a title",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			entries, err := st.Entries(cmd.Context())
			if err != nil {
				return err
			}
			idx := links.NewIndex(entries)
			out := cmd.OutOrStdout()
			if !all {
				writeBacklinks(out, idx.Backlinks(args[0]), a.cfg.Location)
				return nil
			}
			titles := idx.Titles()
			if len(titles) == 0 {
				_, _ = faint.Fprintln(out, "No titles")
				return nil
			}
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow("TITLE", "ENTRIES", "LINKS")
			for _, title := range titles {
				bl := idx.Backlinks(title)
				tbl.AddRow(title, len(bl.Entries), strings.Join(bl.Titles, ", "))
			}
			_, err = fmt.Fprintln(out, tbl)
			return err
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "summarise every linked title")
	return cmd
}

func writeBacklinks(w io.Writer, bl links.Backlinks, loc *time.Location) {
	fmt.Fprintf(w, "%s: %d related entries\n", bl.Title, len(bl.Entries))
	for _, entry := range bl.Entries {
		fmt.Fprintf(w, "  %s %s\n", entry.DayKey(loc), indent(entry.Content))
	}
	if len(bl.Titles) == 0 {
		fmt.Fprintln(w, "No related links")
		return
	}
	fmt.Fprintf(w, "Links: %s\n", strings.Join(bl.Titles, ", "))
}
