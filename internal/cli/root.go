// Package cli is the command-line front end over the repositories.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/reminders/internal/dragdrop"
	"github.com/nhle/reminders/internal/events"
	"github.com/nhle/reminders/internal/gateway"
	"github.com/nhle/reminders/internal/model"
	"github.com/nhle/reminders/internal/ordering"
	"github.com/nhle/reminders/internal/repository"
	"github.com/nhle/reminders/internal/store"
)

// App holds global flags and the services opened for one invocation.
type App struct {
	ConfigPath string
	DBPath     string
	LogLevel   string
	PrettyJSON bool
	Format     string

	cfg    *model.AppConfig
	log    zerolog.Logger
	bus    *events.Bus
	store  *store.Store
	engine *ordering.Engine
	repos  *repository.Repositories
}

// NewRootCmd builds the reminders command tree.
func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "reminders",
		Short:        "Personal reminders and task lists",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Create a list and a reminder in it
  reminders lists add Work
  reminders add "Write report" --list <list-id> --priority 2

  # Reminders without a list go to the Inbox
  reminders add "Buy milk"

  # Search with typed tokens
  reminders search report priority=2
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("REMINDERS_CONFIG", model.DefaultConfigPath()), "Config file path")
	cmd.PersistentFlags().StringVar(&app.DBPath, "db", "", "Database file (overrides store.path)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level (overrides log.level)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", "json", "Output format: json or text")

	cmd.AddCommand(newListsCmd(app))
	cmd.AddCommand(newSectionsCmd(app))
	cmd.AddCommand(newAddCmd(app))
	cmd.AddCommand(newLsCmd(app))
	cmd.AddCommand(newDoneCmd(app, true))
	cmd.AddCommand(newDoneCmd(app, false))
	cmd.AddCommand(newMvCmd(app))
	cmd.AddCommand(newRmCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newSweepCmd(app))

	return cmd
}

// open loads configuration and opens the store once per invocation.
func (a *App) open(cmd *cobra.Command) error {
	if a.repos != nil {
		return nil
	}

	cfg, err := model.LoadConfig(a.ConfigPath)
	if err != nil {
		return err
	}
	if a.DBPath != "" {
		cfg.Store.Path = a.DBPath
	}
	if a.LogLevel != "" {
		cfg.Log.Level = a.LogLevel
	}
	a.cfg = cfg
	a.log = NewLogger(cmd.ErrOrStderr(), cfg.Log)

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	a.bus = events.NewBus(cfg.Events.BufferSize)
	s, err := store.Open(cfg.Store.Path, store.Options{
		BusyTimeout: time.Duration(cfg.Store.BusyTimeoutMs) * time.Millisecond,
		MaxRetries:  cfg.Store.MaxRetries,
		Logger:      a.log,
		Bus:         a.bus,
	})
	if err != nil {
		a.log.Error().Err(err).Str("path", cfg.Store.Path).Msg("store unavailable")
		a.bus.Close()
		return err
	}
	a.store = s
	a.engine = ordering.New(a.log)
	a.repos = repository.New(s, a.engine, repository.Options{
		Gateways: gateway.LoggingSet(a.log),
		Logger:   a.log,
		Limits:   cfg.Limits,
	})
	return nil
}

// run opens the services, runs fn and closes them again. Errors from fn
// are echoed to stderr.
func (a *App) run(cmd *cobra.Command, fn func(r *repository.Repositories) error) error {
	if err := a.open(cmd); err != nil {
		return writeErr(cmd, err)
	}
	err := fn(a.repos)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		return writeErr(cmd, err)
	}
	return nil
}

func (a *App) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.bus.Close()
	a.store, a.repos = nil, nil
	return err
}

// dragger returns a placement controller committing through the
// repositories. Commands use it for a single start/hover/drop gesture.
func (a *App) dragger() *dragdrop.Controller {
	return dragdrop.New(dragdrop.NewCommitter(a.repos), dragdrop.Options{
		Debounce: time.Duration(a.cfg.DragDrop.DebounceMs) * time.Millisecond,
		Logger:   a.log,
	})
}

// NewLogger builds the root logger for cfg writing to w.
func NewLogger(w io.Writer, cfg model.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
