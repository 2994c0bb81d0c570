package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/reminders/internal/maintenance"
	"github.com/nhle/reminders/internal/repository"
)

func newSweepCmd(app *App) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove orphaned attachments and repair item ordering",
		Long:  "Run one maintenance pass. With --watch, keep running passes every maintenance.interval_sec until interrupted.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.run(cmd, func(*repository.Repositories) error {
				w := maintenance.New(app.store, app.engine, maintenance.Options{
					Interval: time.Duration(app.cfg.Maintenance.IntervalSec) * time.Second,
					Logger:   app.log,
				})
				if watch {
					return watchSweeps(cmd, app, w)
				}
				res := w.RunOnce(cmd.Context())
				if res.Err != nil {
					return res.Err
				}
				return writeOut(cmd, app, sweepOutput(res))
			})
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep sweeping in the background until interrupted")
	return cmd
}

func watchSweeps(cmd *cobra.Command, app *App, w *maintenance.Sweeper) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w.Start()
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case res := <-w.Results():
			if res.Err != nil {
				continue
			}
			if err := writeOut(cmd, app, sweepOutput(res)); err != nil {
				return err
			}
		}
	}
}

func sweepOutput(res maintenance.Result) map[string]any {
	return map[string]any{
		"sweep":       res.Sweep,
		"repair":      res.Repair,
		"duration_ms": res.Duration.Milliseconds(),
	}
}
