package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-co-op/gocron/v2"
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ticklist/internal/infrastructure/catalog"
	"github.com/felixgeelhaar/ticklist/internal/infrastructure/watch"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the reconciliation daemon",
	Long: `Run the long-lived daemon: reconcile reset boundaries and poll
detector plugins once per tick, watch the catalog override file for
edits, and flush state synchronously on shutdown.`,
	RunE: runDaemonCmd,
}

func runDaemonCmd(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() { _ = w.Shutdown() }()

	w.LoadPlugins()
	w.Aggregator.Start(ctx)

	tick := func() {
		w.Service.Reconcile()
		w.Aggregator.Poll()
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(w.Config.TickIntervalDuration()),
		gocron.NewTask(tick),
		gocron.WithName("reconcile-tick"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule tick: %w", err)
	}
	scheduler.Start()
	defer func() { _ = scheduler.Shutdown() }()

	if w.Config.CatalogPath != "" {
		watcher, err := watch.NewFileWatcher(w.Config.CatalogPath, 0, func() {
			cat, loadErr := catalog.Load(w.Config.CatalogPath)
			if loadErr != nil {
				w.Logger.Error("catalog update rejected", "error", loadErr)
				return
			}
			w.Service.ReplaceCatalog(cat)
		})
		if err != nil {
			w.Logger.Warn("catalog watch unavailable", "error", err)
		} else {
			go func() { _ = watcher.Run(ctx) }()
		}
	}

	w.Logger.Info("daemon running",
		"tick", w.Config.TickIntervalDuration(),
		"detectors", w.Aggregator.ActiveCount())

	<-ctx.Done()
	w.Logger.Info("shutting down")
	return nil
}

func init() {
	RootCmd.AddCommand(daemonCmd)
}
