// Package wiring builds the object graph explicitly; no ambient globals.
package wiring

import (
	"log/slog"
	"path/filepath"

	"github.com/felixgeelhaar/ticklist/internal/infrastructure/catalog"
	"github.com/felixgeelhaar/ticklist/internal/infrastructure/config"
	"github.com/felixgeelhaar/ticklist/pkg/application"
	"github.com/felixgeelhaar/ticklist/pkg/detect"
	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	domaindetect "github.com/felixgeelhaar/ticklist/pkg/domain/detect"
	"github.com/felixgeelhaar/ticklist/pkg/domain/events"
	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
	"github.com/felixgeelhaar/ticklist/pkg/plugin"
	"github.com/felixgeelhaar/ticklist/pkg/storage"
)

// Workspace bundles the wired core: one repository, one engine, one service,
// one detector aggregator, all sharing a dispatcher and scheduler.
type Workspace struct {
	Root       string
	Config     *config.Config
	Logger     *slog.Logger
	Repo       *storage.FilesystemRepository
	Engine     *storage.Engine
	Dispatcher *events.Dispatcher
	Scheduler  *reset.Scheduler
	Catalog    *checklist.Catalog
	Service    *application.ChecklistService
	Aggregator *detect.Aggregator
	Loader     *plugin.Loader
}

// NewWorkspace wires everything rooted at the given directory.
func NewWorkspace(root string, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}

	repo := storage.NewFilesystemRepository(root)
	if err := repo.Initialize(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(filepath.Join(root, storage.TicklistDir, storage.ConfigFile))
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}

	dispatcher := events.NewDispatcher()
	sched := reset.NewScheduler()
	engine := storage.NewEngine(repo, dispatcher, logger, cfg.SaveDebounceDuration())
	svc := application.NewChecklistService(engine, sched, cat, dispatcher, logger)

	agg := detect.NewAggregator(func(sig domaindetect.Signal, detector string) {
		svc.ApplyDetectorSignal(sig.TaskKey, sig.Completed, detector)
	}, dispatcher, logger)

	return &Workspace{
		Root:       root,
		Config:     cfg,
		Logger:     logger,
		Repo:       repo,
		Engine:     engine,
		Dispatcher: dispatcher,
		Scheduler:  sched,
		Catalog:    cat,
		Service:    svc,
		Aggregator: agg,
		Loader:     plugin.NewLoader(),
	}, nil
}

// LoadPlugins starts each configured plugin binary and registers it as a
// detector. A plugin that fails to load is skipped with an error log; the
// rest still come up.
func (w *Workspace) LoadPlugins() {
	for _, pc := range w.Config.Plugins {
		source, err := w.Loader.Load(pc.Path)
		if err != nil {
			w.Logger.Error("plugin load failed, skipping", "path", pc.Path, "error", err)
			continue
		}
		d, err := plugin.NewSourceDetector(source, pc.Config)
		if err != nil {
			w.Logger.Error("plugin rejected its configuration, skipping", "path", pc.Path, "error", err)
			continue
		}
		if err := w.Aggregator.AddDetector(d, pc.Enabled); err != nil {
			w.Logger.Error("detector registration failed", "detector", d.Name(), "error", err)
		}
	}
}

// Shutdown tears the workspace down in dependency order: detectors first,
// then the final state write, then the plugin processes.
func (w *Workspace) Shutdown() error {
	var firstErr error
	if err := w.Aggregator.Close(); err != nil {
		w.Logger.Warn("detector teardown reported errors", "error", err)
		firstErr = err
	}
	if err := w.Service.Shutdown(); err != nil {
		w.Logger.Error("final save failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}
	w.Loader.Cleanup()
	return firstErr
}
