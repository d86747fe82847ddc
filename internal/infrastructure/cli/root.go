// Package cli hosts the cobra command tree.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ticklist/internal/infrastructure/wiring"
)

var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	rootDir string
	verbose bool
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:     "ticklist",
	Version: Version,
	Short:   "A recurring-checklist tracker with timed resets",
	Long: `Ticklist tracks recurring tasks against their reset cadences.
It remembers what you completed, clears it when the right boundary
passes (even across long offline gaps), and lets detector plugins
tick items off for you without ever overruling a manual decision.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.PersistentFlags().StringVar(&rootDir, "root", ".", "workspace root directory")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newWorkspace builds the wired workspace for one command invocation and
// performs the startup load.
func newWorkspace() (*wiring.Workspace, error) {
	w, err := wiring.NewWorkspace(rootDir, newLogger())
	if err != nil {
		return nil, err
	}
	if _, err := w.Service.Load(); err != nil {
		return nil, err
	}
	return w, nil
}

// withWorkspace runs one command body against a freshly loaded workspace and
// always writes the final state back.
func withWorkspace(fn func(*wiring.Workspace) error) error {
	w, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() { _ = w.Shutdown() }()
	return fn(w)
}
