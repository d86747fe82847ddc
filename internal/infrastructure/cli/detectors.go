package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ticklist/internal/infrastructure/wiring"
)

var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List configured detector plugins and their limitations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(w *wiring.Workspace) error {
			w.LoadPlugins()
			w.Aggregator.Start(context.Background())

			names := w.Aggregator.Names()
			if len(names) == 0 {
				fmt.Println("no detector plugins configured")
				return nil
			}

			for _, name := range names {
				status := "disabled"
				if w.Aggregator.IsEnabled(name) {
					status = "enabled"
				}
				fmt.Printf("%s  (%s)\n", name, status)
			}

			limitations := w.Aggregator.Limitations()
			if len(limitations) == 0 {
				return nil
			}
			fmt.Println("\nlimitations:")
			for _, l := range limitations {
				scope := "all tasks"
				if l.TaskKey != "" {
					scope = l.TaskKey
				}
				fmt.Printf("  [%s] %s: %s (%s)\n",
					strings.ToLower(string(l.Kind)), scope, l.Description, l.Reason)
			}
			return nil
		})
	},
}

func init() {
	RootCmd.AddCommand(detectorsCmd)
}
