package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ticklist/internal/infrastructure/wiring"
)

var resetForce bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Wipe all task state and rebuild from the catalog",
	Long: `Wipe all task state and rebuild it from the catalog. Reset stamps
are seeded to the most recent boundaries, so nothing fires spuriously
on the next tick. Requires --force.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetForce {
			return fmt.Errorf("refusing to wipe state without --force")
		}
		return withWorkspace(func(w *wiring.Workspace) error {
			if err := w.Service.ResetToDefaults(); err != nil {
				return err
			}
			fmt.Println("state reset to catalog defaults")
			return nil
		})
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetForce, "force", false, "confirm the wipe")
	RootCmd.AddCommand(resetCmd)
}
