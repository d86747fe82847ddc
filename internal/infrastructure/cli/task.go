package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ticklist/internal/infrastructure/wiring"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage individual tasks",
}

var taskCompleteCmd = &cobra.Command{
	Use:   "complete <key>",
	Short: "Mark a task complete (locks out detectors until the next reset)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(w *wiring.Workspace) error {
			if err := w.Service.SetManualCompletion(args[0], true); err != nil {
				return err
			}
			fmt.Printf("completed %s\n", args[0])
			return nil
		})
	},
}

var taskClearCmd = &cobra.Command{
	Use:   "clear <key>",
	Short: "Mark a task incomplete (locks out detectors until the next reset)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(w *wiring.Workspace) error {
			if err := w.Service.SetManualCompletion(args[0], false); err != nil {
				return err
			}
			fmt.Printf("cleared %s\n", args[0])
			return nil
		})
	},
}

var taskIncrementCmd = &cobra.Command{
	Use:   "increment <key>",
	Short: "Advance a multi-count task by one repetition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(w *wiring.Workspace) error {
			if err := w.Service.IncrementTask(args[0]); err != nil {
				return err
			}
			task, _ := w.Service.Snapshot().Task(args[0])
			fmt.Printf("%s: %d/%d\n", args[0], task.CurrentCount, task.MaxCount)
			return nil
		})
	},
}

var taskEnableCmd = &cobra.Command{
	Use:   "enable <key>",
	Short: "Show and track a task again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(w *wiring.Workspace) error {
			return w.Service.SetTaskEnabled(args[0], true)
		})
	},
}

var taskDisableCmd = &cobra.Command{
	Use:   "disable <key>",
	Short: "Hide a task without deleting its state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withWorkspace(func(w *wiring.Workspace) error {
			return w.Service.SetTaskEnabled(args[0], false)
		})
	},
}

func init() {
	taskCmd.AddCommand(taskCompleteCmd, taskClearCmd, taskIncrementCmd, taskEnableCmd, taskDisableCmd)
	RootCmd.AddCommand(taskCmd)
}
