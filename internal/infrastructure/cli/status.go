package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

var (
	statusJSON       bool
	statusShowHidden bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show every task grouped by its reset cadence",
	Long: `Show every task grouped by its reset cadence, with the time
remaining until each cadence's next boundary.

Examples:
  ticklist status
  ticklist status --json
  ticklist status --all`,
	RunE: runStatusCmd,
}

type statusTaskOutput struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
	Locked    bool   `json:"locked"`
	Enabled   bool   `json:"enabled"`
	Count     int    `json:"count,omitempty"`
	MaxCount  int    `json:"max_count,omitempty"`
}

type statusCadenceOutput struct {
	Cadence   string             `json:"cadence"`
	NextReset string             `json:"next_reset"`
	Remaining string             `json:"remaining"`
	Tasks     []statusTaskOutput `json:"tasks"`
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	w, err := newWorkspace()
	if err != nil {
		return err
	}
	defer func() { _ = w.Shutdown() }()

	// Apply any boundary that passed since the last run before rendering.
	w.Service.Reconcile()
	snap := w.Service.Snapshot()

	byCadence := make(map[reset.Cadence][]*checklist.Task)
	for _, t := range snap.Tasks {
		if !t.Enabled && !statusShowHidden {
			continue
		}
		c := t.GoverningCadence()
		byCadence[c] = append(byCadence[c], t)
	}

	var groups []statusCadenceOutput
	for _, c := range reset.All() {
		tasks := byCadence[c]
		if len(tasks) == 0 {
			continue
		}
		sort.Slice(tasks, func(i, j int) bool { return tasks[i].Name < tasks[j].Name })

		group := statusCadenceOutput{
			Cadence:   c.String(),
			NextReset: w.Scheduler.NextOccurrence(c).Format("2006-01-02 15:04 MST"),
			Remaining: w.Scheduler.FormatRemaining(c),
		}
		for _, t := range tasks {
			out := statusTaskOutput{
				Key:       t.Key,
				Name:      t.Name,
				Completed: t.Completed,
				Locked:    t.ManualOverride,
				Enabled:   t.Enabled,
			}
			if t.MaxCount > 1 {
				out.Count = t.CurrentCount
				out.MaxCount = t.MaxCount
			}
			group.Tasks = append(group.Tasks, out)
		}
		groups = append(groups, group)
	}

	if statusJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(groups)
	}

	for _, g := range groups {
		fmt.Printf("%s (resets in %s, at %s)\n", g.Cadence, g.Remaining, g.NextReset)
		for _, t := range g.Tasks {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			suffix := ""
			if t.MaxCount > 1 {
				suffix = fmt.Sprintf(" (%d/%d)", t.Count, t.MaxCount)
			}
			if t.Locked {
				suffix += " [manual]"
			}
			if !t.Enabled {
				suffix += " [disabled]"
			}
			fmt.Printf("  [%s] %-40s %s%s\n", mark, t.Name, t.Key, suffix)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output in JSON format")
	statusCmd.Flags().BoolVar(&statusShowHidden, "all", false, "include disabled tasks")
	RootCmd.AddCommand(statusCmd)
}
