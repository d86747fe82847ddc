package storage

import (
	"log/slog"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
)

// repairState normalizes a freshly loaded state to its invariants: stamps and
// timestamps are UTC and never in the future, task invariants hold, entries
// that cannot be repaired are dropped, and the task cap is enforced. Returns
// true if anything had to change.
func repairState(st *checklist.ChecklistState, now time.Time, logger *slog.Logger) bool {
	if logger == nil {
		logger = slog.Default()
	}
	now = now.UTC()
	changed := false

	clampStamp := func(ts time.Time) time.Time {
		u := ts.UTC()
		if u.After(now) {
			changed = true
			return now
		}
		return u
	}
	st.Resets.Daily = clampStamp(st.Resets.Daily)
	st.Resets.GrandCompany = clampStamp(st.Resets.GrandCompany)
	st.Resets.Weekly = clampStamp(st.Resets.Weekly)
	st.Resets.JumboCactpot = clampStamp(st.Resets.JumboCactpot)
	st.LastSaveTime = clampStamp(st.LastSaveTime)

	kept := st.Tasks[:0]
	for _, t := range st.Tasks {
		if err := t.Validate(); err != nil {
			logger.Warn("dropping unusable task entry", "error", err)
			changed = true
			continue
		}
		if t.Repair(now) {
			changed = true
		}
		kept = append(kept, t)
	}
	st.Tasks = kept

	if st.EnforceCap() {
		logger.Warn("task collection exceeded cap, truncated", "cap", checklist.MaxTasks)
		changed = true
	}
	return changed
}
