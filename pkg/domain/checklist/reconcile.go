package checklist

import (
	"log/slog"

	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

// Reconciler applies crossed reset boundaries to a checklist state. It is
// driven by a periodic tick and must be idempotent no matter how early, late
// or rarely that tick fires.
type Reconciler struct {
	sched  *reset.Scheduler
	logger *slog.Logger
}

// NewReconciler creates a reconciler bound to a scheduler clock.
func NewReconciler(sched *reset.Scheduler, logger *slog.Logger) *Reconciler {
	if sched == nil {
		sched = reset.NewScheduler()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{sched: sched, logger: logger}
}

// ReconcileAll tests every stamped cadence against its recorded stamp and,
// where a boundary was crossed, clears the governed tasks and advances the
// stamp to the most recent boundary. Any number of boundaries missed while
// offline collapse into that single reset; replaying each one would clear
// already-empty state. The returned map says which cadences applied so
// callers can chain downstream effects.
func (r *Reconciler) ReconcileAll(st *ChecklistState) map[reset.Cadence]bool {
	applied := make(map[reset.Cadence]bool, len(reset.Stamped()))
	for _, c := range reset.Stamped() {
		if !r.sched.HasResetOccurredSince(c, st.Stamp(c)) {
			applied[c] = false
			continue
		}

		cleared := 0
		for _, t := range st.Tasks {
			if t.GoverningCadence() == c {
				t.ClearForReset()
				cleared++
			}
		}
		boundary := r.sched.LastOccurrence(c)
		st.SetStamp(c, boundary)
		applied[c] = true

		r.logger.Info("reset applied",
			"cadence", c.String(),
			"boundary", boundary,
			"tasks_cleared", cleared)
	}
	return applied
}
