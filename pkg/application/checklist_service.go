// Package application hosts the ChecklistService: the single mutation surface
// for the checklist state. Detector signals, manual commands and the
// reconciliation tick all funnel through one mutex, so no caller ever
// observes a torn state.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	"github.com/felixgeelhaar/ticklist/pkg/domain/events"
	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
	"github.com/felixgeelhaar/ticklist/pkg/storage"
)

// ChecklistService owns the in-memory checklist state and serializes every
// mutation. Reads hand out deep copies.
type ChecklistService struct {
	engine     *storage.Engine
	sched      *reset.Scheduler
	reconciler *checklist.Reconciler
	catalog    *checklist.Catalog
	dispatcher *events.Dispatcher
	logger     *slog.Logger

	mu    sync.Mutex
	state *checklist.ChecklistState
}

// NewChecklistService wires the service. The catalog may be nil when the
// caller manages tasks by hand (tests mostly).
func NewChecklistService(engine *storage.Engine, sched *reset.Scheduler, catalog *checklist.Catalog, dispatcher *events.Dispatcher, logger *slog.Logger) *ChecklistService {
	if sched == nil {
		sched = reset.NewScheduler()
	}
	if dispatcher == nil {
		dispatcher = events.NewDispatcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChecklistService{
		engine:     engine,
		sched:      sched,
		reconciler: checklist.NewReconciler(sched, logger),
		catalog:    catalog,
		dispatcher: dispatcher,
		logger:     logger,
		state:      checklist.NewChecklistState(),
	}
}

// Load performs the one startup load: read the persisted state, drop tasks
// the catalog no longer knows, backfill tasks the catalog gained, and
// schedule a save if anything moved.
func (s *ChecklistService) Load() (*storage.LoadResult, error) {
	result, err := s.engine.Load()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = result.State

	changed := false
	if s.catalog != nil {
		kept := s.state.Tasks[:0]
		for _, t := range s.state.Tasks {
			if !s.catalog.Has(t.Key) {
				s.logger.Warn("dropping task unknown to the catalog", "key", t.Key)
				changed = true
				continue
			}
			kept = append(kept, t)
		}
		s.state.Tasks = kept

		if added := s.catalog.Backfill(s.state); len(added) > 0 {
			s.logger.Info("catalog backfill added tasks", "keys", added)
			changed = true
		}
	}

	if changed || result.Repaired || result.MigratedFrom != 0 {
		s.engine.Save(s.state)
	}
	return result, nil
}

// ReplaceCatalog swaps the task catalog at runtime (catalog file edited
// while the daemon runs): tasks the new catalog dropped disappear, tasks it
// gained appear, everything else keeps its state.
func (s *ChecklistService) ReplaceCatalog(cat *checklist.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = cat

	changed := false
	kept := s.state.Tasks[:0]
	for _, t := range s.state.Tasks {
		if !cat.Has(t.Key) {
			s.logger.Info("task removed by catalog update", "key", t.Key)
			changed = true
			continue
		}
		kept = append(kept, t)
	}
	s.state.Tasks = kept

	if added := cat.Backfill(s.state); len(added) > 0 {
		s.logger.Info("tasks added by catalog update", "keys", added)
		changed = true
	}
	if changed {
		s.engine.Save(s.state)
	}
}

// ApplyDetectorSignal ingests one detector signal. Unknown keys are dropped
// with a warning, manually overridden tasks drop the signal silently, and a
// signal equal to the current value is a no-op.
func (s *ChecklistService) ApplyDetectorSignal(key string, completed bool, detector string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.state.Task(key)
	if !ok {
		s.logger.Warn("detector signal for unknown task dropped",
			"key", key, "detector", detector)
		return
	}
	if t.ManualOverride {
		s.logger.Debug("detector signal dropped, manual override set",
			"key", key, "detector", detector)
		return
	}
	if t.Completed == completed {
		return
	}

	event := checklist.EventDetectIncomplete
	if completed {
		event = checklist.EventDetectComplete
	}
	if err := s.transition(t, event); err != nil {
		s.logger.Debug("detector signal dropped", "key", key, "error", err)
		return
	}

	s.engine.Save(s.state)
	s.publish(events.NewTaskStateChanged(key, completed, events.OriginDetector))
}

// SetManualCompletion records a user decision. It sets the manual override,
// so detectors cannot revert it until the governing reset clears the lock.
func (s *ChecklistService) SetManualCompletion(key string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.state.Task(key)
	if !ok {
		return fmt.Errorf("unknown task %q", key)
	}

	event := checklist.EventManualClear
	if completed {
		event = checklist.EventManualComplete
	}
	if err := s.transition(t, event); err != nil {
		// Already in the requested locked state.
		return nil
	}

	s.engine.Save(s.state)
	s.publish(events.NewTaskStateChanged(key, completed, events.OriginManual))
	return nil
}

// IncrementTask advances a multi-count task by one repetition on behalf of
// the user, completing it (with override) when the counter fills.
func (s *ChecklistService) IncrementTask(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.state.Task(key)
	if !ok {
		return fmt.Errorf("unknown task %q", key)
	}

	wasCompleted := t.Completed
	t.Increment(s.now())
	if t.Completed && !wasCompleted {
		t.ManualOverride = true
		s.publish(events.NewTaskStateChanged(key, true, events.OriginManual))
	}
	s.engine.Save(s.state)
	return nil
}

// SetTaskEnabled toggles whether a task is shown and tracked.
func (s *ChecklistService) SetTaskEnabled(key string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.state.Task(key)
	if !ok {
		return fmt.Errorf("unknown task %q", key)
	}
	if t.Enabled == enabled {
		return nil
	}
	t.Enabled = enabled
	s.engine.Save(s.state)
	return nil
}

// Reconcile is the periodic tick entry: apply every crossed reset boundary,
// emit one ResetApplied per applied cadence, and save only when something
// moved.
func (s *ChecklistService) Reconcile() map[reset.Cadence]bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	applied := s.reconciler.ReconcileAll(s.state)

	any := false
	for c, ok := range applied {
		if !ok {
			continue
		}
		any = true
		s.publish(events.NewResetApplied(c.String(), s.state.Stamp(c)))
	}
	if any {
		s.engine.Save(s.state)
	}
	return applied
}

// ResetToDefaults discards the state and rebuilds it from the catalog, with
// every stamp seeded to the most recent boundary so no spurious reset fires
// on the next tick. The wipe is written immediately.
func (s *ChecklistService) ResetToDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	owner := s.state.Owner
	st := checklist.NewChecklistState()
	st.Owner = owner
	if s.catalog != nil {
		s.catalog.Backfill(st)
	}
	for _, c := range reset.Stamped() {
		st.SetStamp(c, s.sched.LastOccurrence(c))
	}
	s.state = st
	return s.engine.SaveImmediate(s.state)
}

// Snapshot returns a deep copy of the current state for rendering.
func (s *ChecklistService) Snapshot() *checklist.ChecklistState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Shutdown writes the final state synchronously and closes the engine.
func (s *ChecklistService) Shutdown() error {
	s.mu.Lock()
	err := s.engine.SaveImmediate(s.state)
	s.mu.Unlock()

	if closeErr := s.engine.Close(); err == nil {
		err = closeErr
	}
	return err
}

// transition runs one FSM event against a task and writes the resulting
// state back. Callers hold the mutex.
func (s *ChecklistService) transition(t *checklist.Task, event string) error {
	machine, err := checklist.NewCompletionMachine(checklist.CompletionState(t), t.Key)
	if err != nil {
		return err
	}
	if err := machine.Transition(event); err != nil {
		return err
	}
	checklist.ApplyState(t, machine.Current(), s.now())
	return nil
}

func (s *ChecklistService) now() time.Time {
	if s.sched.Now == nil {
		return time.Now().UTC()
	}
	return s.sched.Now().UTC()
}

func (s *ChecklistService) publish(e events.DomainEvent) {
	if err := s.dispatcher.Dispatch(context.Background(), e); err != nil {
		s.logger.Warn("event handler failed", "type", e.EventType(), "error", err)
	}
}
