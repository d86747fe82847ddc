package application

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
	"github.com/felixgeelhaar/ticklist/pkg/domain/events"
	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
	"github.com/felixgeelhaar/ticklist/pkg/storage"
)

func testCatalog() *checklist.Catalog {
	return &checklist.Catalog{Entries: []checklist.CatalogEntry{
		{Key: "duty-roulette", Name: "Duty Roulette", Category: checklist.CategoryDaily, Mode: checklist.ModeHybrid},
		{Key: "gc-turnin", Name: "Grand Company Turn-in", Category: checklist.CategoryGrandCompanyDaily, Mode: checklist.ModeManual},
		{Key: "weekly-hunt", Name: "Elite Hunt", Category: checklist.CategoryWeekly, Mode: checklist.ModeManual},
		{Key: "beast-tribe", Name: "Tribal Quests", Category: checklist.CategoryDaily, Mode: checklist.ModeManual, MaxCount: 3},
	}}
}

// newTestService builds a service on a temp-dir engine and a pinned clock.
func newTestService(t *testing.T, at time.Time) (*ChecklistService, *events.Dispatcher) {
	t.Helper()
	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	dispatcher := events.NewDispatcher()
	engine := storage.NewEngine(repo, dispatcher, nil, time.Hour)
	sched := &reset.Scheduler{Now: func() time.Time { return at }}
	svc := NewChecklistService(engine, sched, testCatalog(), dispatcher, nil)
	if _, err := svc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return svc, dispatcher
}

func recordTaskEvents(dispatcher *events.Dispatcher) *[]*events.TaskStateChanged {
	var got []*events.TaskStateChanged
	dispatcher.Register("task-recorder", func(ctx context.Context, e events.DomainEvent) error {
		got = append(got, e.(*events.TaskStateChanged))
		return nil
	}, events.EventTypeTaskStateChanged)
	return &got
}

func TestLoad_InstantiatesCatalogOnFirstRun(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	snap := svc.Snapshot()
	if len(snap.Tasks) != 4 {
		t.Fatalf("expected 4 catalog tasks, got %d", len(snap.Tasks))
	}
	if _, ok := snap.Task("duty-roulette"); !ok {
		t.Fatalf("catalog task missing after first-run load")
	}
}

func TestApplyDetectorSignal_CompletesTask(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, dispatcher := newTestService(t, now)
	got := recordTaskEvents(dispatcher)

	svc.ApplyDetectorSignal("duty-roulette", true, "mock")

	snap := svc.Snapshot()
	task, _ := snap.Task("duty-roulette")
	if !task.Completed {
		t.Fatalf("signal must complete the task")
	}
	if task.ManualOverride {
		t.Fatalf("detector completion must not lock the task")
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Fatalf("completion timestamp must be the scheduler clock, got %v", task.CompletedAt)
	}
	if len(*got) != 1 || (*got)[0].Origin != events.OriginDetector {
		t.Fatalf("expected one detector-origin event, got %v", *got)
	}
}

func TestApplyDetectorSignal_UnknownKeyDropped(t *testing.T) {
	svc, dispatcher := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	got := recordTaskEvents(dispatcher)

	svc.ApplyDetectorSignal("no-such-task", true, "mock")

	if len(*got) != 0 {
		t.Fatalf("unknown key must produce no event")
	}
}

func TestApplyDetectorSignal_IdempotentWhenEqual(t *testing.T) {
	svc, dispatcher := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	got := recordTaskEvents(dispatcher)

	svc.ApplyDetectorSignal("duty-roulette", true, "mock")
	svc.ApplyDetectorSignal("duty-roulette", true, "mock")

	if len(*got) != 1 {
		t.Fatalf("equal signal must not re-emit, got %d events", len(*got))
	}
}

func TestManualOverride_BlocksDisagreeingDetector(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	if err := svc.SetManualCompletion("duty-roulette", true); err != nil {
		t.Fatalf("manual complete: %v", err)
	}
	svc.ApplyDetectorSignal("duty-roulette", false, "mock")

	task, _ := svc.Snapshot().Task("duty-roulette")
	if !task.Completed {
		t.Fatalf("detector must not revert a manual completion")
	}
	if !task.ManualOverride {
		t.Fatalf("override flag must survive the dropped signal")
	}
}

func TestManualClear_LocksOutDetectorCompletion(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	svc.ApplyDetectorSignal("duty-roulette", true, "mock")
	if err := svc.SetManualCompletion("duty-roulette", false); err != nil {
		t.Fatalf("manual clear: %v", err)
	}
	svc.ApplyDetectorSignal("duty-roulette", true, "mock")

	task, _ := svc.Snapshot().Task("duty-roulette")
	if task.Completed {
		t.Fatalf("detector must not re-complete a manually cleared task")
	}
}

func TestSetManualCompletion_UnknownKeyErrors(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	if err := svc.SetManualCompletion("no-such-task", true); err == nil {
		t.Fatalf("expected an error for an unknown task")
	}
}

func TestIncrementTask_CompletesAtMax(t *testing.T) {
	svc, dispatcher := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	got := recordTaskEvents(dispatcher)

	for i := 0; i < 3; i++ {
		if err := svc.IncrementTask("beast-tribe"); err != nil {
			t.Fatalf("increment %d: %v", i, err)
		}
	}

	task, _ := svc.Snapshot().Task("beast-tribe")
	if task.CurrentCount != 3 || !task.Completed {
		t.Fatalf("three increments must fill and complete, got count=%d completed=%v",
			task.CurrentCount, task.Completed)
	}
	if !task.ManualOverride {
		t.Fatalf("a user-driven completion must lock against detectors")
	}
	if len(*got) != 1 {
		t.Fatalf("only the completing increment emits, got %d events", len(*got))
	}
}

func TestReconcile_ClearsGovernedTasksAndEmits(t *testing.T) {
	// Monday noon: seed completions, then cross the daily boundary.
	before := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	svc, dispatcher := newTestService(t, before)
	svc.Reconcile() // settle the fresh stamps

	svc.ApplyDetectorSignal("duty-roulette", true, "mock")
	if err := svc.SetManualCompletion("weekly-hunt", true); err != nil {
		t.Fatalf("manual complete: %v", err)
	}

	var resets []*events.ResetApplied
	dispatcher.Register("reset-recorder", func(ctx context.Context, e events.DomainEvent) error {
		resets = append(resets, e.(*events.ResetApplied))
		return nil
	}, events.EventTypeResetApplied)

	after := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC) // past 15:00 daily
	svc.sched.Now = func() time.Time { return after }

	applied := svc.Reconcile()
	if !applied[reset.CadenceDaily] {
		t.Fatalf("daily boundary at 15:00 must apply")
	}
	if applied[reset.CadenceWeekly] {
		t.Fatalf("weekly must not apply before Tuesday")
	}

	snap := svc.Snapshot()
	daily, _ := snap.Task("duty-roulette")
	if daily.Completed {
		t.Fatalf("daily task must clear on the daily reset")
	}
	weekly, _ := snap.Task("weekly-hunt")
	if !weekly.Completed || !weekly.ManualOverride {
		t.Fatalf("weekly task must survive a daily reset untouched")
	}

	if len(resets) != 1 || resets[0].Cadence != reset.CadenceDaily.String() {
		t.Fatalf("expected one daily ResetApplied event, got %v", resets)
	}
	want := time.Date(2026, 3, 9, 15, 0, 0, 0, time.UTC)
	if !resets[0].Boundary.Equal(want) {
		t.Fatalf("boundary = %v, want %v", resets[0].Boundary, want)
	}
}

func TestReconcile_ResetClearsManualOverride(t *testing.T) {
	before := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, before)
	svc.Reconcile()

	if err := svc.SetManualCompletion("duty-roulette", true); err != nil {
		t.Fatalf("manual complete: %v", err)
	}

	svc.sched.Now = func() time.Time { return time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC) }
	svc.Reconcile()

	task, _ := svc.Snapshot().Task("duty-roulette")
	if task.Completed || task.ManualOverride {
		t.Fatalf("reset must clear completion and the override lock")
	}

	// The lock is gone, detectors speak again.
	svc.ApplyDetectorSignal("duty-roulette", true, "mock")
	task, _ = svc.Snapshot().Task("duty-roulette")
	if !task.Completed {
		t.Fatalf("detector must apply after the reset cleared the lock")
	}
}

func TestReconcile_SecondPassIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))
	svc.Reconcile()

	applied := svc.Reconcile()
	for c, ok := range applied {
		if ok {
			t.Fatalf("cadence %s applied twice without a new boundary", c)
		}
	}
}

func TestLoad_DropsTasksUnknownToCatalog(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := storage.NewFilesystemRepository(t.TempDir())
	if err := repo.Initialize(); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	dispatcher := events.NewDispatcher()
	engine := storage.NewEngine(repo, dispatcher, nil, time.Hour)

	// Persist a state carrying a retired task key.
	st := checklist.NewChecklistState()
	if err := st.AddTask(checklist.NewTask("retired-task", "Retired", checklist.CategoryDaily, checklist.ModeManual)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := engine.SaveImmediate(st); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	sched := &reset.Scheduler{Now: func() time.Time { return now }}
	svc := NewChecklistService(engine, sched, testCatalog(), dispatcher, nil)
	if _, err := svc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	snap := svc.Snapshot()
	if _, ok := snap.Task("retired-task"); ok {
		t.Fatalf("retired key must be dropped on load")
	}
	if len(snap.Tasks) != 4 {
		t.Fatalf("catalog backfill must replace the dropped entry, got %d tasks", len(snap.Tasks))
	}
}

func TestResetToDefaults_SeedsStampsAtLastBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, now)
	svc.ApplyDetectorSignal("duty-roulette", true, "mock")

	if err := svc.ResetToDefaults(); err != nil {
		t.Fatalf("reset to defaults: %v", err)
	}

	snap := svc.Snapshot()
	task, _ := snap.Task("duty-roulette")
	if task.Completed {
		t.Fatalf("defaults must not carry completion")
	}
	for _, c := range reset.Stamped() {
		want := c.LastOccurrence(now)
		if !snap.Stamp(c).Equal(want) {
			t.Fatalf("stamp %s = %v, want %v", c, snap.Stamp(c), want)
		}
	}

	// Seeded stamps mean the next tick applies nothing.
	applied := svc.Reconcile()
	for c, ok := range applied {
		if ok {
			t.Fatalf("cadence %s fired right after a defaults reset", c)
		}
	}
}

func TestSetTaskEnabled(t *testing.T) {
	svc, _ := newTestService(t, time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	if err := svc.SetTaskEnabled("duty-roulette", false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	task, _ := svc.Snapshot().Task("duty-roulette")
	if task.Enabled {
		t.Fatalf("task must report disabled")
	}
	if err := svc.SetTaskEnabled("no-such-task", true); err == nil {
		t.Fatalf("unknown task must error")
	}
}

func TestShutdown_PersistsFinalState(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	root := t.TempDir()
	repo := storage.NewFilesystemRepository(root)
	if err := repo.Initialize(); err != nil {
		t.Fatalf("init repo: %v", err)
	}
	dispatcher := events.NewDispatcher()
	engine := storage.NewEngine(repo, dispatcher, nil, time.Hour)
	sched := &reset.Scheduler{Now: func() time.Time { return now }}
	svc := NewChecklistService(engine, sched, testCatalog(), dispatcher, nil)
	if _, err := svc.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	svc.ApplyDetectorSignal("duty-roulette", true, "mock")
	if err := svc.Shutdown(); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	// A fresh engine sees the completed task on disk.
	engine2 := storage.NewEngine(storage.NewFilesystemRepository(root), events.NewDispatcher(), nil, time.Hour)
	result, err := engine2.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	task, ok := result.State.Task("duty-roulette")
	if !ok || !task.Completed {
		t.Fatalf("final state must be on disk after shutdown")
	}
}
