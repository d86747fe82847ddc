package checklist

import (
	"fmt"
	"testing"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

func TestNewChecklistStateDefaults(t *testing.T) {
	st := NewChecklistState()
	if st.Version != CurrentVersion {
		t.Fatalf("expected version %d, got %d", CurrentVersion, st.Version)
	}
	if st.Tasks == nil || len(st.Tasks) != 0 {
		t.Fatalf("expected empty initialized task list")
	}
}

func TestChecklistState_TaskLookup(t *testing.T) {
	st := NewChecklistState()
	if err := st.AddTask(NewTask("a", "a", CategoryDaily, ModeManual)); err != nil {
		t.Fatalf("add: %v", err)
	}

	if _, ok := st.Task("a"); !ok {
		t.Errorf("expected to find task a")
	}
	if _, ok := st.Task("missing"); ok {
		t.Errorf("unexpected hit for unknown key")
	}
}

func TestChecklistState_AddTaskRejectsDuplicates(t *testing.T) {
	st := NewChecklistState()
	_ = st.AddTask(NewTask("a", "a", CategoryDaily, ModeManual))
	if err := st.AddTask(NewTask("a", "other", CategoryWeekly, ModeManual)); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestChecklistState_CapTruncatesPreservingFirst(t *testing.T) {
	st := NewChecklistState()
	for i := 0; i < MaxTasks+25; i++ {
		st.Tasks = append(st.Tasks, NewTask(fmt.Sprintf("task-%d", i), "t", CategoryDaily, ModeManual))
	}

	if !st.EnforceCap() {
		t.Fatalf("expected truncation")
	}
	if len(st.Tasks) != MaxTasks {
		t.Fatalf("expected %d tasks, got %d", MaxTasks, len(st.Tasks))
	}
	if st.Tasks[0].Key != "task-0" || st.Tasks[MaxTasks-1].Key != fmt.Sprintf("task-%d", MaxTasks-1) {
		t.Fatalf("truncation must preserve the first entries")
	}
	if st.EnforceCap() {
		t.Fatalf("second enforcement must be a no-op")
	}
}

func TestChecklistState_Stamps(t *testing.T) {
	st := NewChecklistState()
	at := time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC)

	for _, c := range reset.Stamped() {
		if !st.Stamp(c).IsZero() {
			t.Errorf("%s: fresh state must have a zero stamp", c)
		}
		st.SetStamp(c, at)
		if !st.Stamp(c).Equal(at) {
			t.Errorf("%s: stamp round-trip failed", c)
		}
	}
}

func TestChecklistState_StampUnknownCadencePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unstamped cadence")
		}
	}()
	NewChecklistState().Stamp(reset.CadenceFashionReport)
}

func TestChecklistState_CloneIsDeep(t *testing.T) {
	st := NewChecklistState()
	st.Owner = &Owner{ID: 42, Name: "Alia"}
	_ = st.AddTask(NewTask("a", "a", CategoryDaily, ModeManual))

	clone := st.Clone()
	clone.Owner.Name = "Other"
	clone.Tasks[0].Completed = true
	clone.SetStamp(reset.CadenceDaily, time.Now())

	if st.Owner.Name != "Alia" {
		t.Errorf("owner must be deep-copied")
	}
	if st.Tasks[0].Completed {
		t.Errorf("tasks must be deep-copied")
	}
	if !st.Resets.Daily.IsZero() {
		t.Errorf("stamps must be copied by value")
	}
}
