// Package checklist holds the task-completion data model: the Task value
// object, the ChecklistState aggregate, and the reconciler that applies
// crossed reset boundaries to it.
package checklist

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

// Category groups tasks by the reset cadence that governs them.
type Category string

const (
	CategoryDaily             Category = "daily"
	CategoryGrandCompanyDaily Category = "grand_company_daily"
	CategoryWeekly            Category = "weekly"
)

// IsValid reports whether c names a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryDaily, CategoryGrandCompanyDaily, CategoryWeekly:
		return true
	}
	return false
}

// Cadence returns the reset cadence governing tasks of this category.
func (c Category) Cadence() reset.Cadence {
	switch c {
	case CategoryDaily:
		return reset.CadenceDaily
	case CategoryGrandCompanyDaily:
		return reset.CadenceGrandCompany
	case CategoryWeekly:
		return reset.CadenceWeekly
	}
	panic(fmt.Sprintf("checklist: unknown category %q", string(c)))
}

// DetectionMode says how a task's completion gets recorded.
type DetectionMode string

const (
	ModeManual       DetectionMode = "manual"
	ModeAutoDetected DetectionMode = "auto"
	ModeHybrid       DetectionMode = "hybrid"
)

// IsValid reports whether m names a known detection mode.
func (m DetectionMode) IsValid() bool {
	switch m {
	case ModeManual, ModeAutoDetected, ModeHybrid:
		return true
	}
	return false
}

// Task is one trackable recurring activity. The key is stable across the
// whole catalog and never reused for a different activity.
type Task struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Category Category `json:"category"`
	// Cadence pins the task to a reset cadence other than the category
	// default. Empty means the category decides.
	Cadence        reset.Cadence `json:"cadence,omitempty"`
	Mode           DetectionMode `json:"mode"`
	Enabled        bool          `json:"enabled"`
	Completed      bool          `json:"completed"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty"`
	ManualOverride bool          `json:"manual_override"`
	CurrentCount   int           `json:"current_count"`
	MaxCount       int           `json:"max_count"`
}

// NewTask returns an enabled, uncompleted task with a single repetition.
func NewTask(key, name string, category Category, mode DetectionMode) *Task {
	return &Task{
		Key:      key,
		Name:     name,
		Category: category,
		Mode:     mode,
		Enabled:  true,
		MaxCount: 1,
	}
}

// GoverningCadence returns the cadence whose reset clears this task.
func (t *Task) GoverningCadence() reset.Cadence {
	if t.Cadence != "" {
		return t.Cadence
	}
	return t.Category.Cadence()
}

// SetCompleted applies a binary completion value at the given time. Detectors
// only assert binary completion, so the counter snaps to zero or maximum.
func (t *Task) SetCompleted(completed bool, at time.Time) {
	t.Completed = completed
	if completed {
		u := at.UTC()
		t.CompletedAt = &u
		t.CurrentCount = t.MaxCount
	} else {
		t.CompletedAt = nil
		t.CurrentCount = 0
	}
}

// Increment advances the repetition counter by one, completing the task when
// the counter reaches the maximum.
func (t *Task) Increment(at time.Time) {
	if t.CurrentCount < t.MaxCount {
		t.CurrentCount++
	}
	if t.CurrentCount >= t.MaxCount && !t.Completed {
		t.Completed = true
		u := at.UTC()
		t.CompletedAt = &u
	}
}

// ClearForReset clears completion, the manual override, the timestamp and the
// counters when the governing cadence's boundary is crossed.
func (t *Task) ClearForReset() {
	t.Completed = false
	t.CompletedAt = nil
	t.ManualOverride = false
	t.CurrentCount = 0
}

// Validate reports structural defects that make the task unusable. Entries
// failing validation are dropped during post-load repair rather than fixed.
func (t *Task) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("task has no key")
	}
	if !t.Category.IsValid() {
		return fmt.Errorf("task %s: unknown category %q", t.Key, string(t.Category))
	}
	if t.Cadence != "" && !t.Cadence.IsValid() {
		return fmt.Errorf("task %s: unknown cadence %q", t.Key, string(t.Cadence))
	}
	return nil
}

// Repair enforces the counter and timestamp invariants in place, returning
// true if anything had to change. A repaired task is semantically the closest
// valid state to what was loaded.
func (t *Task) Repair(now time.Time) bool {
	changed := false
	if !t.Mode.IsValid() {
		t.Mode = ModeManual
		changed = true
	}
	if t.MaxCount < 1 {
		t.MaxCount = 1
		changed = true
	}
	if t.CurrentCount < 0 {
		t.CurrentCount = 0
		changed = true
	}
	if t.CurrentCount > t.MaxCount {
		t.CurrentCount = t.MaxCount
		changed = true
	}
	if t.CurrentCount >= t.MaxCount && t.MaxCount > 1 && !t.Completed {
		t.Completed = true
		changed = true
	}
	if t.Completed && t.CurrentCount < t.MaxCount {
		t.CurrentCount = t.MaxCount
		changed = true
	}
	if !t.Completed && t.CompletedAt != nil {
		t.CompletedAt = nil
		changed = true
	}
	if t.Completed && t.CompletedAt == nil {
		u := now.UTC()
		t.CompletedAt = &u
		changed = true
	}
	if t.CompletedAt != nil {
		ts := t.CompletedAt.UTC()
		if ts.After(now.UTC()) {
			ts = now.UTC()
			changed = true
		}
		t.CompletedAt = &ts
	}
	return changed
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	c := *t
	if t.CompletedAt != nil {
		u := *t.CompletedAt
		c.CompletedAt = &u
	}
	return &c
}
