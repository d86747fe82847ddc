// Package events defines the change notifications this subsystem emits and
// the dispatcher that fans them out to registered handlers. Events are the
// only externally observable completion signals for saves, loads, migrations
// and task mutations.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventTypeTaskStateChanged = "task.state_changed"
	EventTypeSaveCompleted    = "state.save_completed"
	EventTypeLoadCompleted    = "state.load_completed"
	EventTypeStateMigrated    = "state.migrated"
	EventTypeResetApplied     = "reset.applied"
	EventTypeDetectorFailed   = "detector.failed"
)

// Origin says which producer mutated a task.
type Origin string

const (
	OriginManual   Origin = "manual"
	OriginDetector Origin = "detector"
	OriginReset    Origin = "reset"
)

// DomainEvent is the base interface for all events.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// BaseEvent provides common fields for all events.
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBase stamps a fresh event envelope.
func NewBase(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// TaskStateChanged is emitted when a task's completion value changes.
type TaskStateChanged struct {
	BaseEvent
	Key       string `json:"key"`
	Completed bool   `json:"completed"`
	Origin    Origin `json:"origin"`
}

// NewTaskStateChanged creates a TaskStateChanged event.
func NewTaskStateChanged(key string, completed bool, origin Origin) *TaskStateChanged {
	return &TaskStateChanged{
		BaseEvent: NewBase(EventTypeTaskStateChanged),
		Key:       key,
		Completed: completed,
		Origin:    origin,
	}
}

// SaveCompleted is emitted after every physical write attempt.
type SaveCompleted struct {
	BaseEvent
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// NewSaveCompleted creates a SaveCompleted event.
func NewSaveCompleted(err error) *SaveCompleted {
	e := &SaveCompleted{BaseEvent: NewBase(EventTypeSaveCompleted), Success: err == nil}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// LoadCompleted is emitted after the one startup load. Success is false only
// for structural corruption; a missing file loads an empty default cleanly.
type LoadCompleted struct {
	BaseEvent
	Success bool `json:"success"`
	// Repaired distinguishes "loaded clean" from "loaded and silently
	// repaired" for diagnostics.
	Repaired bool `json:"repaired"`
}

// NewLoadCompleted creates a LoadCompleted event.
func NewLoadCompleted(success, repaired bool) *LoadCompleted {
	return &LoadCompleted{BaseEvent: NewBase(EventTypeLoadCompleted), Success: success, Repaired: repaired}
}

// StateMigrated is emitted when a loaded document was upgraded to the
// current schema version.
type StateMigrated struct {
	BaseEvent
	FromVersion int `json:"from_version"`
	ToVersion   int `json:"to_version"`
}

// NewStateMigrated creates a StateMigrated event.
func NewStateMigrated(from, to int) *StateMigrated {
	return &StateMigrated{BaseEvent: NewBase(EventTypeStateMigrated), FromVersion: from, ToVersion: to}
}

// ResetApplied is emitted once per cadence whose boundary was crossed.
type ResetApplied struct {
	BaseEvent
	Cadence  string    `json:"cadence"`
	Boundary time.Time `json:"boundary"`
}

// NewResetApplied creates a ResetApplied event.
func NewResetApplied(cadence string, boundary time.Time) *ResetApplied {
	return &ResetApplied{BaseEvent: NewBase(EventTypeResetApplied), Cadence: cadence, Boundary: boundary}
}

// DetectorFailed is emitted when a detector is disabled for the rest of the
// session after an initialization or signal-handling failure.
type DetectorFailed struct {
	BaseEvent
	Detector string `json:"detector"`
	Reason   string `json:"reason"`
}

// NewDetectorFailed creates a DetectorFailed event.
func NewDetectorFailed(detector, reason string) *DetectorFailed {
	return &DetectorFailed{BaseEvent: NewBase(EventTypeDetectorFailed), Detector: detector, Reason: reason}
}
