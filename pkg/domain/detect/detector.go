// Package detect defines the pluggable completion-detector contract. A
// detector is any source of automatic completion signals for a subset of
// task keys; the aggregator in pkg/detect owns the registry and merges their
// signals. How a detector observes the world is its own business.
package detect

import "github.com/felixgeelhaar/ticklist/pkg/domain/checklist"

// Completion is a detector's tri-state answer for one task key.
type Completion int

const (
	// CompletionUnknown means the detector cannot currently answer, e.g. it
	// has not observed the activity since starting.
	CompletionUnknown Completion = iota
	CompletionIncomplete
	CompletionComplete
)

func (c Completion) String() string {
	switch c {
	case CompletionIncomplete:
		return "incomplete"
	case CompletionComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Signal is one detector-originated completion report. Detectors only assert
// binary completion, never partial counts.
type Signal struct {
	TaskKey   string
	Completed bool
}

// Detector is implemented by every completion source.
//
// Initialize must be idempotent: calling it a second time re-registers the
// emit sink and nothing else. Close must be safe to call regardless of
// whether Initialize ever ran or failed.
type Detector interface {
	// Name uniquely identifies the detector inside the aggregator.
	Name() string
	// SupportedTaskKeys enumerates the task keys this detector can evaluate.
	SupportedTaskKeys() []string
	// Initialize starts observation. Signals are delivered through emit,
	// possibly from another goroutine, until Close.
	Initialize(emit func(Signal)) error
	// CompletionState answers the detector's current belief for a key.
	CompletionState(key string) Completion
	// Limitations discloses where this detector's coverage is partial.
	Limitations() []checklist.DetectionLimitation
	// HasLimitedDetection reports whether Limitations is non-empty.
	HasLimitedDetection() bool
	Close() error
}

// Pollable is implemented by detectors that cannot push signals and instead
// want the aggregator's periodic tick to ask them to re-observe. Poll emits
// through the sink handed to Initialize.
type Pollable interface {
	Poll() error
}
