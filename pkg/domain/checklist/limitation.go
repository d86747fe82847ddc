package checklist

// LimitationKind classifies why a detector's coverage is partial.
type LimitationKind string

const (
	// LimitationSessionOnly marks detection that only observes activity
	// happening after the detector started.
	LimitationSessionOnly LimitationKind = "session_only"
	// LimitationStub marks a detector feature that is a known stub.
	LimitationStub LimitationKind = "stub"
	// LimitationIndirect marks detection inferred from a proxy signal rather
	// than the activity itself.
	LimitationIndirect LimitationKind = "indirect"
)

// DetectionLimitation is a static disclosure record a detector publishes so
// the consuming layer can tell users where automatic detection falls short.
// Immutable once constructed.
type DetectionLimitation struct {
	// TaskKey scopes the limitation to one task; empty means it applies to
	// everything the detector covers.
	TaskKey     string         `json:"task_key,omitempty"`
	Kind        LimitationKind `json:"kind"`
	Description string         `json:"description"`
	Reason      string         `json:"reason"`
}
