package checklist

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// Completion lifecycle states. These must remain untyped string constants
// for statekit.StateID compatibility. The "locked" states carry the manual
// override: detector events have no transitions out of them, so a manual
// decision stands until the governing reset fires.
const (
	StateOpen       = "open"
	StateDone       = "done"
	StateOpenLocked = "open_locked"
	StateDoneLocked = "done_locked"
)

// Completion lifecycle events.
const (
	EventDetectComplete   = "detect_complete"
	EventDetectIncomplete = "detect_incomplete"
	EventManualComplete   = "manual_complete"
	EventManualClear      = "manual_clear"
	EventReset            = "reset"
)

// init validates at startup that the FSM states and the task flag pairs they
// encode stay in sync: applying a state to a task and reading it back must
// round-trip for all four states.
func init() {
	for _, state := range []string{StateOpen, StateDone, StateOpenLocked, StateDoneLocked} {
		t := NewTask("check", "check", CategoryDaily, ModeManual)
		ApplyState(t, state, time.Unix(0, 0))
		if got := CompletionState(t); got != state {
			panic(fmt.Sprintf("FSM state %q does not round-trip through task flags (got %q)", state, got))
		}
	}
}

// CompletionState returns the FSM state matching a task's completion and
// override flags.
func CompletionState(t *Task) string {
	switch {
	case t.ManualOverride && t.Completed:
		return StateDoneLocked
	case t.ManualOverride:
		return StateOpenLocked
	case t.Completed:
		return StateDone
	default:
		return StateOpen
	}
}

// ApplyState writes a lifecycle state back onto a task's flags, counters and
// timestamp.
func ApplyState(t *Task, state string, at time.Time) {
	switch state {
	case StateOpen:
		t.SetCompleted(false, at)
		t.ManualOverride = false
	case StateDone:
		t.SetCompleted(true, at)
		t.ManualOverride = false
	case StateOpenLocked:
		t.SetCompleted(false, at)
		t.ManualOverride = true
	case StateDoneLocked:
		t.SetCompleted(true, at)
		t.ManualOverride = true
	default:
		panic(fmt.Sprintf("checklist: unknown completion state %q", state))
	}
}

type completionContext struct {
	Key string
}

// CompletionMachine is the transition authority for a single task's
// completion lifecycle. Callers build one at the task's current state, send
// an event, and write the resulting state back with ApplyState.
type CompletionMachine struct {
	interpreter *statekit.Interpreter[completionContext]
}

// NewCompletionMachine builds the machine starting at the given state.
func NewCompletionMachine(initial string, key string) (*CompletionMachine, error) {
	builder := statekit.NewMachine[completionContext]("task-completion").
		WithInitial(statekit.StateID(initial)).
		WithContext(completionContext{Key: key})

	builder.State(StateOpen).
		On(EventDetectComplete).Target(StateDone).
		On(EventManualComplete).Target(StateDoneLocked).
		On(EventManualClear).Target(StateOpenLocked).
		Done()

	builder.State(StateDone).
		On(EventDetectIncomplete).Target(StateOpen).
		On(EventManualComplete).Target(StateDoneLocked).
		On(EventManualClear).Target(StateOpenLocked).
		On(EventReset).Target(StateOpen).
		Done()

	builder.State(StateOpenLocked).
		On(EventManualComplete).Target(StateDoneLocked).
		On(EventReset).Target(StateOpen).
		Done()

	builder.State(StateDoneLocked).
		On(EventManualClear).Target(StateOpenLocked).
		On(EventReset).Target(StateOpen).
		Done()

	machine, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build completion machine: %w", err)
	}

	interpreter := statekit.NewInterpreter(machine)
	interpreter.Start()

	return &CompletionMachine{interpreter: interpreter}, nil
}

// Transition sends an event. If the state did not move, the event does not
// apply in the current state (for detector events on a locked task this is
// the override doing its job) and an error is returned.
func (m *CompletionMachine) Transition(event string) error {
	before := m.Current()
	m.interpreter.Send(statekit.Event{Type: statekit.EventType(event)})
	after := m.Current()

	if before != after {
		return nil
	}
	return fmt.Errorf("event %q does not apply in state %q", event, before)
}

// Current returns the machine's current state.
func (m *CompletionMachine) Current() string {
	return string(m.interpreter.State().Value)
}

// IsLocked reports whether the current state carries a manual override.
func (m *CompletionMachine) IsLocked() bool {
	s := m.Current()
	return s == StateOpenLocked || s == StateDoneLocked
}
