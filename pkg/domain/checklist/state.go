package checklist

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/ticklist/pkg/domain/reset"
)

// CurrentVersion is the persisted document schema version. Version 2 added
// the jumbo cactpot stamp.
const CurrentVersion = 2

// MaxTasks caps the task collection. A document exceeding the cap is
// truncated to its first MaxTasks entries rather than rejected, so a
// corrupted file cannot grow the state without bound.
const MaxTasks = 500

// Owner identifies which profile a state belongs to.
type Owner struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ResetStamps records the last boundary applied per stamped cadence. All
// stamps are UTC instants; a zero stamp means the cadence has never been
// reconciled, which the reconciler treats as infinitely far in the past.
type ResetStamps struct {
	Daily        time.Time `json:"daily"`
	GrandCompany time.Time `json:"grand_company"`
	Weekly       time.Time `json:"weekly"`
	JumboCactpot time.Time `json:"jumbo_cactpot"`
}

// ChecklistState is the aggregate root: every task plus the bookkeeping the
// scheduler and persistence engine need.
type ChecklistState struct {
	Version      int         `json:"version"`
	Owner        *Owner      `json:"owner,omitempty"`
	Tasks        []*Task     `json:"tasks"`
	Resets       ResetStamps `json:"resets"`
	LastSaveTime time.Time   `json:"last_save_time"`
}

// NewChecklistState returns an empty state at the current schema version.
func NewChecklistState() *ChecklistState {
	return &ChecklistState{
		Version: CurrentVersion,
		Tasks:   []*Task{},
	}
}

// Task returns the task with the given key.
func (s *ChecklistState) Task(key string) (*Task, bool) {
	for _, t := range s.Tasks {
		if t.Key == key {
			return t, true
		}
	}
	return nil, false
}

// AddTask appends a task, rejecting duplicate keys. Adding past the cap is
// silently ignored; the first MaxTasks entries win.
func (s *ChecklistState) AddTask(t *Task) error {
	if _, exists := s.Task(t.Key); exists {
		return fmt.Errorf("duplicate task key %q", t.Key)
	}
	if len(s.Tasks) >= MaxTasks {
		return nil
	}
	s.Tasks = append(s.Tasks, t)
	return nil
}

// EnforceCap truncates the task collection to MaxTasks, returning true if
// anything was dropped.
func (s *ChecklistState) EnforceCap() bool {
	if len(s.Tasks) <= MaxTasks {
		return false
	}
	s.Tasks = s.Tasks[:MaxTasks]
	return true
}

// Stamp returns the last-applied-reset stamp for a stamped cadence. Asking
// for an unstamped or unknown cadence is a programmer error.
func (s *ChecklistState) Stamp(c reset.Cadence) time.Time {
	switch c {
	case reset.CadenceDaily:
		return s.Resets.Daily
	case reset.CadenceGrandCompany:
		return s.Resets.GrandCompany
	case reset.CadenceWeekly:
		return s.Resets.Weekly
	case reset.CadenceJumboCactpot:
		return s.Resets.JumboCactpot
	}
	panic(fmt.Sprintf("checklist: no stamp for cadence %q", string(c)))
}

// SetStamp records the last boundary applied for a stamped cadence.
func (s *ChecklistState) SetStamp(c reset.Cadence, at time.Time) {
	at = at.UTC()
	switch c {
	case reset.CadenceDaily:
		s.Resets.Daily = at
	case reset.CadenceGrandCompany:
		s.Resets.GrandCompany = at
	case reset.CadenceWeekly:
		s.Resets.Weekly = at
	case reset.CadenceJumboCactpot:
		s.Resets.JumboCactpot = at
	default:
		panic(fmt.Sprintf("checklist: no stamp for cadence %q", string(c)))
	}
}

// Clone returns a deep copy suitable for snapshotting before an asynchronous
// write.
func (s *ChecklistState) Clone() *ChecklistState {
	c := *s
	if s.Owner != nil {
		o := *s.Owner
		c.Owner = &o
	}
	c.Tasks = make([]*Task, len(s.Tasks))
	for i, t := range s.Tasks {
		c.Tasks[i] = t.Clone()
	}
	return &c
}
