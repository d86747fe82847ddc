package reset

import "time"

// Scheduler answers occurrence queries against an injectable clock. The zero
// clock falls back to time.Now so production callers construct it with
// NewScheduler and tests pin Now to a fixed instant.
type Scheduler struct {
	Now func() time.Time
}

// NewScheduler returns a scheduler bound to the wall clock.
func NewScheduler() *Scheduler {
	return &Scheduler{Now: time.Now}
}

func (s *Scheduler) now() time.Time {
	if s == nil || s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// NextOccurrence returns the next boundary for the cadence.
func (s *Scheduler) NextOccurrence(c Cadence) time.Time {
	return c.NextOccurrence(s.now())
}

// LastOccurrence returns the most recent boundary for the cadence.
func (s *Scheduler) LastOccurrence(c Cadence) time.Time {
	return c.LastOccurrence(s.now())
}

// HasResetOccurredSince reports whether the cadence crossed a boundary after
// lastChecked.
func (s *Scheduler) HasResetOccurredSince(c Cadence, lastChecked time.Time) bool {
	return c.HasResetOccurredSince(s.now(), lastChecked)
}

// TimeRemaining returns the duration until the cadence's next boundary.
func (s *Scheduler) TimeRemaining(c Cadence) time.Duration {
	return c.TimeRemaining(s.now())
}

// FormatRemaining returns the human-readable time until the next boundary.
func (s *Scheduler) FormatRemaining(c Cadence) string {
	return FormatDuration(s.TimeRemaining(c))
}
