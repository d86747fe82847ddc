// Package reset implements the recurring UTC reset boundary arithmetic:
// which cadences exist, when each one next occurs, and whether a boundary
// has been crossed since a recorded point in time.
package reset

import (
	"fmt"
	"time"
)

// Cadence identifies one recurring reset schedule. All boundaries are fixed
// instants in UTC; local time never participates in the math.
type Cadence string

const (
	CadenceDaily        Cadence = "daily"
	CadenceGrandCompany Cadence = "grand_company"
	CadenceWeekly       Cadence = "weekly"
	// CadenceJumboCactpot is the weekly lottery drawing. It carries its own
	// stamp because the drawing happens on a different weekday than the
	// weekly reset.
	CadenceJumboCactpot Cadence = "jumbo_cactpot"
	// CadenceFashionReport is query-only: callers can ask when judging opens,
	// but tasks tied to it clear on the weekly stamp.
	CadenceFashionReport Cadence = "fashion_report"
)

type schedule struct {
	weekly  bool
	weekday time.Weekday
	hour    int
	minute  int
}

var schedules = map[Cadence]schedule{
	CadenceDaily:         {hour: 15},
	CadenceGrandCompany:  {hour: 20},
	CadenceWeekly:        {weekly: true, weekday: time.Tuesday, hour: 8},
	CadenceJumboCactpot:  {weekly: true, weekday: time.Saturday, hour: 19},
	CadenceFashionReport: {weekly: true, weekday: time.Friday, hour: 8},
}

// All returns every cadence callers can query.
func All() []Cadence {
	return []Cadence{CadenceDaily, CadenceGrandCompany, CadenceWeekly, CadenceJumboCactpot, CadenceFashionReport}
}

// Stamped returns the cadences that carry their own last-applied-reset stamp
// and therefore participate in reconciliation.
func Stamped() []Cadence {
	return []Cadence{CadenceDaily, CadenceGrandCompany, CadenceWeekly, CadenceJumboCactpot}
}

// IsValid reports whether c names a known cadence.
func (c Cadence) IsValid() bool {
	_, ok := schedules[c]
	return ok
}

func (c Cadence) String() string {
	return string(c)
}

// spec returns the schedule for c. An unknown cadence is a programmer error,
// not a runtime condition, so it panics.
func (c Cadence) spec() schedule {
	s, ok := schedules[c]
	if !ok {
		panic(fmt.Sprintf("reset: unknown cadence %q", string(c)))
	}
	return s
}

// Period returns the length of one reset interval.
func (c Cadence) Period() time.Duration {
	if c.spec().weekly {
		return 7 * 24 * time.Hour
	}
	return 24 * time.Hour
}

// NextOccurrence returns the next boundary strictly after now. A boundary
// that coincides exactly with now counts as already passed, so the result
// lies one full period ahead.
func (c Cadence) NextOccurrence(now time.Time) time.Time {
	s := c.spec()
	if s.weekly {
		return NextWeekdayOccurrence(now, s.weekday, s.hour, s.minute)
	}
	return NextDailyOccurrence(now, s.hour, s.minute)
}

// LastOccurrence returns the most recent boundary at or before now. It is
// derived from NextOccurrence so that Last <= now < Next always holds.
func (c Cadence) LastOccurrence(now time.Time) time.Time {
	return c.NextOccurrence(now).Add(-c.Period())
}

// HasResetOccurredSince reports whether at least one boundary was crossed
// after lastChecked. Any number of missed boundaries answers true exactly
// once; callers advance their stamp to LastOccurrence, collapsing the gap.
func (c Cadence) HasResetOccurredSince(now, lastChecked time.Time) bool {
	return c.LastOccurrence(now).After(lastChecked.UTC())
}

// TimeRemaining returns the duration until the next boundary.
func (c Cadence) TimeRemaining(now time.Time) time.Duration {
	return c.NextOccurrence(now).Sub(now.UTC())
}
