package reset

import (
	"fmt"
	"time"
)

// NextDailyOccurrence returns the next UTC instant the given hour:minute
// occurs after now. The comparison uses >= so an exact-match instant is
// treated as already passed; re-triggering a reset is harmless, missing one
// is not.
func NextDailyOccurrence(now time.Time, hour, minute int) time.Time {
	now = now.UTC()
	occ := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC)
	if !now.Before(occ) {
		occ = occ.AddDate(0, 0, 1)
	}
	return occ
}

// NextWeekdayOccurrence returns the next UTC instant the given weekday and
// hour:minute occurs after now. When today is the target weekday and the
// time has already passed, the result is a full seven days ahead, never zero.
func NextWeekdayOccurrence(now time.Time, weekday time.Weekday, hour, minute int) time.Time {
	now = now.UTC()
	days := (int(weekday) - int(now.Weekday()) + 7) % 7
	occ := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, time.UTC).AddDate(0, 0, days)
	if days == 0 && !now.Before(occ) {
		occ = occ.AddDate(0, 0, 7)
	}
	return occ
}

// FormatDuration renders a duration the way the checklist shows time until a
// reset: "1d 5h", "2h 30m", or "45m". Negative durations render as "0m".
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
