package core

import "time"

// Window is a half-open time interval [Start, End) in UTC. Windows are
// constructed from a reference "local now" in the family's timezone and
// converted to UTC once, so boundaries are always compared against stored
// UTC instants and never against local wall-clock values.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// WeekWindow is the trailing seven days ending at now.
func WeekWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	return Window{
		Start: local.AddDate(0, 0, -7).UTC(),
		End:   local.UTC(),
	}
}

// PreviousWeekWindow is the seven days immediately preceding WeekWindow.
// The two windows share a boundary but never overlap.
func PreviousWeekWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	return Window{
		Start: local.AddDate(0, 0, -14).UTC(),
		End:   local.AddDate(0, 0, -7).UTC(),
	}
}

// MonthWindow spans from the first day of the current month at 00:00:00
// local time through now.
func MonthWindow(now time.Time, loc *time.Location) Window {
	local := now.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Window{
		Start: first.UTC(),
		End:   local.UTC(),
	}
}
