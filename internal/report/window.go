package report

import "time"

// Window is the [Start, End] creation-time range for one pipeline run.
type Window struct {
	Start time.Time
	End   time.Time
}

// DayOf returns the reporting window covering the calendar day of t in t's
// location: local midnight through 23:59:59.
func DayOf(t time.Time) Window {
	year, month, day := t.Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	return Window{
		Start: start,
		End:   time.Date(year, month, day, 23, 59, 59, 0, t.Location()),
	}
}
