package domain

import "time"

// Reports are keyed by civil day. Day normalizes an instant to midnight UTC so
// (user, date) lookups and range arithmetic agree regardless of wall-clock
// location.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InclusiveDays counts the days in [start, end], both normalized to civil
// days. A reversed range counts as 0, never negative.
func InclusiveDays(start, end time.Time) int {
	s, e := Day(start), Day(end)
	if e.Before(s) {
		return 0
	}
	return int(e.Sub(s).Hours()/24) + 1
}
