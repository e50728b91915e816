// Package bankday computes calendar-day windows in the bank's operating
// time zone. Daily withdraw/transfer usage is aggregated over these windows.
package bankday

import "time"

// StartOfDay returns midnight of now's calendar day in loc.
func StartOfDay(now time.Time, loc *time.Location) time.Time {
	t := now.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// Window returns the half-open interval [start, end) covering now's
// calendar day in loc.
func Window(now time.Time, loc *time.Location) (start, end time.Time) {
	start = StartOfDay(now, loc)
	return start, start.AddDate(0, 0, 1)
}

// DateKey returns the calendar-day key used by the daily account number
// sequence.
func DateKey(now time.Time, loc *time.Location) string {
	return now.In(loc).Format("2006-01-02")
}
