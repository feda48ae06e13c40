package hydro

import "time"

const minutesPerDay = 24 * 60

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats the calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// sameDay reports whether a falls on the calendar day starting at dayStart,
// evaluated in dayStart's location.
func sameDay(a, dayStart time.Time) bool {
	y1, m1, d1 := a.In(dayStart.Location()).Date()
	y2, m2, d2 := dayStart.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// nextDay returns midnight of the following calendar day. AddDate keeps
// this correct across DST changes where a day is not 24h long.
func nextDay(dayStart time.Time) time.Time {
	return StartOfDay(dayStart.AddDate(0, 0, 1))
}
