package util

import "time"

// ShortDateLayout is the label format used on charts (e.g. "Jan 05").
const ShortDateLayout = "Jan 02"

// ShortDate formats a day as its chart label.
func ShortDate(t time.Time) string {
    return t.Format(ShortDateLayout)
}

// Day truncates a time to its calendar day in local time.
func Day(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
    ay, am, ad := a.Date()
    by, bm, bd := b.Date()
    return ay == by && am == bm && ad == bd
}

// NextDay returns the calendar day n days after t.
func NextDay(t time.Time, n int) time.Time {
    return Day(t).AddDate(0, 0, n)
}
