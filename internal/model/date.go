package model

import "time"

// DateFormat is the external 8-digit date layout (YYYYMMDD).
const DateFormat = "20060102"

// Date returns midnight UTC on the given calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return Date(t.Year(), t.Month(), t.Day())
}

// MinDate is the earliest date a ledger query can start from.
var MinDate = time.Time{}

// MonthBounds returns the first and last day of a calendar month.
func MonthBounds(year int, month time.Month) (start, end time.Time) {
	start = Date(year, month, 1)
	end = start.AddDate(0, 1, -1)
	return start, end
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
