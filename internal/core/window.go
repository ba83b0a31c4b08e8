package core

import "time"

// MonthWindow returns the half-open UTC window covering a calendar
// month: [year-month-01T00:00:00Z, nextMonth-01T00:00:00Z).
// time.Date normalizes month 13 to January of the following year, so
// December needs no special case.
func MonthWindow(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	return start, end
}

// PreviousMonthWindow returns the half-open UTC window for the month
// preceding the given one: [prevMonth-01, month-01). January rolls back
// to December of the prior year via the same normalization.
func PreviousMonthWindow(year int, month time.Month) (start, end time.Time) {
	start = time.Date(year, month-1, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start, end
}
