// Package calendar centralizes the month arithmetic that drives billing
// dates, so day-of-month overflow has one tested rule.
package calendar

import "time"

// AddMonths advances t by the given number of calendar months, clamping
// the day to the last valid day of the target month (Jan 31 + 1 month is
// Feb 28, or Feb 29 in a leap year).
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := LastDayOfMonth(target)
	if day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// LastDayOfMonth returns the number of days in t's month.
func LastDayOfMonth(t time.Time) int {
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, t.Location())
	return firstOfNext.AddDate(0, 0, -1).Day()
}

// EffectiveInvoiceDay clamps a configured day-of-month to the month of
// ref: a customer configured for day 31 bills on day 30 of a 30-day month.
func EffectiveInvoiceDay(configuredDay int, ref time.Time) int {
	last := LastDayOfMonth(ref)
	if configuredDay > last {
		return last
	}
	if configuredDay < 1 {
		return 1
	}
	return configuredDay
}

// MonthWindow returns the [start, end) instants bounding ref's month.
func MonthWindow(ref time.Time) (time.Time, time.Time) {
	start := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	return start, start.AddDate(0, 1, 0)
}
