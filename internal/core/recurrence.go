package core

import "time"

// monthIndex flattens a date to a month count so comparisons ignore the day.
func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// Matches reports whether rt applies to the calendar month containing target.
// The start month always matches; later months match on the frequency's
// cadence counted from the start month. An end date is inclusive by month.
func Matches(rt RecurringTransaction, target time.Time) bool {
	start := monthIndex(rt.StartDate)
	month := monthIndex(target)
	if month < start {
		return false
	}
	if rt.EndDate != nil && month > monthIndex(*rt.EndDate) {
		return false
	}
	diff := month - start
	switch rt.Frequency {
	case Monthly:
		return true
	case Quarterly:
		return diff%3 == 0
	case Semester:
		return diff%6 == 0
	case Annually:
		return diff%12 == 0
	default:
		return false
	}
}
