package vacation

import (
	"fmt"
	"time"
)

// =============================================================================
// DATE-WINDOW CALCULATOR - Periods anchored on the hire date
// =============================================================================

// PeriodFromHireDate computes the Nth annual vacation-generation period.
//
//	start = hireDate + yearOffset years (same month/day)
//	end   = start + 1 year - 1 day
//	label = "{start.year}-{end.year}"
//
// Calendar arithmetic clamps: a Feb 29 hire date maps to Feb 28 in non-leap
// target years instead of rolling into March.
func PeriodFromHireDate(hireDate time.Time, yearOffset int) (label string, start, end time.Time) {
	start = addMonthsClamped(Day(hireDate), 12*yearOffset)
	end = addMonthsClamped(start, 12).AddDate(0, 0, -1)
	label = fmt.Sprintf("%d-%d", start.Year(), end.Year())
	return label, start, end
}

// EnjoymentWindow returns the window during which a generation period's days
// may be taken without an agreement: the period shifted one year forward on
// both bounds.
func EnjoymentWindow(p PeriodBalance) DateRange {
	return DateRange{
		Start: addMonthsClamped(Day(p.Start), 12),
		End:   addMonthsClamped(Day(p.End), 12),
	}
}

// addMonthsClamped adds n months keeping the day-of-month, clamping to the
// last day of the target month when the source day does not exist there
// (Jan 31 + 1 month = Feb 28/29). time.AddDate would normalize into the
// following month instead.
func addMonthsClamped(t time.Time, n int) time.Time {
	year := t.Year() + (int(t.Month())-1+n)/12
	month := time.Month((int(t.Month())-1+n)%12 + 1)
	if month < time.January { // negative n wrapped past January
		month += 12
		year--
	}
	day := t.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1).Day()
}
