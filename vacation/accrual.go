package vacation

import "time"

// =============================================================================
// ACCRUAL CALCULATOR - Truncated pro-rata accrual
// =============================================================================

// AccruedDays computes how many days have accrued by asOf within a generation
// period, at a rate of cap/12 days per whole month plus a pro-rata share of
// the partial month, truncated to an integer and capped.
//
//	effectiveStart = max(periodStart, hireDate)
//	asOf <  effectiveStart -> 0
//	asOf >= periodEnd      -> cap
//	otherwise              -> floor(wholeMonths*rate + daysInto/30*rate)
//
// The truncation (not rounding) favors the employer and is policy, not an
// approximation: 5 months and 29 days at 2.5/month is 14 days, never 15.
//
// Computed in exact integer arithmetic: the formula above equals
// floor(cap * (30*wholeMonths + daysInto) / 360).
func AccruedDays(hireDate, asOf, periodStart, periodEnd time.Time, cap int) int {
	asOf = Day(asOf)
	effectiveStart := Day(periodStart)
	if h := Day(hireDate); !h.IsZero() && h.After(effectiveStart) {
		effectiveStart = h
	}

	if asOf.Before(effectiveStart) {
		return 0
	}
	if !asOf.Before(Day(periodEnd)) {
		return cap
	}

	wholeMonths := (asOf.Year()-effectiveStart.Year())*12 + int(asOf.Month()) - int(effectiveStart.Month())
	if asOf.Day() < effectiveStart.Day() {
		wholeMonths--
	}
	if wholeMonths < 0 {
		wholeMonths = 0
	}

	// Days into the current partial month, measured from the last completed
	// month anniversary.
	reference := addMonthsClamped(effectiveStart, wholeMonths)
	daysInto := daysBetween(reference, asOf)
	if daysInto < 0 {
		daysInto = 0
	}

	accrued := cap * (30*wholeMonths + daysInto) / 360
	if accrued > cap {
		accrued = cap
	}
	return accrued
}
