package vacation

import "time"

// =============================================================================
// APPORTIONMENT ENGINE - Strict P1-then-P2 draw with date splitting
// =============================================================================

// Apportion draws requestedDays from two ordered balances, exhausting P1
// before touching P2. Negative balances count as zero. The sum of the draws
// may fall short of the request; callers must detect that (Covered) and
// abort the whole operation rather than commit a partial draw.
func Apportion(requestedDays, p1Available, p2Available int) (fromP1, fromP2 int) {
	if requestedDays <= 0 {
		return 0, 0
	}
	if p1Available < 0 {
		p1Available = 0
	}
	if p2Available < 0 {
		p2Available = 0
	}

	fromP1 = requestedDays
	if p1Available < fromP1 {
		fromP1 = p1Available
	}
	fromP2 = requestedDays - fromP1
	if p2Available < fromP2 {
		fromP2 = p2Available
	}
	return fromP1, fromP2
}

// SplitRange cuts a contiguous request starting at start into the two
// calendar sub-ranges matching the draws:
//
//	range1 = [start, start + fromP1 - 1]          (nil when fromP1 == 0)
//	range2 = [end(range1)+1, ... + fromP2 - 1]    (starts at start when range1 is nil)
//
// These ranges travel with the movements: downstream documents print which
// days were enjoyed against which period, not the undivided request.
func SplitRange(start time.Time, fromP1, fromP2 int) (range1, range2 *DateRange) {
	start = Day(start)

	if fromP1 > 0 {
		r := DateRange{Start: start, End: start.AddDate(0, 0, fromP1-1)}
		range1 = &r
	}

	if fromP2 > 0 {
		begin := start
		if range1 != nil {
			begin = range1.End.AddDate(0, 0, 1)
		}
		r := DateRange{Start: begin, End: begin.AddDate(0, 0, fromP2-1)}
		range2 = &r
	}

	return range1, range2
}

// ApportionRequest combines Apportion and SplitRange for a concrete request.
func ApportionRequest(request DateRange, p1Available, p2Available int) Apportionment {
	fromP1, fromP2 := Apportion(request.Days(), p1Available, p2Available)
	range1, range2 := SplitRange(request.Start, fromP1, fromP2)
	return Apportionment{FromP1: fromP1, FromP2: fromP2, Range1: range1, Range2: range2}
}
