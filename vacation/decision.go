package vacation

import (
	"fmt"
	"sort"
)

// =============================================================================
// DECISION ENGINE - Does this request need a convenio?
// =============================================================================

// Evaluate decides whether a requested date range can be taken normally or
// must draw across periods under an agreement. Pure: no state, no mutation.
//
// Rules, in order:
//  1. No periods at all: degenerate "requires agreement", no base period.
//  2. An explicitly selected period whose generation window or enjoyment
//     window contains the whole request needs no agreement. Otherwise the
//     selected period stays as the preferred base and evaluation continues.
//  3. Default base period: the most recently started period with a positive
//     pending-or-truncated balance, else the latest period overall.
//  4. Whole request inside the base period's enjoyment window: no agreement.
//     The base period's own balance is still the draw limit; Shortfall()
//     reports when it cannot cover the request.
//  5. Outside the window: sum availability across ALL periods. Sufficient or
//     not, the outcome is "requires agreement"; the reason text carries the
//     numbers and Shortfall() tells callers to refuse. Evaluate itself never
//     fails for insufficiency.
//
// All window comparisons are inclusive on both bounds.
func Evaluate(periods []PeriodBalance, request DateRange, forced *PeriodBalance) Decision {
	requestedDays := request.Days()

	if len(periods) == 0 {
		return Decision{
			RequiresAgreement: true,
			Reason:            "no periods registered",
			RequestedDays:     requestedDays,
		}
	}

	var base *PeriodBalance
	if forced != nil {
		inGeneration := forced.GenerationWindow().ContainsRange(request)
		inEnjoyment := EnjoymentWindow(*forced).ContainsRange(request)
		if inGeneration || inEnjoyment {
			f := *forced
			return Decision{
				RequiresAgreement: false,
				Reason:            "requested range inside the selected period (generation/enjoyment window)",
				BasePeriod:        &f,
				RequestedDays:     requestedDays,
				AvailableDays:     f.Available(),
			}
		}
		f := *forced
		base = &f
	}

	sorted := make([]PeriodBalance, len(periods))
	copy(sorted, periods)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	if base == nil {
		for i := len(sorted) - 1; i >= 0; i-- {
			if sorted[i].Available() > 0 {
				p := sorted[i]
				base = &p
				break
			}
		}
		if base == nil {
			p := sorted[len(sorted)-1]
			base = &p
		}
	}

	window := EnjoymentWindow(*base)
	if window.ContainsRange(request) {
		return Decision{
			RequiresAgreement: false,
			Reason:            fmt.Sprintf("requested range inside the enjoyment window %s", window),
			BasePeriod:        base,
			RequestedDays:     requestedDays,
			AvailableDays:     base.Available(),
		}
	}

	totalAvailable := 0
	for _, p := range periods {
		totalAvailable += p.Available()
	}

	// Secondary draw source: the most recent other period with balance.
	var accumulated *PeriodBalance
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].ID != base.ID && sorted[i].Available() > 0 {
			p := sorted[i]
			accumulated = &p
			break
		}
	}

	if totalAvailable >= requestedDays {
		return Decision{
			RequiresAgreement: true,
			Reason:            fmt.Sprintf("outside the enjoyment window; %d days available across periods", totalAvailable),
			BasePeriod:        base,
			AccumulatedPeriod: accumulated,
			RequestedDays:     requestedDays,
			AvailableDays:     totalAvailable,
		}
	}

	return Decision{
		RequiresAgreement: true,
		Reason:            fmt.Sprintf("outside the enjoyment window and not enough days available (%d < %d)", totalAvailable, requestedDays),
		BasePeriod:        base,
		AccumulatedPeriod: accumulated,
		RequestedDays:     requestedDays,
		AvailableDays:     totalAvailable,
	}
}
