package vacation_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/hr-backend/vacation"
)

// Two sequential periods matching the classic setup: P1 closed with a
// remnant, P2 still generating.
func twoPeriods() []vacation.PeriodBalance {
	return []vacation.PeriodBalance{
		{
			ID:       1,
			Label:    "2023-2024",
			Start:    date(2023, time.December, 1),
			End:      date(2024, time.November, 30),
			Allotted: 30, Taken: 23, Pending: 7,
		},
		{
			ID:       2,
			Label:    "2024-2025",
			Start:    date(2024, time.December, 1),
			End:      date(2025, time.November, 30),
			Allotted: 30, Pending: 30,
		},
	}
}

// =============================================================================
// DECISION ENGINE
// =============================================================================

func TestEvaluate_NoPeriods(t *testing.T) {
	d := vacation.Evaluate(nil, vacation.NewDateRange(date(2025, time.January, 1), date(2025, time.January, 5)), nil)

	assert.True(t, d.RequiresAgreement)
	assert.Nil(t, d.BasePeriod)
	assert.Contains(t, d.Reason, "no periods registered")
}

func TestEvaluate_InsideEnjoymentWindow_NoAgreement(t *testing.T) {
	// GIVEN: base period 2024-2025 with 30 pending days
	// WHEN: requesting days inside its enjoyment window (2025-12 .. 2026-11)
	// THEN: no agreement required, no accumulated period

	periods := twoPeriods()
	request := vacation.NewDateRange(date(2026, time.January, 5), date(2026, time.January, 14))

	d := vacation.Evaluate(periods, request, nil)

	assert.False(t, d.RequiresAgreement)
	require.NotNil(t, d.BasePeriod)
	assert.Equal(t, "2024-2025", d.BasePeriod.Label)
	assert.Nil(t, d.AccumulatedPeriod)
}

func TestEvaluate_OutsideWindow_SufficientAcrossPeriods(t *testing.T) {
	// GIVEN: P1 pending=7, P2 pending=30
	// WHEN: requesting 10 days outside the base period's enjoyment window
	// THEN: agreement required, secondary period identified

	periods := twoPeriods()
	request := vacation.NewDateRange(date(2025, time.January, 1), date(2025, time.January, 10))

	d := vacation.Evaluate(periods, request, nil)

	assert.True(t, d.RequiresAgreement)
	assert.False(t, d.Shortfall())
	assert.Equal(t, 10, d.RequestedDays)
	assert.Equal(t, 37, d.AvailableDays)
	require.NotNil(t, d.BasePeriod)
	assert.Equal(t, "2024-2025", d.BasePeriod.Label, "most recently started period with balance")
	require.NotNil(t, d.AccumulatedPeriod)
	assert.Equal(t, "2023-2024", d.AccumulatedPeriod.Label)
}

func TestEvaluate_InsideWindow_InsufficientBase_Shortfall(t *testing.T) {
	// GIVEN: a single period with only 5 pending days
	// WHEN: requesting 10 days inside its enjoyment window
	// THEN: no agreement, but Shortfall() flags that the base period
	//       cannot cover the draw

	periods := []vacation.PeriodBalance{{
		ID:       1,
		Label:    "2023-2024",
		Start:    date(2023, time.December, 1),
		End:      date(2024, time.November, 30),
		Allotted: 30, Taken: 25, Pending: 5,
	}}
	request := vacation.NewDateRange(date(2025, time.January, 5), date(2025, time.January, 14))

	d := vacation.Evaluate(periods, request, nil)

	assert.False(t, d.RequiresAgreement)
	assert.True(t, d.Shortfall())
	assert.Equal(t, 10, d.RequestedDays)
	assert.Equal(t, 5, d.AvailableDays)
}

func TestEvaluate_InsufficientTotal_ReportedNotRaised(t *testing.T) {
	// GIVEN: only 5 days available in total
	// WHEN: requesting 10 days outside any enjoyment window
	// THEN: still "requires agreement"; the reason cites 5 < 10 and
	//       Shortfall() flags the gap. The engine never errors here.

	periods := []vacation.PeriodBalance{{
		ID:       1,
		Label:    "2023-2024",
		Start:    date(2023, time.December, 1),
		End:      date(2024, time.November, 30),
		Allotted: 30, Taken: 25, Pending: 5,
	}}
	request := vacation.NewDateRange(date(2026, time.June, 1), date(2026, time.June, 10))

	d := vacation.Evaluate(periods, request, nil)

	assert.True(t, d.RequiresAgreement)
	assert.True(t, d.Shortfall())
	assert.Contains(t, d.Reason, "5 < 10")
}

func TestEvaluate_ForcedPeriod_InsideItsWindows(t *testing.T) {
	periods := twoPeriods()
	forced := &periods[0] // 2023-2024

	// Inside the forced period's own generation window.
	gen := vacation.NewDateRange(date(2024, time.March, 1), date(2024, time.March, 5))
	d := vacation.Evaluate(periods, gen, forced)
	assert.False(t, d.RequiresAgreement)
	assert.Equal(t, "2023-2024", d.BasePeriod.Label)

	// Inside the forced period's enjoyment window (2024-12 .. 2025-11).
	goce := vacation.NewDateRange(date(2025, time.February, 1), date(2025, time.February, 7))
	d = vacation.Evaluate(periods, goce, forced)
	assert.False(t, d.RequiresAgreement)
	assert.Equal(t, "2023-2024", d.BasePeriod.Label)
}

func TestEvaluate_ForcedPeriod_OutsideWindows_StaysPreferredBase(t *testing.T) {
	// A forced period that doesn't contain the request falls through to the
	// accumulation path but remains the base (P1) draw source.
	periods := twoPeriods()
	forced := &periods[0]
	request := vacation.NewDateRange(date(2026, time.June, 1), date(2026, time.June, 10))

	d := vacation.Evaluate(periods, request, forced)

	assert.True(t, d.RequiresAgreement)
	require.NotNil(t, d.BasePeriod)
	assert.Equal(t, "2023-2024", d.BasePeriod.Label)
	require.NotNil(t, d.AccumulatedPeriod)
	assert.Equal(t, "2024-2025", d.AccumulatedPeriod.Label)
}

func TestEvaluate_WindowBoundsInclusive(t *testing.T) {
	periods := twoPeriods()
	window := vacation.EnjoymentWindow(periods[1]) // 2025-12-01 .. 2026-11-30

	onStart := vacation.NewDateRange(window.Start, window.Start.AddDate(0, 0, 4))
	onEnd := vacation.NewDateRange(window.End.AddDate(0, 0, -4), window.End)

	assert.False(t, vacation.Evaluate(periods, onStart, nil).RequiresAgreement)
	assert.False(t, vacation.Evaluate(periods, onEnd, nil).RequiresAgreement)

	// One day past the end is outside.
	past := vacation.NewDateRange(window.End, window.End.AddDate(0, 0, 1))
	assert.True(t, vacation.Evaluate(periods, past, nil).RequiresAgreement)
}

func TestEvaluate_NoBalanceAnywhere_LatestPeriodIsBase(t *testing.T) {
	periods := []vacation.PeriodBalance{
		{ID: 1, Label: "2022-2023", Start: date(2022, time.December, 1), End: date(2023, time.November, 30), Allotted: 30, Taken: 30},
		{ID: 2, Label: "2023-2024", Start: date(2023, time.December, 1), End: date(2024, time.November, 30), Allotted: 30, Taken: 30},
	}
	request := vacation.NewDateRange(date(2026, time.June, 1), date(2026, time.June, 3))

	d := vacation.Evaluate(periods, request, nil)

	assert.True(t, d.RequiresAgreement)
	assert.True(t, d.Shortfall())
	require.NotNil(t, d.BasePeriod)
	assert.Equal(t, "2023-2024", d.BasePeriod.Label)
	assert.Nil(t, d.AccumulatedPeriod)
}
