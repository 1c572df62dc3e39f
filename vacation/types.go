/*
Package vacation implements the vacation-day accrual and apportionment engine.

PURPOSE:

	This package contains the business rules for annual vacation periods:
	how periods are derived from a hire date, how days accrue month by month,
	when a request needs a cross-period agreement ("convenio"), and how a
	multi-day request is split across two sequential balances.

KEY CONCEPTS:
  - PeriodBalance: One annual accrual cycle with its running counters
  - DateRange:     An inclusive calendar range at day granularity
  - Decision:      Whether a request needs an agreement, and from where
  - Apportionment: How many days each of the two balances contributes

DESIGN PRINCIPLES:
 1. Purity: Every function here takes plain values and returns plain values.
    No ORM, no HTTP, no ambient session. Persistence happens in service/.
 2. The movement ledger is authoritative: period counters are a derived
    cache that Replay can always rebuild.
 3. Insufficiency is reported, never raised: Evaluate describes the
    shortfall in its reason text and the caller refuses the request.

SEE ALSO:
  - window.go:    Generation period and enjoyment window calculation
  - accrual.go:   Truncated pro-rata accrual
  - decision.go:  Agreement-required decision
  - apportion.go: Two-bucket draw and date-range split
  - recompute.go: Ledger replay into period counters
*/
package vacation

import (
	"fmt"
	"time"
)

// DefaultAllottedDays is the normal annual allotment.
const DefaultAllottedDays = 30

// =============================================================================
// DATE RANGE - Inclusive calendar range at day granularity
// =============================================================================

// DateRange is an inclusive [Start, End] range. Both bounds count.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range from two dates, normalized to day granularity.
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Day(start), End: Day(end)}
}

// Days returns the inclusive length of the range in days.
func (r DateRange) Days() int {
	if r.End.Before(r.Start) {
		return 0
	}
	return daysBetween(r.Start, r.End) + 1
}

// Contains reports whether d falls inside the range, bounds included.
func (r DateRange) Contains(d time.Time) bool {
	d = Day(d)
	return !d.Before(r.Start) && !d.After(r.End)
}

// ContainsRange reports whether the whole of other falls inside r.
func (r DateRange) ContainsRange(other DateRange) bool {
	return r.Contains(other.Start) && r.Contains(other.End)
}

// IsValid reports whether the range is well-formed (end not before start).
func (r DateRange) IsValid() bool {
	return !r.End.Before(r.Start)
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"))
}

// Day truncates a time to UTC day granularity. All engine arithmetic
// happens on day-truncated values.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// =============================================================================
// PERIOD BALANCE - One annual accrual cycle with running counters
// =============================================================================

// PeriodBalance is the engine's view of one vacation period. It mirrors the
// persisted VacationPeriod row but carries no ORM baggage.
//
// Counters:
//   - Allotted:  total days granted for the cycle (normally 30)
//   - Taken:     days already consumed
//   - Pending:   finalized days still available
//   - Truncated: accrued-but-not-finalized days (only while the period
//     has not yet ended)
type PeriodBalance struct {
	ID        uint
	Label     string // "2024-2025"
	Start     time.Time
	End       time.Time
	Allotted  int
	Taken     int
	Pending   int
	Truncated int
}

// Available returns the days this period can still contribute:
// pending plus truncated, never negative.
func (p PeriodBalance) Available() int {
	avail := 0
	if p.Pending > 0 {
		avail += p.Pending
	}
	if p.Truncated > 0 {
		avail += p.Truncated
	}
	return avail
}

// GenerationWindow is the period's own calendar year, during which it accrues.
func (p PeriodBalance) GenerationWindow() DateRange {
	return NewDateRange(p.Start, p.End)
}

// =============================================================================
// MOVEMENT KINDS - Ledger entry vocabulary
// =============================================================================

// Movement kinds. The initial grant ("ALTA") is recorded with the period's
// own label as its kind, so it is matched by label rather than a constant.
const (
	KindGoce      = "GOCE"
	KindSolicitud = "SOLICITUD_VACACIONES"
	KindAjuste    = "AJUSTE"
	KindConvenio  = "CONVENIO"
	KindTrunco    = "TRUNCO"
)

// LedgerEntry is the engine's view of one movement: just enough to replay.
// Days are signed; consumption kinds are stored negative by convention but
// Replay uses magnitudes for them, so either sign reconstructs the same state.
type LedgerEntry struct {
	Kind string
	Days int
}

// IsConsumption reports whether the kind draws days from a period.
func IsConsumption(kind string) bool {
	return kind == KindGoce || kind == KindSolicitud || kind == KindConvenio
}

// =============================================================================
// DECISION - Outcome of evaluating a vacation request
// =============================================================================

// Decision is the outcome of Evaluate. RequiresAgreement=true does NOT mean
// the request is viable: when the total available days fall short, the
// decision still reads "requires agreement" and Shortfall() reports the gap.
// Callers must refuse shortfall decisions before applying anything.
type Decision struct {
	RequiresAgreement bool
	Reason            string

	// BasePeriod is the primary draw source (P1). Nil only in the
	// degenerate no-periods case.
	BasePeriod *PeriodBalance

	// AccumulatedPeriod is the secondary draw source (P2) when an
	// agreement is required and another period has balance. Nil otherwise.
	AccumulatedPeriod *PeriodBalance

	RequestedDays int
	AvailableDays int
}

// Shortfall reports whether the draw source cannot cover the request:
// the base period alone on the simple path, all periods together on the
// agreement path. AvailableDays already holds the right total for each.
func (d Decision) Shortfall() bool {
	return d.AvailableDays < d.RequestedDays
}

// =============================================================================
// APPORTIONMENT - Two-bucket draw with calendar sub-ranges
// =============================================================================

// Apportionment records how a request splits across the two bolsas.
// Range1/Range2 are nil when the matching draw is zero.
type Apportionment struct {
	FromP1 int
	FromP2 int
	Range1 *DateRange
	Range2 *DateRange
}

// Covered reports whether the two draws cover the full request.
func (a Apportionment) Covered(requestedDays int) bool {
	return a.FromP1+a.FromP2 == requestedDays
}
