/*
vacation.go - Vacation request orchestration over the movement ledger

PURPOSE:

	Turns a pure decision (vacation.Evaluate) into persisted state: period
	counters, ledger movements, and - for cross-period requests - an
	Agreement row with its CONVENIO movements. Everything a single request
	touches commits in ONE gorm transaction, under the employee's mutex.

FLOW (ApplyRequest):
 1. Lock the employee.
 2. Load periods, evaluate the request.
 3. Shortfall? Return InsufficientBalanceError, nothing applied.
 4. Simple case: one SOLICITUD_VACACIONES movement on the base period.
 5. Agreement case: apportion across the two bolsas, split the calendar
    range, write the Agreement plus one CONVENIO movement per draw.

BALANCE BOOKKEEPING:

	A draw of N days adds N to taken and removes N from pending first,
	then truncated. This matches what vacation.Replay reconstructs from
	the ledger, so counters and movements never disagree.

SEE ALSO:
  - vacation/decision.go: the pure decision engine
  - vacation/recompute.go: ledger replay after edits
*/
package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/warp/hr-backend/store"
	"github.com/warp/hr-backend/vacation"
)

// VacationService owns every balance-mutating vacation operation.
type VacationService struct {
	db    *gorm.DB
	log   logrus.FieldLogger
	locks *employeeLocks
}

func NewVacationService(db *gorm.DB, log logrus.FieldLogger) *VacationService {
	return &VacationService{db: db, log: log, locks: newEmployeeLocks()}
}

// RequestResult is what ApplyRequest hands back: the decision that drove
// it, the split when an agreement was needed, and the rows it wrote.
type RequestResult struct {
	Decision      vacation.Decision       `json:"decision"`
	Apportionment *vacation.Apportionment `json:"apportionment,omitempty"`
	Agreement     *store.Agreement        `json:"agreement,omitempty"`
	Movements     []store.Movement        `json:"movements"`
}

// =============================================================================
// PERIODS
// =============================================================================

// CreatePeriod opens the employee's next annual period: bounds come from
// the hire date, and the initial grant is recorded as an ALTA movement
// (kind == the period's own label) so replay can rebuild the balance.
func (s *VacationService) CreatePeriod(employeeID uint, yearOffset int) (*store.VacationPeriod, error) {
	emp, err := store.NewGormEmployeeRepository(s.db).GetByID(employeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, vacation.ErrNotFound
	}
	if emp.HireDate == nil {
		return nil, &vacation.ValidationError{Field: "hire_date", Message: "employee has no hire date"}
	}

	label, start, end := vacation.PeriodFromHireDate(*emp.HireDate, yearOffset)

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	var period *store.VacationPeriod
	err = s.db.Transaction(func(tx *gorm.DB) error {
		periods := store.NewGormPeriodRepository(tx)
		existing, err := periods.ListByEmployee(employeeID)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if p.Label == label {
				return &vacation.ValidationError{Field: "label", Message: fmt.Sprintf("period %s already exists", label)}
			}
		}

		period = &store.VacationPeriod{
			EmployeeID:   employeeID,
			Label:        label,
			StartDate:    start,
			EndDate:      end,
			AllottedDays: vacation.DefaultAllottedDays,
			PendingDays:  vacation.DefaultAllottedDays,
		}
		if err := periods.Create(period); err != nil {
			return err
		}

		grant := &store.Movement{
			EmployeeID:       employeeID,
			PeriodID:         period.ID,
			Kind:             label,
			Date:             vacation.Day(time.Now()),
			Days:             period.AllottedDays,
			ResultingBalance: period.PendingDays,
		}
		return store.NewGormMovementRepository(tx).Create(grant)
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"employee_id": employeeID, "label": label}).Info("vacation period created")
	return period, nil
}

// =============================================================================
// REQUESTS
// =============================================================================

// EvaluateRequest is the dry-run: it runs the decision engine against the
// employee's current balances without writing anything.
func (s *VacationService) EvaluateRequest(employeeID uint, request vacation.DateRange, forcedPeriodID *uint) (vacation.Decision, error) {
	if !request.IsValid() {
		return vacation.Decision{}, vacation.ErrInvalidRange
	}
	balances, err := s.loadBalances(s.db, employeeID)
	if err != nil {
		return vacation.Decision{}, err
	}
	return vacation.Evaluate(balances, request, forcedBalance(balances, forcedPeriodID)), nil
}

// ApplyRequest evaluates and, when viable, persists the request. On a
// shortfall it returns *vacation.InsufficientBalanceError and leaves the
// database untouched.
func (s *VacationService) ApplyRequest(employeeID uint, request vacation.DateRange, forcedPeriodID *uint, description string) (*RequestResult, error) {
	return s.apply(employeeID, request, forcedPeriodID, description, false)
}

// ApplyAgreementRequest applies a request that must span two periods. A
// request that fits in a single period is rejected before anything is
// written, so the caller can fall back to the plain request flow.
func (s *VacationService) ApplyAgreementRequest(employeeID uint, request vacation.DateRange, forcedPeriodID *uint, description string) (*RequestResult, error) {
	return s.apply(employeeID, request, forcedPeriodID, description, true)
}

func (s *VacationService) apply(employeeID uint, request vacation.DateRange, forcedPeriodID *uint, description string, mustSpan bool) (*RequestResult, error) {
	if !request.IsValid() {
		return nil, vacation.ErrInvalidRange
	}

	unlock := s.locks.Lock(employeeID)
	defer unlock()

	var result *RequestResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		balances, err := s.loadBalances(tx, employeeID)
		if err != nil {
			return err
		}
		decision := vacation.Evaluate(balances, request, forcedBalance(balances, forcedPeriodID))
		if decision.BasePeriod == nil {
			return &vacation.ValidationError{Field: "periods", Message: "employee has no vacation periods"}
		}
		if decision.Shortfall() {
			return &vacation.InsufficientBalanceError{
				Requested: decision.RequestedDays,
				Available: decision.AvailableDays,
			}
		}

		if !decision.RequiresAgreement {
			if mustSpan {
				return &vacation.ValidationError{Field: "range", Message: "request fits in a single period; no agreement needed"}
			}
			mov, err := s.applySimple(tx, employeeID, decision, request)
			if err != nil {
				return err
			}
			result = &RequestResult{Decision: decision, Movements: []store.Movement{*mov}}
			return nil
		}

		result, err = s.applyAgreement(tx, employeeID, decision, request, description)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"days":        result.Decision.RequestedDays,
		"agreement":   result.Agreement != nil,
	}).Info("vacation request applied")
	return result, nil
}

// applySimple draws the whole request from the base period.
func (s *VacationService) applySimple(tx *gorm.DB, employeeID uint, decision vacation.Decision, request vacation.DateRange) (*store.Movement, error) {
	periods := store.NewGormPeriodRepository(tx)
	period, err := periods.GetByID(decision.BasePeriod.ID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, vacation.ErrNotFound
	}

	drawDays(period, decision.RequestedDays)
	if err := periods.Save(period); err != nil {
		return nil, err
	}

	start, end := request.Start, request.End
	mov := &store.Movement{
		EmployeeID:       employeeID,
		PeriodID:         period.ID,
		Kind:             vacation.KindSolicitud,
		Date:             vacation.Day(time.Now()),
		Days:             -decision.RequestedDays,
		ResultingBalance: period.PendingDays,
		RangeStart:       &start,
		RangeEnd:         &end,
	}
	if err := store.NewGormMovementRepository(tx).Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// applyAgreement runs the convenio path: apportion the request between
// the base and accumulated periods, record the Agreement with the
// snapshots the printed letter will need, and write one CONVENIO
// movement per non-zero draw.
func (s *VacationService) applyAgreement(tx *gorm.DB, employeeID uint, decision vacation.Decision, request vacation.DateRange, description string) (*RequestResult, error) {
	// Oldest days drain first: the earlier-started period is bolsa 1.
	p1 := decision.BasePeriod
	p2 := decision.AccumulatedPeriod
	if p2 != nil && p2.Start.Before(p1.Start) {
		p1, p2 = p2, p1
	}
	var p2Available int
	if p2 != nil {
		p2Available = p2.Available()
	}
	split := vacation.ApportionRequest(request, p1.Available(), p2Available)
	if !split.Covered(decision.RequestedDays) {
		return nil, &vacation.InsufficientBalanceError{
			Requested: decision.RequestedDays,
			Available: decision.AvailableDays,
		}
	}

	if description == "" {
		description = fmt.Sprintf("Convenio de acumulación de vacaciones: %d días", decision.RequestedDays)
	}
	now := vacation.Day(time.Now())
	agreement := &store.Agreement{
		EmployeeID:    employeeID,
		RequestDate:   &now,
		Description:   description,
		TotalDays:     decision.RequestedDays,
		SecondDays:    split.FromP2,
		Period1:       p1.Label,
		Period1Detail: fmt.Sprintf("%d días del periodo %s", split.FromP1, p1.Label),
	}
	if p2 != nil && split.FromP2 > 0 {
		agreement.Period2 = p2.Label
		agreement.Period2Detail = fmt.Sprintf("%d días del periodo %s", split.FromP2, p2.Label)
	}
	if err := store.NewGormAgreementRepository(tx).Create(agreement); err != nil {
		return nil, err
	}

	var movements []store.Movement
	if split.FromP1 > 0 {
		mov, err := s.drawForAgreement(tx, employeeID, p1.ID, split.FromP1, split.Range1, agreement.ID)
		if err != nil {
			return nil, err
		}
		movements = append(movements, *mov)
	}
	if split.FromP2 > 0 {
		mov, err := s.drawForAgreement(tx, employeeID, p2.ID, split.FromP2, split.Range2, agreement.ID)
		if err != nil {
			return nil, err
		}
		movements = append(movements, *mov)
	}

	return &RequestResult{
		Decision:      decision,
		Apportionment: &split,
		Agreement:     agreement,
		Movements:     movements,
	}, nil
}

func (s *VacationService) drawForAgreement(tx *gorm.DB, employeeID, periodID uint, days int, rng *vacation.DateRange, agreementID uint) (*store.Movement, error) {
	periods := store.NewGormPeriodRepository(tx)
	period, err := periods.GetByID(periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, vacation.ErrNotFound
	}

	drawDays(period, days)
	if err := periods.Save(period); err != nil {
		return nil, err
	}

	mov := &store.Movement{
		EmployeeID:       employeeID,
		PeriodID:         periodID,
		Kind:             vacation.KindConvenio,
		Date:             vacation.Day(time.Now()),
		Days:             -days,
		ResultingBalance: period.PendingDays,
		AgreementID:      &agreementID,
	}
	if rng != nil {
		start, end := rng.Start, rng.End
		mov.RangeStart = &start
		mov.RangeEnd = &end
	}
	if err := store.NewGormMovementRepository(tx).Create(mov); err != nil {
		return nil, err
	}
	return mov, nil
}

// =============================================================================
// MOVEMENT EDITS
// =============================================================================

// RegisterAdjustment writes a signed AJUSTE entry against a period.
func (s *VacationService) RegisterAdjustment(periodID uint, days int) (*store.Movement, error) {
	if days == 0 {
		return nil, &vacation.ValidationError{Field: "days", Message: "adjustment of zero days"}
	}

	unlock, err := s.lockPeriodOwner(periodID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var mov *store.Movement
	err = s.db.Transaction(func(tx *gorm.DB) error {
		periods := store.NewGormPeriodRepository(tx)
		period, err := periods.GetByID(periodID)
		if err != nil {
			return err
		}
		if period == nil {
			return vacation.ErrNotFound
		}
		period.PendingDays += days
		if period.PendingDays < 0 {
			period.PendingDays = 0
		}
		if err := periods.Save(period); err != nil {
			return err
		}

		mov = &store.Movement{
			EmployeeID:       period.EmployeeID,
			PeriodID:         period.ID,
			Kind:             vacation.KindAjuste,
			Date:             vacation.Day(time.Now()),
			Days:             days,
			ResultingBalance: period.PendingDays,
		}
		return store.NewGormMovementRepository(tx).Create(mov)
	})
	if err != nil {
		return nil, err
	}
	return mov, nil
}

// UpdateMovementRange corrects the calendar range on an existing entry.
// The amounts are immutable; only the dates may be fixed.
func (s *VacationService) UpdateMovementRange(movementID uint, start, end time.Time) error {
	rng := vacation.NewDateRange(start, end)
	if !rng.IsValid() {
		return vacation.ErrInvalidRange
	}
	unlock, err := s.lockMovementOwner(movementID)
	if err != nil {
		return err
	}
	defer unlock()

	rs, re := rng.Start, rng.End
	return store.NewGormMovementRepository(s.db).UpdateRange(movementID, &rs, &re)
}

// DeleteMovement removes a ledger entry and replays the period so its
// counters match the surviving entries.
func (s *VacationService) DeleteMovement(movementID uint) error {
	unlock, err := s.lockMovementOwner(movementID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		movements := store.NewGormMovementRepository(tx)
		mov, err := movements.GetByID(movementID)
		if err != nil {
			return err
		}
		if mov == nil {
			return vacation.ErrNotFound
		}
		if err := movements.Delete(movementID); err != nil {
			return err
		}
		return s.recomputePeriodTx(tx, mov.PeriodID)
	})
}

// RecomputePeriod rebuilds one period's counters from its ledger.
func (s *VacationService) RecomputePeriod(periodID uint) error {
	unlock, err := s.lockPeriodOwner(periodID)
	if err != nil {
		return err
	}
	defer unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.recomputePeriodTx(tx, periodID)
	})
}

// lockPeriodOwner resolves the period's employee and takes their mutex, so
// ledger edits serialize with in-flight requests on the same employee.
func (s *VacationService) lockPeriodOwner(periodID uint) (func(), error) {
	period, err := store.NewGormPeriodRepository(s.db).GetByID(periodID)
	if err != nil {
		return nil, err
	}
	if period == nil {
		return nil, vacation.ErrNotFound
	}
	return s.locks.Lock(period.EmployeeID), nil
}

func (s *VacationService) lockMovementOwner(movementID uint) (func(), error) {
	mov, err := store.NewGormMovementRepository(s.db).GetByID(movementID)
	if err != nil {
		return nil, err
	}
	if mov == nil {
		return nil, vacation.ErrNotFound
	}
	return s.locks.Lock(mov.EmployeeID), nil
}

func (s *VacationService) recomputePeriodTx(tx *gorm.DB, periodID uint) error {
	periods := store.NewGormPeriodRepository(tx)
	period, err := periods.GetByID(periodID)
	if err != nil {
		return err
	}
	if period == nil {
		return vacation.ErrNotFound
	}
	movs, err := store.NewGormMovementRepository(tx).ListByPeriod(periodID)
	if err != nil {
		return err
	}

	entries := make([]vacation.LedgerEntry, 0, len(movs))
	for _, m := range movs {
		entries = append(entries, vacation.LedgerEntry{Kind: m.Kind, Days: m.Days})
	}
	period.TakenDays, period.PendingDays, period.TruncatedDays = vacation.Replay(period.Label, entries)
	return periods.Save(period)
}

// =============================================================================
// GLOBAL RECONCILIATION
// =============================================================================

// ReconcileAll recomputes every period in the system against the accrual
// calculator as of the given day. Open periods carry their accrued days
// as truncated; closed periods expose the unconsumed allotment as pending.
func (s *VacationService) ReconcileAll(asOf time.Time) (int, error) {
	asOf = vacation.Day(asOf)
	updated := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		employees, err := store.NewGormEmployeeRepository(tx).List()
		if err != nil {
			return err
		}
		hireDates := make(map[uint]*time.Time, len(employees))
		for i := range employees {
			hireDates[employees[i].ID] = employees[i].HireDate
		}

		periods := store.NewGormPeriodRepository(tx)
		movements := store.NewGormMovementRepository(tx)
		all, err := periods.ListAll()
		if err != nil {
			return err
		}

		for j := range all {
			p := &all[j]
			hire := hireDates[p.EmployeeID]
			if hire == nil {
				continue
			}
			movs, err := movements.ListByPeriod(p.ID)
			if err != nil {
				return err
			}
			consumed := 0
			for _, m := range movs {
				if vacation.IsConsumption(m.Kind) {
					consumed += abs(m.Days)
				}
			}

			if asOf.Before(p.EndDate) {
				// Still accruing: the whole balance is truncated.
				// A period closes on its end date, not after it.
				accrued := vacation.AccruedDays(*hire, asOf, p.StartDate, p.EndDate, p.AllottedDays)
				p.TruncatedDays = max0(accrued - consumed)
				p.PendingDays = 0
				p.TakenDays = consumed
			} else {
				p.TruncatedDays = 0
				p.PendingDays = max0(p.AllottedDays - consumed)
				p.TakenDays = consumed
				if p.TakenDays > p.AllottedDays {
					p.TakenDays = p.AllottedDays
				}
			}
			if err := periods.Save(p); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithField("periods", updated).Info("global reconciliation completed")
	return updated, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (s *VacationService) loadBalances(db *gorm.DB, employeeID uint) ([]vacation.PeriodBalance, error) {
	ps, err := store.NewGormPeriodRepository(db).ListByEmployee(employeeID)
	if err != nil {
		return nil, err
	}
	balances := make([]vacation.PeriodBalance, 0, len(ps))
	for _, p := range ps {
		balances = append(balances, toBalance(p))
	}
	sort.Slice(balances, func(i, j int) bool { return balances[i].Start.Before(balances[j].Start) })
	return balances, nil
}

func toBalance(p store.VacationPeriod) vacation.PeriodBalance {
	return vacation.PeriodBalance{
		ID:        p.ID,
		Label:     p.Label,
		Start:     p.StartDate,
		End:       p.EndDate,
		Allotted:  p.AllottedDays,
		Taken:     p.TakenDays,
		Pending:   p.PendingDays,
		Truncated: p.TruncatedDays,
	}
}

func forcedBalance(balances []vacation.PeriodBalance, periodID *uint) *vacation.PeriodBalance {
	if periodID == nil {
		return nil
	}
	for i := range balances {
		if balances[i].ID == *periodID {
			return &balances[i]
		}
	}
	return nil
}

// drawDays applies an N-day consumption to the period counters: pending
// drains first, then truncated, mirroring what Replay reconstructs.
func drawDays(p *store.VacationPeriod, n int) {
	p.TakenDays += n
	fromPending := n
	if fromPending > p.PendingDays {
		fromPending = p.PendingDays
	}
	p.PendingDays -= fromPending
	rest := n - fromPending
	if rest >= p.TruncatedDays {
		p.TruncatedDays = 0
	} else {
		p.TruncatedDays -= rest
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
