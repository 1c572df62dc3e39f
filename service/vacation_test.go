package service_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/warp/hr-backend/service"
	"github.com/warp/hr-backend/store"
	"github.com/warp/hr-backend/vacation"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "hr_test.db"))
	require.NoError(t, err)
	return db
}

func testLog() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// seedEmployee creates an employee with two periods: 2023-2024 closed
// with 7 pending days and 2024-2025 with the full 30.
func seedEmployee(t *testing.T, db *gorm.DB) *store.Employee {
	t.Helper()
	hire := date(2023, time.December, 1)
	emp := &store.Employee{DNI: "45871236", Name: "Carla Núñez", HireDate: &hire}
	require.NoError(t, db.Create(emp).Error)

	periods := []store.VacationPeriod{
		{
			EmployeeID: emp.ID, Label: "2023-2024",
			StartDate: date(2023, time.December, 1), EndDate: date(2024, time.November, 30),
			AllottedDays: 30, TakenDays: 23, PendingDays: 7,
		},
		{
			EmployeeID: emp.ID, Label: "2024-2025",
			StartDate: date(2024, time.December, 1), EndDate: date(2025, time.November, 30),
			AllottedDays: 30, PendingDays: 30,
		},
	}
	for i := range periods {
		require.NoError(t, db.Create(&periods[i]).Error)
		grant := store.Movement{
			EmployeeID: emp.ID, PeriodID: periods[i].ID,
			Kind: periods[i].Label, Date: periods[i].StartDate,
			Days: periods[i].AllottedDays, ResultingBalance: periods[i].AllottedDays,
		}
		require.NoError(t, db.Create(&grant).Error)
	}
	return emp
}

func periodByLabel(t *testing.T, db *gorm.DB, employeeID uint, label string) *store.VacationPeriod {
	t.Helper()
	var p store.VacationPeriod
	require.NoError(t, db.Where("employee_id = ? AND label = ?", employeeID, label).First(&p).Error)
	return &p
}

// =============================================================================
// PERIOD CREATION
// =============================================================================

func TestCreatePeriod_GrantsAllotmentWithAltaMovement(t *testing.T) {
	// GIVEN: an employee hired 2023-12-01 with no periods
	// WHEN: creating the offset-0 period
	// THEN: period 2023-2024 exists with 30 pending and an ALTA movement

	db := testDB(t)
	hire := date(2023, time.December, 1)
	emp := &store.Employee{DNI: "11223344", Name: "Test", HireDate: &hire}
	require.NoError(t, db.Create(emp).Error)

	svc := service.NewVacationService(db, testLog())
	period, err := svc.CreatePeriod(emp.ID, 0)
	require.NoError(t, err)

	assert.Equal(t, "2023-2024", period.Label)
	assert.Equal(t, date(2023, time.December, 1), period.StartDate)
	assert.Equal(t, date(2024, time.November, 30), period.EndDate)
	assert.Equal(t, 30, period.PendingDays)

	var movs []store.Movement
	require.NoError(t, db.Where("period_id = ?", period.ID).Find(&movs).Error)
	require.Len(t, movs, 1)
	assert.Equal(t, "2023-2024", movs[0].Kind)
	assert.Equal(t, 30, movs[0].Days)
}

func TestCreatePeriod_RejectsDuplicateLabel(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)

	svc := service.NewVacationService(db, testLog())
	_, err := svc.CreatePeriod(emp.ID, 0) // 2023-2024 already seeded

	var verr *vacation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "label", verr.Field)
}

func TestCreatePeriod_RequiresHireDate(t *testing.T) {
	db := testDB(t)
	emp := &store.Employee{DNI: "99887766", Name: "Sin Fecha"}
	require.NoError(t, db.Create(emp).Error)

	svc := service.NewVacationService(db, testLog())
	_, err := svc.CreatePeriod(emp.ID, 0)

	var verr *vacation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "hire_date", verr.Field)
}

// =============================================================================
// APPLY REQUEST - simple path
// =============================================================================

func TestApplyRequest_InsideWindow_SingleMovement(t *testing.T) {
	// GIVEN: period 2024-2025 with 30 pending, enjoyment window 2025-12..2026-11
	// WHEN: requesting 5 days inside that window
	// THEN: no agreement; one SOLICITUD movement; pending 25, taken 5

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2026, time.January, 5), date(2026, time.January, 9))
	res, err := svc.ApplyRequest(emp.ID, rng, nil, "")
	require.NoError(t, err)

	assert.False(t, res.Decision.RequiresAgreement)
	assert.Nil(t, res.Agreement)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, vacation.KindSolicitud, res.Movements[0].Kind)
	assert.Equal(t, -5, res.Movements[0].Days)
	require.NotNil(t, res.Movements[0].RangeStart)
	assert.Equal(t, date(2026, time.January, 5), *res.Movements[0].RangeStart)

	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 25, p2.PendingDays)
	assert.Equal(t, 5, p2.TakenDays)
}

func TestApplyRequest_InsideWindow_OverdrawRefused(t *testing.T) {
	// GIVEN: period 2024-2025 with 30 pending days
	// WHEN: requesting 31 days inside its enjoyment window
	// THEN: InsufficientBalanceError; the period is never over-drawn

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2026, time.January, 5), date(2026, time.February, 4)) // 31 days
	_, err := svc.ApplyRequest(emp.ID, rng, nil, "")

	var ib *vacation.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, 31, ib.Requested)
	assert.Equal(t, 30, ib.Available)

	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 30, p2.PendingDays)
	assert.Equal(t, 0, p2.TakenDays)
}

func TestApplyRequest_InvalidRange(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2026, time.January, 9), date(2026, time.January, 5))
	_, err := svc.ApplyRequest(emp.ID, rng, nil, "")
	assert.ErrorIs(t, err, vacation.ErrInvalidRange)
}

// =============================================================================
// APPLY REQUEST - agreement path
// =============================================================================

func TestApplyRequest_OutsideWindow_CreatesAgreement(t *testing.T) {
	// GIVEN: P1 2023-2024 with 7 pending, P2 2024-2025 with 30 pending
	// WHEN: requesting 10 days outside every enjoyment window
	// THEN: agreement recorded; 7 days drawn from P1, 3 from P2; the two
	//       CONVENIO movements carry contiguous sub-ranges

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2027, time.March, 1), date(2027, time.March, 10))
	res, err := svc.ApplyRequest(emp.ID, rng, nil, "")
	require.NoError(t, err)

	assert.True(t, res.Decision.RequiresAgreement)
	require.NotNil(t, res.Agreement)
	require.NotNil(t, res.Apportionment)
	assert.Equal(t, 7, res.Apportionment.FromP1)
	assert.Equal(t, 3, res.Apportionment.FromP2)
	assert.Equal(t, "2023-2024", res.Agreement.Period1)
	assert.Equal(t, "2024-2025", res.Agreement.Period2)
	assert.Equal(t, 10, res.Agreement.TotalDays)
	assert.Equal(t, 3, res.Agreement.SecondDays)
	assert.Contains(t, res.Agreement.Period1Detail, "7 días")

	require.Len(t, res.Movements, 2)
	for _, m := range res.Movements {
		assert.Equal(t, vacation.KindConvenio, m.Kind)
		require.NotNil(t, m.AgreementID)
		assert.Equal(t, res.Agreement.ID, *m.AgreementID)
	}
	// Sub-ranges are contiguous: 7 days then 3 days.
	assert.Equal(t, date(2027, time.March, 1), *res.Movements[0].RangeStart)
	assert.Equal(t, date(2027, time.March, 7), *res.Movements[0].RangeEnd)
	assert.Equal(t, date(2027, time.March, 8), *res.Movements[1].RangeStart)
	assert.Equal(t, date(2027, time.March, 10), *res.Movements[1].RangeEnd)

	p1 := periodByLabel(t, db, emp.ID, "2023-2024")
	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 0, p1.PendingDays)
	assert.Equal(t, 30, p1.TakenDays)
	assert.Equal(t, 27, p2.PendingDays)
	assert.Equal(t, 3, p2.TakenDays)
}

func TestApplyAgreementRequest_RejectsSinglePeriodFit(t *testing.T) {
	// GIVEN: a 5-day request that fits inside the 2024-2025 window
	// WHEN: applying it through the agreement flow
	// THEN: validation error and no movements written

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2026, time.January, 5), date(2026, time.January, 9))
	_, err := svc.ApplyAgreementRequest(emp.ID, rng, nil, "")

	var ve *vacation.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "range", ve.Field)

	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 30, p2.PendingDays)
	assert.Equal(t, 0, p2.TakenDays)
}

func TestApplyAgreementRequest_CrossPeriod(t *testing.T) {
	// Same request as the plain flow, through the dedicated endpoint.
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2027, time.March, 1), date(2027, time.March, 10))
	res, err := svc.ApplyAgreementRequest(emp.ID, rng, nil, "")
	require.NoError(t, err)
	require.NotNil(t, res.Agreement)
	assert.Equal(t, 10, res.Agreement.TotalDays)
}

func TestApplyRequest_Shortfall_NothingApplied(t *testing.T) {
	// GIVEN: 37 days available in total
	// WHEN: requesting 40 days outside the windows
	// THEN: InsufficientBalanceError and zero mutations

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2027, time.March, 1), date(2027, time.April, 9)) // 40 days
	_, err := svc.ApplyRequest(emp.ID, rng, nil, "")

	var ib *vacation.InsufficientBalanceError
	require.ErrorAs(t, err, &ib)
	assert.Equal(t, 40, ib.Requested)
	assert.Equal(t, 37, ib.Available)
	assert.ErrorIs(t, err, vacation.ErrInsufficientBalance)

	p1 := periodByLabel(t, db, emp.ID, "2023-2024")
	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 7, p1.PendingDays)
	assert.Equal(t, 30, p2.PendingDays)

	var count int64
	require.NoError(t, db.Model(&store.Agreement{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEvaluateRequest_DryRunMutatesNothing(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2027, time.March, 1), date(2027, time.March, 10))
	d, err := svc.EvaluateRequest(emp.ID, rng, nil)
	require.NoError(t, err)
	assert.True(t, d.RequiresAgreement)

	var movCount int64
	require.NoError(t, db.Model(&store.Movement{}).Where("kind = ?", vacation.KindConvenio).Count(&movCount).Error)
	assert.Zero(t, movCount)
}

// =============================================================================
// MOVEMENT EDITS & REPLAY
// =============================================================================

func TestDeleteMovement_ReplaysPeriod(t *testing.T) {
	// GIVEN: a period with a grant and an applied 5-day request
	// WHEN: the request movement is deleted
	// THEN: replay restores the full pending balance

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2026, time.January, 5), date(2026, time.January, 9))
	res, err := svc.ApplyRequest(emp.ID, rng, nil, "")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMovement(res.Movements[0].ID))

	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 30, p2.PendingDays)
	assert.Equal(t, 0, p2.TakenDays)
}

func TestUpdateMovementRange_CorrectsDatesOnly(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	rng := vacation.NewDateRange(date(2026, time.January, 5), date(2026, time.January, 9))
	res, err := svc.ApplyRequest(emp.ID, rng, nil, "")
	require.NoError(t, err)

	movID := res.Movements[0].ID
	require.NoError(t, svc.UpdateMovementRange(movID, date(2026, time.February, 2), date(2026, time.February, 6)))

	var mov store.Movement
	require.NoError(t, db.First(&mov, movID).Error)
	assert.True(t, mov.RangeStart.Equal(date(2026, time.February, 2)))
	assert.Equal(t, -5, mov.Days) // amount untouched

	err = svc.UpdateMovementRange(movID, date(2026, time.February, 6), date(2026, time.February, 2))
	assert.ErrorIs(t, err, vacation.ErrInvalidRange)
}

func TestRegisterAdjustment_SignedAndFloored(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())
	p1 := periodByLabel(t, db, emp.ID, "2023-2024")

	_, err := svc.RegisterAdjustment(p1.ID, -10) // pending was 7
	require.NoError(t, err)

	p1 = periodByLabel(t, db, emp.ID, "2023-2024")
	assert.Equal(t, 0, p1.PendingDays)

	mov, err := svc.RegisterAdjustment(p1.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, vacation.KindAjuste, mov.Kind)
	assert.Equal(t, 3, mov.Days)
}

// =============================================================================
// RECONCILIATION
// =============================================================================

func TestReconcileAll_OpenAndClosedPeriods(t *testing.T) {
	// GIVEN: employee hired 2023-12-01 with periods 2023-2024 (closed as of
	//        2025-06-01) and 2024-2025 (still open, 6 whole months in)
	// WHEN: reconciling as of 2025-06-01
	// THEN: the closed period exposes pending = allotted - consumed and the
	//       open one carries 15 accrued days as truncated

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	// Consume 23 days from the closed period so the ledger matches its
	// seeded counters.
	p1 := periodByLabel(t, db, emp.ID, "2023-2024")
	goce := store.Movement{
		EmployeeID: emp.ID, PeriodID: p1.ID, Kind: vacation.KindGoce,
		Date: date(2024, time.June, 1), Days: -23, ResultingBalance: 7,
	}
	require.NoError(t, db.Create(&goce).Error)

	n, err := svc.ReconcileAll(date(2025, time.June, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	p1 = periodByLabel(t, db, emp.ID, "2023-2024")
	assert.Equal(t, 0, p1.TruncatedDays)
	assert.Equal(t, 7, p1.PendingDays)
	assert.Equal(t, 23, p1.TakenDays)

	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 15, p2.TruncatedDays) // 6 months at 2.5 days/month
	assert.Equal(t, 0, p2.PendingDays)
	assert.Equal(t, 0, p2.TakenDays)
}

func TestReconcileAll_PeriodClosesOnItsEndDate(t *testing.T) {
	// GIVEN: period 2024-2025 ending 2025-11-30 with nothing consumed
	// WHEN: reconciling exactly on the end date
	// THEN: the period is closed - full allotment pending, nothing truncated

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewVacationService(db, testLog())

	_, err := svc.ReconcileAll(date(2025, time.November, 30))
	require.NoError(t, err)

	p2 := periodByLabel(t, db, emp.ID, "2024-2025")
	assert.Equal(t, 0, p2.TruncatedDays)
	assert.Equal(t, 30, p2.PendingDays)
	assert.Equal(t, 0, p2.TakenDays)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployeeUpdate_HireDateLockedOncePeriodsExist(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewEmployeeService(db, testLog())

	newHire := date(2024, time.January, 15)
	_, err := svc.Update(emp.ID, &store.Employee{HireDate: &newHire})
	assert.ErrorIs(t, err, vacation.ErrHireDateLocked)

	// Other fields stay editable.
	updated, err := svc.Update(emp.ID, &store.Employee{Name: "Carla Núñez de la Torre"})
	require.NoError(t, err)
	assert.Equal(t, "Carla Núñez de la Torre", updated.Name)
}

func TestEmployeeCreate_RejectsDuplicateDNI(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewEmployeeService(db, testLog())

	err := svc.Create(&store.Employee{DNI: emp.DNI, Name: "Otro"})
	var verr *vacation.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "dni", verr.Field)
}
