package service_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-backend/loans"
	"github.com/warp/hr-backend/service"
	"github.com/warp/hr-backend/store"
	"github.com/warp/hr-backend/vacation"
)

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func loanInput(employeeID uint) service.LoanInput {
	return service.LoanInput{
		EmployeeID:   employeeID,
		Type:         "Préstamo personal",
		Reason:       "Gastos médicos",
		RequestDate:  date(2025, time.May, 10),
		SigningDate:  date(2025, time.May, 15),
		TotalAmount:  money("3000.00"),
		Installments: 6,
		StartMonth:   time.June,
		StartYear:    2025,
		CreatedBy:    "admin",
	}
}

// =============================================================================
// ISSUE
// =============================================================================

func TestCreateLoan_PersistsFullSchedule(t *testing.T) {
	// GIVEN: a 3000.00 loan over 6 installments from June 2025
	// WHEN: issuing it
	// THEN: six pending 500.00 installments with Spanish labels

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	loan, err := svc.CreateLoan(loanInput(emp.ID))
	require.NoError(t, err)

	assert.Equal(t, loans.LoanIssued, loan.State)
	require.Len(t, loan.Schedule, 6)
	assert.Equal(t, "Junio 2025", loan.Schedule[0].Label)
	assert.Equal(t, "Noviembre 2025", loan.Schedule[5].Label)

	sum := decimal.Zero
	for _, inst := range loan.Schedule {
		assert.Equal(t, loans.StatePending, inst.State)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(money("3000.00")))
}

func TestCreateLoan_GratificationInserted(t *testing.T) {
	// GIVEN: gratification enabled from 2025
	// WHEN: the schedule walks through July
	// THEN: a gratification line precedes the July line

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	in := loanInput(emp.ID)
	in.IncludeGrati = true
	in.GratiFromYear = 2025

	loan, err := svc.CreateLoan(in)
	require.NoError(t, err)

	require.Len(t, loan.Schedule, 6)
	assert.Equal(t, "Junio 2025", loan.Schedule[0].Label)
	assert.Equal(t, "Gratificación julio 2025", loan.Schedule[1].Label)
	assert.True(t, loan.Schedule[1].IsGratification)
	assert.Equal(t, "Julio 2025", loan.Schedule[2].Label)
}

func TestCreateLoan_CustomScheduleNormalized(t *testing.T) {
	// Custom lines that do not sum to the principal: the last absorbs.
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	in := loanInput(emp.ID)
	in.Installments = 3
	in.Custom = []loans.ScheduleLine{
		{Label: "Junio 2025", Year: 2025, Month: time.June, Amount: money("1000.00")},
		{Label: "Julio 2025", Year: 2025, Month: time.July, Amount: money("1000.00")},
		{Label: "Agosto 2025", Year: 2025, Month: time.August, Amount: money("900.00")},
	}

	loan, err := svc.CreateLoan(in)
	require.NoError(t, err)
	require.Len(t, loan.Schedule, 3)
	assert.True(t, loan.Schedule[2].Amount.Equal(money("1000.00")))
}

func TestCreateLoan_UnknownEmployee(t *testing.T) {
	db := testDB(t)
	svc := service.NewLoanService(db, testLog())

	in := loanInput(999)
	_, err := svc.CreateLoan(in)
	assert.ErrorIs(t, err, vacation.ErrNotFound)
}

// =============================================================================
// AMORTIZATION
// =============================================================================

func TestAmortize_PartialThenPayoff(t *testing.T) {
	// GIVEN: a 3000.00 loan in six 500.00 installments
	// WHEN: paying 1200.00 early, then the remaining 1800.00
	// THEN: first two installments amortized and the third reduced to
	//       300.00; the payoff cancels the loan

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	loan, err := svc.CreateLoan(loanInput(emp.ID))
	require.NoError(t, err)

	loan, err = svc.Amortize(loan.ID, money("1200.00"), "pago extraordinario", "admin")
	require.NoError(t, err)

	assert.Equal(t, loans.LoanPartiallyAmortized, loan.State)
	assert.Equal(t, loans.StateAmortized, loan.Schedule[0].State)
	assert.Equal(t, loans.StateAmortized, loan.Schedule[1].State)
	assert.Equal(t, loans.StatePending, loan.Schedule[2].State)
	assert.True(t, loan.Schedule[2].Amount.Equal(money("300.00")))
	require.Len(t, loan.Amortizations, 1)

	loan, err = svc.Amortize(loan.ID, money("1800.00"), "cancelación", "admin")
	require.NoError(t, err)
	assert.Equal(t, loans.LoanCanceled, loan.State)
	for _, inst := range loan.Schedule {
		assert.Equal(t, loans.StateAmortized, inst.State)
	}
}

func TestAmortize_RejectsOverpaymentAndNonPositive(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	loan, err := svc.CreateLoan(loanInput(emp.ID))
	require.NoError(t, err)

	_, err = svc.Amortize(loan.ID, money("0"), "", "admin")
	var verr *vacation.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Amortize(loan.ID, money("9999.00"), "", "admin")
	assert.ErrorAs(t, err, &verr)
}

func TestAmortize_SkipsDeductedInstallments(t *testing.T) {
	// GIVEN: June already deducted by payroll
	// WHEN: amortizing 500.00
	// THEN: July is consumed, June untouched

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	loan, err := svc.CreateLoan(loanInput(emp.ID))
	require.NoError(t, err)

	_, err = svc.CloseMonth(2025, time.June, date(2025, time.June, 30))
	require.NoError(t, err)

	loan, err = svc.Amortize(loan.ID, money("500.00"), "", "admin")
	require.NoError(t, err)

	assert.Equal(t, loans.StateDeducted, loan.Schedule[0].State)
	assert.Equal(t, loans.StateAmortized, loan.Schedule[1].State)
}

// =============================================================================
// MONTH CLOSE / REOPEN
// =============================================================================

func TestCloseMonth_ThenReopen(t *testing.T) {
	// GIVEN: two loans each with a July 2025 installment
	// WHEN: closing July, then reopening it
	// THEN: both installments flip to Descontada with a date, then back

	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	_, err := svc.CreateLoan(loanInput(emp.ID))
	require.NoError(t, err)
	second := loanInput(emp.ID)
	second.TotalAmount = money("600.00")
	second.Installments = 2
	_, err = svc.CreateLoan(second)
	require.NoError(t, err)

	closed, err := svc.CloseMonth(2025, time.July, date(2025, time.July, 31))
	require.NoError(t, err)
	assert.Equal(t, 2, closed)

	var insts []store.Installment
	require.NoError(t, db.Where("year = ? AND month = ?", 2025, 7).Find(&insts).Error)
	for _, inst := range insts {
		assert.Equal(t, loans.StateDeducted, inst.State)
		require.NotNil(t, inst.DeductedAt)
		assert.True(t, inst.DeductedAt.Equal(date(2025, time.July, 31)))
	}

	reopened, err := svc.ReopenMonth(2025, time.July)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened)

	require.NoError(t, db.Where("year = ? AND month = ?", 2025, 7).Find(&insts).Error)
	for _, inst := range insts {
		assert.Equal(t, loans.StatePending, inst.State)
		assert.Nil(t, inst.DeductedAt)
	}
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteLoan_RemovesDocuments(t *testing.T) {
	db := testDB(t)
	emp := seedEmployee(t, db)
	svc := service.NewLoanService(db, testLog())

	loan, err := svc.CreateLoan(loanInput(emp.ID))
	require.NoError(t, err)

	doc := store.Document{LoanID: &loan.ID, Path: "docs/prestamo-1.html", IssuedAt: time.Now()}
	require.NoError(t, db.Create(&doc).Error)

	require.NoError(t, svc.DeleteLoan(loan.ID))

	var docCount int64
	require.NoError(t, db.Model(&store.Document{}).Where("loan_id = ?", loan.ID).Count(&docCount).Error)
	assert.Zero(t, docCount)

	_, err = svc.GetLoan(loan.ID)
	assert.ErrorIs(t, err, vacation.ErrNotFound)
}
