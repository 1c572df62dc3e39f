/*
loans.go - Loan lifecycle: issue, amortize, close the payroll month

PURPOSE:

	Persists what the loans package computes. Issuing a loan writes the
	loan row plus its full installment schedule in one transaction; an
	early payment replays loans.Amortize over the pending installments and
	records both the state changes and the Amortization row; month close
	marks a payroll month's pending installments as deducted.

STATE RULES:
  - Deducted installments are payroll history: amortization skips them
    and only a reopen of their month can revert them.
  - Deleting a loan removes its generated documents too; the schedule
    and amortizations go with it via the FK cascade.
*/
package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/warp/hr-backend/loans"
	"github.com/warp/hr-backend/store"
	"github.com/warp/hr-backend/vacation"
)

type LoanService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewLoanService(db *gorm.DB, log logrus.FieldLogger) *LoanService {
	return &LoanService{db: db, log: log}
}

// LoanInput carries everything needed to issue a loan. When Custom is
// non-empty it replaces the generated schedule (after normalization).
type LoanInput struct {
	EmployeeID    uint
	Type          string
	Reason        string
	RequestDate   time.Time
	SigningDate   time.Time
	TotalAmount   decimal.Decimal
	Installments  int
	IncludeGrati  bool
	GratiFromYear int
	StartMonth    time.Month
	StartYear     int
	CreatedBy     string
	Custom        []loans.ScheduleLine
}

// PreviewSchedule computes the schedule without persisting anything.
func (s *LoanService) PreviewSchedule(in LoanInput) ([]loans.ScheduleLine, error) {
	return s.buildSchedule(in)
}

// CreateLoan issues a loan: the loan row and every installment commit
// together or not at all.
func (s *LoanService) CreateLoan(in LoanInput) (*store.Loan, error) {
	emp, err := store.NewGormEmployeeRepository(s.db).GetByID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, vacation.ErrNotFound
	}

	lines, err := s.buildSchedule(in)
	if err != nil {
		return nil, err
	}

	loan := &store.Loan{
		EmployeeID:    in.EmployeeID,
		Type:          in.Type,
		Reason:        in.Reason,
		RequestDate:   vacation.Day(in.RequestDate),
		TotalAmount:   in.TotalAmount.Round(2),
		Installments:  in.Installments,
		IncludeGrati:  in.IncludeGrati,
		GratiFromYear: in.GratiFromYear,
		SigningDate:   vacation.Day(in.SigningDate),
		State:         loans.LoanIssued,
		CreatedBy:     in.CreatedBy,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		repo := store.NewGormLoanRepository(tx)
		if err := repo.Create(loan); err != nil {
			return err
		}
		for _, line := range lines {
			inst := &store.Installment{
				LoanID:          loan.ID,
				Ordinal:         line.Ordinal,
				Label:           line.Label,
				Year:            line.Year,
				Month:           int(line.Month),
				IsGratification: line.IsGratification,
				Amount:          line.Amount,
				State:           loans.StatePending,
			}
			if line.Year > 0 && line.Month >= time.January && line.Month <= time.December {
				// Payroll deducts at month end.
				due := time.Date(line.Year, line.Month+1, 0, 0, 0, 0, 0, time.UTC)
				inst.TheoreticalDate = &due
			}
			if err := repo.SaveInstallment(inst); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"loan_id":      loan.ID,
		"employee_id":  loan.EmployeeID,
		"amount":       loan.TotalAmount.StringFixed(2),
		"installments": len(lines),
	}).Info("loan issued")

	return store.NewGormLoanRepository(s.db).GetByID(loan.ID)
}

func (s *LoanService) buildSchedule(in LoanInput) ([]loans.ScheduleLine, error) {
	if len(in.Custom) > 0 {
		return loans.NormalizeCustomSchedule(in.Custom, in.TotalAmount, in.Installments)
	}
	month, year := in.StartMonth, in.StartYear
	if month == 0 || year == 0 {
		next := vacation.Day(in.SigningDate).AddDate(0, 1, 0)
		month, year = next.Month(), next.Year()
	}
	return loans.GenerateSchedule(in.TotalAmount, in.Installments, month, year,
		in.IncludeGrati, in.GratiFromYear)
}

// GetLoan loads a loan with its schedule and amortizations.
func (s *LoanService) GetLoan(id uint) (*store.Loan, error) {
	loan, err := store.NewGormLoanRepository(s.db).GetByID(id)
	if err != nil {
		return nil, err
	}
	if loan == nil {
		return nil, vacation.ErrNotFound
	}
	return loan, nil
}

// ListLoans returns all loans, optionally filtered by employee DNI.
func (s *LoanService) ListLoans(employeeDNI string) ([]store.Loan, error) {
	return store.NewGormLoanRepository(s.db).List(employeeDNI)
}

// DeleteLoan removes the loan, its schedule and amortizations (cascade)
// and any documents generated for it.
func (s *LoanService) DeleteLoan(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := store.NewGormLoanRepository(tx)
		loan, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		if loan == nil {
			return vacation.ErrNotFound
		}
		if err := store.NewGormDocumentRepository(tx).DeleteByLoan(id); err != nil {
			return err
		}
		return repo.Delete(id)
	})
}

// =============================================================================
// AMORTIZATION
// =============================================================================

// Amortize applies an early payment to a loan. Pending installments are
// consumed in schedule order; deducted ones are untouched. The loan state
// moves to Cancelado or Amortizado Parcial depending on what remains.
func (s *LoanService) Amortize(loanID uint, amount decimal.Decimal, note, user string) (*store.Loan, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, &vacation.ValidationError{Field: "amount", Message: "amortization amount must be positive"}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := store.NewGormLoanRepository(tx)
		loan, err := repo.GetByID(loanID)
		if err != nil {
			return err
		}
		if loan == nil {
			return vacation.ErrNotFound
		}
		if loan.State == loans.LoanCanceled {
			return &vacation.ValidationError{Field: "state", Message: "loan is already canceled"}
		}

		views := make([]*loans.Installment, len(loan.Schedule))
		for i := range loan.Schedule {
			views[i] = &loans.Installment{
				Ordinal: loan.Schedule[i].Ordinal,
				Amount:  loan.Schedule[i].Amount,
				State:   loan.Schedule[i].State,
			}
		}
		pending := loans.PendingBalance(views)
		if amount.GreaterThan(pending) {
			return &vacation.ValidationError{
				Field:   "amount",
				Message: fmt.Sprintf("amount %s exceeds pending balance %s", amount.StringFixed(2), pending.StringFixed(2)),
			}
		}

		state, err := loans.Amortize(views, amount)
		if err != nil {
			return err
		}

		for i := range loan.Schedule {
			if loan.Schedule[i].Amount.Equal(views[i].Amount) && loan.Schedule[i].State == views[i].State {
				continue
			}
			loan.Schedule[i].Amount = views[i].Amount
			loan.Schedule[i].State = views[i].State
			if err := repo.SaveInstallment(&loan.Schedule[i]); err != nil {
				return err
			}
		}

		loan.State = state
		if err := repo.Save(loan); err != nil {
			return err
		}

		return repo.CreateAmortization(&store.Amortization{
			LoanID: loanID,
			Amount: amount.Round(2),
			Date:   vacation.Day(time.Now()),
			Note:   note,
			User:   user,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"loan_id": loanID, "amount": amount.StringFixed(2)}).Info("loan amortized")
	return s.GetLoan(loanID)
}

// =============================================================================
// MONTH CLOSE / REOPEN
// =============================================================================

// CloseMonth marks every pending installment of (year, month) as deducted
// with the given deduction date. Returns how many were closed.
func (s *LoanService) CloseMonth(year int, month time.Month, deductedAt time.Time) (int, error) {
	deductedAt = vacation.Day(deductedAt)
	closed := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := store.NewGormLoanRepository(tx)
		insts, err := repo.ListInstallmentsByMonth(year, int(month), loans.StatePending)
		if err != nil {
			return err
		}
		for i := range insts {
			insts[i].State = loans.StateDeducted
			insts[i].DeductedAt = &deductedAt
			if err := repo.SaveInstallment(&insts[i]); err != nil {
				return err
			}
			closed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"year": year, "month": int(month), "installments": closed}).Info("payroll month closed")
	return closed, nil
}

// ReopenMonth reverts a close: deducted installments of (year, month) go
// back to pending and lose their deduction date.
func (s *LoanService) ReopenMonth(year int, month time.Month) (int, error) {
	reopened := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := store.NewGormLoanRepository(tx)
		insts, err := repo.ListInstallmentsByMonth(year, int(month), loans.StateDeducted)
		if err != nil {
			return err
		}
		for i := range insts {
			insts[i].State = loans.StatePending
			insts[i].DeductedAt = nil
			if err := repo.SaveInstallment(&insts[i]); err != nil {
				return err
			}
			reopened++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.WithFields(logrus.Fields{"year": year, "month": int(month), "installments": reopened}).Info("payroll month reopened")
	return reopened, nil
}
