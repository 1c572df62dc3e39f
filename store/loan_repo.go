package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LoanRepository persists loans, their installments and amortizations.
type LoanRepository interface {
	Create(l *Loan) error
	Save(l *Loan) error
	Delete(id uint) error
	GetByID(id uint) (*Loan, error)
	List(employeeDNI string) ([]Loan, error)
	SaveInstallment(i *Installment) error
	ListInstallmentsByMonth(year, month int, state string) ([]Installment, error)
	CreateAmortization(a *Amortization) error
}

type GormLoanRepository struct {
	db *gorm.DB
}

func NewGormLoanRepository(db *gorm.DB) LoanRepository {
	return &GormLoanRepository{db: db}
}

func (r *GormLoanRepository) Create(l *Loan) error {
	return r.db.Create(l).Error
}

// Save updates the loan row only; the schedule is saved installment by
// installment so preloaded associations are never mass-upserted.
func (r *GormLoanRepository) Save(l *Loan) error {
	return r.db.Omit(clause.Associations).Save(l).Error
}

func (r *GormLoanRepository) Delete(id uint) error {
	return r.db.Delete(&Loan{}, id).Error
}

func (r *GormLoanRepository) GetByID(id uint) (*Loan, error) {
	var l Loan
	err := r.db.Preload("Employee").
		Preload("Schedule", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
		Preload("Amortizations").
		First(&l, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormLoanRepository) List(employeeDNI string) ([]Loan, error) {
	var out []Loan
	q := r.db.Preload("Employee").
		Preload("Schedule", func(db *gorm.DB) *gorm.DB { return db.Order("ordinal ASC") }).
		Preload("Amortizations").
		Order("loans.created_at DESC")
	if employeeDNI != "" {
		q = q.Joins("JOIN employees ON employees.id = loans.employee_id").
			Where("employees.dni = ?", employeeDNI)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *GormLoanRepository) SaveInstallment(i *Installment) error {
	return r.db.Save(i).Error
}

func (r *GormLoanRepository) ListInstallmentsByMonth(year, month int, state string) ([]Installment, error) {
	var out []Installment
	err := r.db.Where("year = ? AND month = ? AND state = ?", year, month, state).
		Order("loan_id ASC, ordinal ASC").
		Find(&out).Error
	return out, err
}

func (r *GormLoanRepository) CreateAmortization(a *Amortization) error {
	return r.db.Create(a).Error
}
