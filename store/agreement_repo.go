package store

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AgreementRepository persists convenios.
type AgreementRepository interface {
	Create(a *Agreement) error
	Save(a *Agreement) error
	GetByID(id uint) (*Agreement, error)
	ListByEmployee(employeeID uint) ([]Agreement, error)
	List() ([]Agreement, error)
}

type GormAgreementRepository struct {
	db *gorm.DB
}

func NewGormAgreementRepository(db *gorm.DB) AgreementRepository {
	return &GormAgreementRepository{db: db}
}

func (r *GormAgreementRepository) Create(a *Agreement) error {
	return r.db.Create(a).Error
}

// Save updates the agreement row only; movements belong to the ledger and
// are never mass-upserted through a preloaded association.
func (r *GormAgreementRepository) Save(a *Agreement) error {
	return r.db.Omit(clause.Associations).Save(a).Error
}

func (r *GormAgreementRepository) GetByID(id uint) (*Agreement, error) {
	var a Agreement
	err := r.db.Preload("Movements").First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAgreementRepository) ListByEmployee(employeeID uint) ([]Agreement, error) {
	var agreements []Agreement
	err := r.db.Where("employee_id = ?", employeeID).
		Order("created_at DESC").
		Find(&agreements).Error
	return agreements, err
}

func (r *GormAgreementRepository) List() ([]Agreement, error) {
	var agreements []Agreement
	err := r.db.Order("created_at DESC").Find(&agreements).Error
	return agreements, err
}
