package store

import (
	"errors"

	"gorm.io/gorm"
)

// PeriodRepository persists vacation periods.
type PeriodRepository interface {
	Create(p *VacationPeriod) error
	Save(p *VacationPeriod) error
	GetByID(id uint) (*VacationPeriod, error)
	ListByEmployee(employeeID uint) ([]VacationPeriod, error)
	ListAll() ([]VacationPeriod, error)
	CountByEmployee(employeeID uint) (int64, error)
}

type GormPeriodRepository struct {
	db *gorm.DB
}

func NewGormPeriodRepository(db *gorm.DB) PeriodRepository {
	return &GormPeriodRepository{db: db}
}

func (r *GormPeriodRepository) Create(p *VacationPeriod) error {
	return r.db.Create(p).Error
}

func (r *GormPeriodRepository) Save(p *VacationPeriod) error {
	return r.db.Save(p).Error
}

func (r *GormPeriodRepository) GetByID(id uint) (*VacationPeriod, error) {
	var p VacationPeriod
	err := r.db.First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPeriodRepository) ListByEmployee(employeeID uint) ([]VacationPeriod, error) {
	var periods []VacationPeriod
	err := r.db.Where("employee_id = ?", employeeID).
		Order("start_date ASC").
		Find(&periods).Error
	return periods, err
}

func (r *GormPeriodRepository) ListAll() ([]VacationPeriod, error) {
	var periods []VacationPeriod
	err := r.db.Order("employee_id ASC, start_date ASC").Find(&periods).Error
	return periods, err
}

func (r *GormPeriodRepository) CountByEmployee(employeeID uint) (int64, error) {
	var count int64
	err := r.db.Model(&VacationPeriod{}).Where("employee_id = ?", employeeID).Count(&count).Error
	return count, err
}
