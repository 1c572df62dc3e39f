package store

import (
	"errors"

	"gorm.io/gorm"
)

// EmployeeRepository persists employees.
type EmployeeRepository interface {
	Create(emp *Employee) error
	Update(emp *Employee) error
	Delete(id uint) error
	GetByID(id uint) (*Employee, error)
	GetByDNI(dni string) (*Employee, error)
	GetWithPeriods(id uint) (*Employee, error)
	List() ([]Employee, error)
}

type GormEmployeeRepository struct {
	db *gorm.DB
}

func NewGormEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &GormEmployeeRepository{db: db}
}

func (r *GormEmployeeRepository) Create(emp *Employee) error {
	return r.db.Create(emp).Error
}

func (r *GormEmployeeRepository) Update(emp *Employee) error {
	return r.db.Save(emp).Error
}

func (r *GormEmployeeRepository) Delete(id uint) error {
	return r.db.Delete(&Employee{}, id).Error
}

func (r *GormEmployeeRepository) GetByID(id uint) (*Employee, error) {
	var emp Employee
	err := r.db.First(&emp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *GormEmployeeRepository) GetByDNI(dni string) (*Employee, error) {
	var emp Employee
	err := r.db.Where("dni = ?", dni).First(&emp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *GormEmployeeRepository) GetWithPeriods(id uint) (*Employee, error) {
	var emp Employee
	err := r.db.Preload("Periods", func(db *gorm.DB) *gorm.DB {
		return db.Order("start_date ASC")
	}).First(&emp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

func (r *GormEmployeeRepository) List() ([]Employee, error) {
	var emps []Employee
	err := r.db.Order("name ASC").Find(&emps).Error
	return emps, err
}
