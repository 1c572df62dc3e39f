/*
employee.go - Employee lifecycle

The single business rule here is hire-date immutability: every period's
bounds are derived from the hire date, so once periods exist the date is
locked. Everything else is a thin pass-through to the repository.
*/
package service

import (
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/warp/hr-backend/store"
	"github.com/warp/hr-backend/vacation"
)

type EmployeeService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewEmployeeService(db *gorm.DB, log logrus.FieldLogger) *EmployeeService {
	return &EmployeeService{db: db, log: log}
}

func (s *EmployeeService) Create(emp *store.Employee) error {
	repo := store.NewGormEmployeeRepository(s.db)
	existing, err := repo.GetByDNI(emp.DNI)
	if err != nil {
		return err
	}
	if existing != nil {
		return &vacation.ValidationError{Field: "dni", Message: "an employee with this DNI already exists"}
	}
	if err := repo.Create(emp); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"id": emp.ID, "dni": emp.DNI}).Info("employee created")
	return nil
}

// Update replaces the mutable fields. Changing the hire date is refused
// once the employee has periods anchored on it.
func (s *EmployeeService) Update(id uint, changes *store.Employee) (*store.Employee, error) {
	repo := store.NewGormEmployeeRepository(s.db)
	emp, err := repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, vacation.ErrNotFound
	}

	if changes.HireDate != nil && !sameDate(emp.HireDate, changes.HireDate) {
		count, err := store.NewGormPeriodRepository(s.db).CountByEmployee(id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, vacation.ErrHireDateLocked
		}
		hd := vacation.Day(*changes.HireDate)
		emp.HireDate = &hd
	}

	if changes.Name != "" {
		emp.Name = changes.Name
	}
	if changes.Position != "" {
		emp.Position = changes.Position
	}
	if changes.Address != "" {
		emp.Address = changes.Address
	}
	if err := repo.Update(emp); err != nil {
		return nil, err
	}
	return emp, nil
}

func (s *EmployeeService) Delete(id uint) error {
	repo := store.NewGormEmployeeRepository(s.db)
	emp, err := repo.GetByID(id)
	if err != nil {
		return err
	}
	if emp == nil {
		return vacation.ErrNotFound
	}
	if err := repo.Delete(id); err != nil {
		return err
	}
	s.log.WithField("id", id).Info("employee deleted")
	return nil
}

func (s *EmployeeService) Get(id uint) (*store.Employee, error) {
	emp, err := store.NewGormEmployeeRepository(s.db).GetWithPeriods(id)
	if err != nil {
		return nil, err
	}
	if emp == nil {
		return nil, vacation.ErrNotFound
	}
	return emp, nil
}

func (s *EmployeeService) List() ([]store.Employee, error) {
	return store.NewGormEmployeeRepository(s.db).List()
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return vacation.Day(*a).Equal(vacation.Day(*b))
}
