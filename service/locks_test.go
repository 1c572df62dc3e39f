package service

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hr-backend/store"
)

func TestEmployeeLocks_SerializesSameEmployee(t *testing.T) {
	locks := newEmployeeLocks()
	unlock := locks.Lock(1)

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock(1)
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock never handed over")
	}
}

func TestEmployeeLocks_IndependentAcrossEmployees(t *testing.T) {
	locks := newEmployeeLocks()
	unlock := locks.Lock(1)
	defer unlock()

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock(2)
		u()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("a different employee was blocked")
	}
}

func TestRegisterAdjustment_WaitsForEmployeeLock(t *testing.T) {
	// GIVEN: the employee's mutex held by an in-flight operation
	// WHEN: an adjustment on one of their periods arrives
	// THEN: it waits for the handover instead of interleaving

	db, err := store.Open(filepath.Join(t.TempDir(), "locks_test.db"))
	require.NoError(t, err)

	hire := time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC)
	emp := store.Employee{DNI: "11111111", Name: "Rosa Vela", HireDate: &hire}
	require.NoError(t, db.Create(&emp).Error)
	period := store.VacationPeriod{
		EmployeeID: emp.ID, Label: "2023-2024",
		StartDate: hire, EndDate: hire.AddDate(1, 0, -1),
		AllottedDays: 30, PendingDays: 30,
	}
	require.NoError(t, db.Create(&period).Error)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	svc := NewVacationService(db, log)

	unlock := svc.locks.Lock(emp.ID)
	done := make(chan error, 1)
	go func() {
		_, err := svc.RegisterAdjustment(period.ID, 2)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("adjustment ran while the employee lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	require.NoError(t, <-done)

	var p store.VacationPeriod
	require.NoError(t, db.First(&p, period.ID).Error)
	assert.Equal(t, 32, p.PendingDays)
}
