/*
locks.go - Per-employee operation serialization

PURPOSE:

	Concurrent requests against the SAME employee must not interleave:
	two overlapping vacation requests could both read the same balances
	and both pass the sufficiency check. A keyed mutex serializes all
	balance-mutating operations per employee while leaving different
	employees fully concurrent.

WHY NOT DB LOCKING?

	SQLite serializes writers globally, but the read-decide-write cycle
	spans several queries before the transaction opens. The keyed mutex
	pins the whole cycle, not just the final write.
*/
package service

import "sync"

// employeeLocks hands out one mutex per employee ID. Locks are never
// released back; the population is bounded by the headcount.
type employeeLocks struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

func newEmployeeLocks() *employeeLocks {
	return &employeeLocks{locks: make(map[uint]*sync.Mutex)}
}

func (l *employeeLocks) get(employeeID uint) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[employeeID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[employeeID] = m
	}
	return m
}

// Lock acquires the employee's mutex and returns the unlock func.
func (l *employeeLocks) Lock(employeeID uint) func() {
	m := l.get(employeeID)
	m.Lock()
	return m.Unlock
}
