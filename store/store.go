package store

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the SQLite database at path (":memory:" works for tests),
// enables foreign keys, and migrates the schema.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get database handle: %w", err)
	}
	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		logrus.WithError(err).Warn("could not enable foreign keys")
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&Employee{},
		&VacationPeriod{},
		&Movement{},
		&Agreement{},
		&Loan{},
		&Installment{},
		&Amortization{},
		&Document{},
		&User{},
	)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// SeedAdmin creates the initial administrative user when the users table is
// empty.
func SeedAdmin(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := db.Create(&User{Username: username, PasswordHash: string(hash), Active: true}).Error; err != nil {
		return err
	}
	logrus.WithField("username", username).Info("seeded initial admin user")
	return nil
}

// SeedDemo loads one demo employee with two periods and their initial grant
// movements. Intended for development databases only.
func SeedDemo(db *gorm.DB) error {
	var count int64
	if err := db.Model(&Employee{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hire := time.Date(2007, time.December, 1, 0, 0, 0, 0, time.UTC)
	emp := Employee{
		DNI:      "09672476",
		Name:     "Augusto Alberto Reaño Wong",
		Position: "JEFE DE OPERACIONES E INFRAESTRUCTURA TI",
		Address:  "AV. JOSE LEGUIA Y MELENDEZ 1575, URB. SURA - PUEBLO LIBRE",
		HireDate: &hire,
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&emp).Error; err != nil {
			return err
		}

		periods := []VacationPeriod{
			{
				EmployeeID: emp.ID, Label: "2023-2024",
				StartDate:    time.Date(2023, time.December, 1, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2024, time.November, 30, 0, 0, 0, 0, time.UTC),
				AllottedDays: 30, TakenDays: 23, PendingDays: 7,
			},
			{
				EmployeeID: emp.ID, Label: "2024-2025",
				StartDate:    time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
				EndDate:      time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC),
				AllottedDays: 30, PendingDays: 30, TruncatedDays: 21,
			},
		}
		for i := range periods {
			if err := tx.Create(&periods[i]).Error; err != nil {
				return err
			}
			grant := Movement{
				EmployeeID:       emp.ID,
				PeriodID:         periods[i].ID,
				Kind:             periods[i].Label,
				Date:             time.Now().UTC().Truncate(24 * time.Hour),
				Days:             periods[i].AllottedDays,
				ResultingBalance: periods[i].PendingDays,
			}
			if err := tx.Create(&grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
