package store

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// UserRepository persists administrative users.
type UserRepository interface {
	GetByUsername(username string) (*User, error)
}

type GormUserRepository struct {
	db *gorm.DB
}

func NewGormUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

// GetByUsername looks a user up case-insensitively. Returns (nil, nil) when
// no such user exists.
func (r *GormUserRepository) GetByUsername(username string) (*User, error) {
	var u User
	err := r.db.Where("LOWER(username) = ?", strings.ToLower(username)).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DocumentRepository persists generated-document records.
type DocumentRepository interface {
	Create(d *Document) error
	ListByLoan(loanID uint) ([]Document, error)
	DeleteByLoan(loanID uint) error
}

type GormDocumentRepository struct {
	db *gorm.DB
}

func NewGormDocumentRepository(db *gorm.DB) DocumentRepository {
	return &GormDocumentRepository{db: db}
}

func (r *GormDocumentRepository) Create(d *Document) error {
	return r.db.Create(d).Error
}

func (r *GormDocumentRepository) ListByLoan(loanID uint) ([]Document, error) {
	var docs []Document
	err := r.db.Where("loan_id = ?", loanID).Find(&docs).Error
	return docs, err
}

func (r *GormDocumentRepository) DeleteByLoan(loanID uint) error {
	return r.db.Where("loan_id = ?", loanID).Delete(&Document{}).Error
}
