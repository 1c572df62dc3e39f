package store

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// MovementRepository persists ledger movements. Movements are append-only
// except for two sanctioned edits: correcting the optional date range, and
// explicit deletion (which obliges the caller to replay the period).
type MovementRepository interface {
	Create(m *Movement) error
	GetByID(id uint) (*Movement, error)
	ListByPeriod(periodID uint) ([]Movement, error)
	UpdateRange(id uint, start, end *time.Time) error
	Delete(id uint) error
}

type GormMovementRepository struct {
	db *gorm.DB
}

func NewGormMovementRepository(db *gorm.DB) MovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) Create(m *Movement) error {
	return r.db.Create(m).Error
}

func (r *GormMovementRepository) GetByID(id uint) (*Movement, error) {
	var m Movement
	err := r.db.First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *GormMovementRepository) ListByPeriod(periodID uint) ([]Movement, error) {
	var movements []Movement
	err := r.db.Where("period_id = ?", periodID).
		Order("id ASC").
		Find(&movements).Error
	return movements, err
}

func (r *GormMovementRepository) UpdateRange(id uint, start, end *time.Time) error {
	return r.db.Model(&Movement{}).Where("id = ?", id).
		Updates(map[string]interface{}{"range_start": start, "range_end": end}).Error
}

func (r *GormMovementRepository) Delete(id uint) error {
	return r.db.Delete(&Movement{}, id).Error
}
