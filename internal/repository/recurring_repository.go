package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

type RecurringRepository interface {
	Create(ctx context.Context, rb *model.RecurringBooking) error
	GetByID(ctx context.Context, id string) (*model.RecurringBooking, error)
	// Планы родителя, по убыванию даты создания.
	ListByParent(ctx context.Context, parentID string) ([]model.RecurringBooking, error)
}

type GormRecurringRepository struct {
	db *gorm.DB
}

func NewGormRecurringRepository(db *gorm.DB) *GormRecurringRepository {
	return &GormRecurringRepository{db: db}
}

func (r *GormRecurringRepository) Create(ctx context.Context, rb *model.RecurringBooking) error {
	return r.db.WithContext(ctx).Create(rb).Error
}

func (r *GormRecurringRepository) GetByID(ctx context.Context, id string) (*model.RecurringBooking, error) {
	var rb model.RecurringBooking
	if err := r.db.WithContext(ctx).First(&rb, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rb, nil
}

func (r *GormRecurringRepository) ListByParent(ctx context.Context, parentID string) ([]model.RecurringBooking, error) {
	var plans []model.RecurringBooking
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at DESC").
		Find(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
