package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

type ProviderRepository interface {
	GetByID(ctx context.Context, id string) (*model.Provider, error)
	// Обновить шаблон расписания (времена, длительность, таймзона).
	UpdateTemplate(ctx context.Context, id string, selectedSlots datatypes.JSON, durationMin int64, timezone string) error
}

type GormProviderRepository struct {
	db *gorm.DB
}

func NewGormProviderRepository(db *gorm.DB) *GormProviderRepository {
	return &GormProviderRepository{db: db}
}

func (r *GormProviderRepository) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	var p model.Provider
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormProviderRepository) UpdateTemplate(
	ctx context.Context,
	id string,
	selectedSlots datatypes.JSON,
	durationMin int64,
	timezone string,
) error {
	return r.db.WithContext(ctx).
		Model(&model.Provider{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"selected_slots":        selectedSlots,
			"slot_duration_minutes": durationMin,
			"timezone":              timezone,
		}).
		Error
}
