package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

type ParentRepository interface {
	GetByID(ctx context.Context, id string) (*model.Parent, error)
	GetChild(ctx context.Context, childID string) (*model.Child, error)
	// Принадлежит ли ребёнок родителю.
	ChildBelongsTo(ctx context.Context, childID, parentID string) (bool, error)
}

type GormParentRepository struct {
	db *gorm.DB
}

func NewGormParentRepository(db *gorm.DB) *GormParentRepository {
	return &GormParentRepository{db: db}
}

func (r *GormParentRepository) GetByID(ctx context.Context, id string) (*model.Parent, error) {
	var p model.Parent
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormParentRepository) GetChild(ctx context.Context, childID string) (*model.Child, error) {
	var c model.Child
	if err := r.db.WithContext(ctx).First(&c, "id = ?", childID).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormParentRepository) ChildBelongsTo(ctx context.Context, childID, parentID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Child{}).
		Where("id = ? AND parent_id = ?", childID, parentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
