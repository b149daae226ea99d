package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

type LeaveRepository interface {
	Create(ctx context.Context, leave *model.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*model.LeaveRequest, error)
	// Есть ли pending/approved заявка провайдера на дату.
	ExistsOpenOnDate(ctx context.Context, providerID string, date time.Time) (bool, error)
	// Есть ли approved заявка провайдера на дату (для пропуска генерации слотов).
	HasApprovedOnDate(ctx context.Context, providerID string, date time.Time) (bool, error)
	// Количество approved заявок данного типа в интервале дат [from, to).
	CountApprovedInRange(ctx context.Context, providerID string, t model.LeaveType, from, to time.Time) (int64, error)
	// Заявки провайдера, по убыванию даты.
	ListByProvider(ctx context.Context, providerID string) ([]model.LeaveRequest, error)
}

type GormLeaveRepository struct {
	db *gorm.DB
}

func NewGormLeaveRepository(db *gorm.DB) *GormLeaveRepository {
	return &GormLeaveRepository{db: db}
}

func (r *GormLeaveRepository) Create(ctx context.Context, leave *model.LeaveRequest) error {
	return r.db.WithContext(ctx).Create(leave).Error
}

func (r *GormLeaveRepository) GetByID(ctx context.Context, id string) (*model.LeaveRequest, error) {
	var l model.LeaveRequest
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *GormLeaveRepository) ExistsOpenOnDate(ctx context.Context, providerID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LeaveRequest{}).
		Where("provider_id = ? AND date = ?", providerID, date).
		Where("status IN ?", []model.LeaveStatus{model.LeaveStatusPending, model.LeaveStatusApproved}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormLeaveRepository) HasApprovedOnDate(ctx context.Context, providerID string, date time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LeaveRequest{}).
		Where("provider_id = ? AND date = ? AND status = ?", providerID, date, model.LeaveStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormLeaveRepository) CountApprovedInRange(
	ctx context.Context,
	providerID string,
	t model.LeaveType,
	from, to time.Time,
) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.LeaveRequest{}).
		Where("provider_id = ? AND type = ? AND status = ?", providerID, t, model.LeaveStatusApproved).
		Where("date >= ? AND date < ?", from, to).
		Count(&count).Error
	return count, err
}

func (r *GormLeaveRepository) ListByProvider(ctx context.Context, providerID string) ([]model.LeaveRequest, error) {
	var leaves []model.LeaveRequest
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("date DESC").
		Find(&leaves).Error
	if err != nil {
		return nil, err
	}
	return leaves, nil
}
