package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

type BookingRepository interface {
	// Получить бронирование по ID.
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	// Список бронирований родителя за период.
	ListByParentAndRange(ctx context.Context, parentID string, from, to time.Time) ([]model.Booking, error)
	// Будущие брони регулярного плана в заданных статусах, по возрастанию времени.
	ListByRecurring(ctx context.Context, recurringID string, after time.Time, statuses []model.BookingStatus) ([]model.Booking, error)
	// Перевести scheduled-бронь в completed.
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) (int64, error)
}

type GormBookingRepository struct {
	db *gorm.DB
}

func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

func (r *GormBookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	var b model.Booking
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormBookingRepository) ListByParentAndRange(
	ctx context.Context,
	parentID string,
	from, to time.Time,
) ([]model.Booking, error) {
	var bookings []model.Booking
	err := r.db.WithContext(ctx).
		Joins("JOIN time_slots ON time_slots.id = bookings.slot_id").
		Where("bookings.parent_id = ?", parentID).
		Where("time_slots.starts_at >= ? AND time_slots.starts_at < ?", from, to).
		Order("time_slots.starts_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) ListByRecurring(
	ctx context.Context,
	recurringID string,
	after time.Time,
	statuses []model.BookingStatus,
) ([]model.Booking, error) {
	var bookings []model.Booking
	q := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Joins("JOIN time_slots ON time_slots.id = bookings.slot_id").
		Where("bookings.recurring_booking_id = ?", recurringID).
		Where("time_slots.starts_at > ?", after)
	if len(statuses) > 0 {
		q = q.Where("bookings.status IN ?", statuses)
	}
	err := q.Order("time_slots.starts_at ASC").Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *GormBookingRepository) MarkCompleted(ctx context.Context, id string, completedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Booking{}).
		Where("id = ? AND status = ?", id, model.BookingStatusScheduled).
		Updates(map[string]any{
			"status":       model.BookingStatusCompleted,
			"completed_at": completedAt,
		})
	return res.RowsAffected, res.Error
}
