package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

// CancelledBooking — данные отменённой брони для пост-коммитных уведомлений.
type CancelledBooking struct {
	BookingID  uuid.UUID `gorm:"column:booking_id"`
	ParentID   uuid.UUID `gorm:"column:parent_id"`
	ProviderID uuid.UUID `gorm:"column:provider_id"`
	SlotID     uuid.UUID `gorm:"column:slot_id"`
	StartsAt   time.Time `gorm:"column:starts_at"`
}

// cancelBookingsWhere — общий примитив каскадной отмены: переводит все
// scheduled-брони, попавшие в scope, в cancelled_by_therapist, снимает
// is_booked с их слотов и возвращает данные для уведомлений.
// Вызывается только внутри транзакции; откат транзакции откатывает каскад
// целиком. scope сужает выборку (провайдер+дата, либо регулярный план).
func cancelBookingsWhere(
	tx *gorm.DB,
	scope func(*gorm.DB) *gorm.DB,
	reason string,
	now time.Time,
) ([]CancelledBooking, error) {
	var affected []CancelledBooking

	q := tx.Model(&model.Booking{}).
		Select("bookings.id AS booking_id, bookings.parent_id, bookings.provider_id, bookings.slot_id, time_slots.starts_at").
		Joins("JOIN time_slots ON time_slots.id = bookings.slot_id").
		Where("bookings.status = ?", model.BookingStatusScheduled)

	if err := scope(q).Scan(&affected).Error; err != nil {
		return nil, err
	}
	if len(affected) == 0 {
		return nil, nil
	}

	bookingIDs := make([]uuid.UUID, 0, len(affected))
	slotIDs := make([]uuid.UUID, 0, len(affected))
	for _, a := range affected {
		bookingIDs = append(bookingIDs, a.BookingID)
		slotIDs = append(slotIDs, a.SlotID)
	}

	err := tx.Model(&model.Booking{}).
		Where("id IN ?", bookingIDs).
		Updates(map[string]any{
			"status":        model.BookingStatusCancelledByTherapist,
			"cancelled_at":  now,
			"cancel_reason": reason,
		}).Error
	if err != nil {
		return nil, err
	}

	err = tx.Model(&model.TimeSlot{}).
		Where("id IN ?", slotIDs).
		Update("is_booked", false).Error
	if err != nil {
		return nil, err
	}

	return affected, nil
}
