package model

import (
	"time"

	"github.com/google/uuid"
)

// Тип события для уведомлений и аудита.
type EventType string

const (
	EventTypeBookingCreated     EventType = "booking_created"
	EventTypeBookingCancelled   EventType = "booking_cancelled"
	EventTypeBookingCompleted   EventType = "booking_completed"
	EventTypeLeaveRequested     EventType = "leave_requested"
	EventTypeLeaveApproved      EventType = "leave_approved"
	EventTypeLeaveRejected      EventType = "leave_rejected"
	EventTypeRecurringCreated   EventType = "recurring_created"
	EventTypeRecurringCancelled EventType = "recurring_cancelled"
)

// events — fire-and-forget события для сервиса уведомлений.
// Пишутся только после коммита основной транзакции; сбой записи
// логируется и никогда не влияет на саму операцию.
type Event struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	EventType EventType `gorm:"type:varchar(64);not null;index"`

	// Получатель уведомления (родитель или провайдер).
	RecipientID uuid.UUID `gorm:"type:uuid;not null;index"`

	BookingID *uuid.UUID `gorm:"type:uuid;index"`

	Details string `gorm:"type:text"`

	// Когда уведомление должно быть отправлено.
	SendAt time.Time `gorm:"not null;default:now()"`

	CreatedAt time.Time `gorm:"not null;default:now();index"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
