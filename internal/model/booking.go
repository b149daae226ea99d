package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusScheduled            BookingStatus = "scheduled"
	BookingStatusCompleted            BookingStatus = "completed"
	BookingStatusCancelledByTherapist BookingStatus = "cancelled_by_therapist"
	BookingStatusCancelledByParent    BookingStatus = "cancelled_by_parent"
)

// bookings — подтверждённая запись ребёнка на один слот.
// Инвариант: два бронирования не могут ссылаться на один слот
// в статусе scheduled одновременно. Частичный уникальный индекс
// покрывает только scheduled-строки: отменённая бронь остаётся
// в истории, а освобождённый слот можно бронировать заново.
type Booking struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ParentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ChildID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`
	SlotID     uuid.UUID `gorm:"type:uuid;not null;index:idx_bookings_slot_scheduled,unique,where:status = 'scheduled'"`

	// Ссылка на владеющий регулярный план, если бронь создана планировщиком.
	RecurringBookingID *uuid.UUID `gorm:"type:uuid;index"`

	Status BookingStatus `gorm:"type:varchar(32);not null;index"`

	CompletedAt  *time.Time `gorm:"type:timestamp with time zone"`
	CancelledAt  *time.Time `gorm:"type:timestamp with time zone"`
	CancelReason string     `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Parent   *Parent   `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Child    *Child    `gorm:"foreignKey:ChildID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Slot     *TimeSlot `gorm:"foreignKey:SlotID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}
