package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type RecurrencePattern string

const (
	RecurrenceDaily  RecurrencePattern = "daily"
	RecurrenceWeekly RecurrencePattern = "weekly"
)

// recurring_bookings — логический план из N отдельных бронирований,
// созданных по повторяющемуся шаблону. IsActive=false — терминальное
// состояние: отмена затрагивает только будущие scheduled-брони плана.
type RecurringBooking struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ParentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ChildID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	// Локальное время сессии "HH:MM"; должно совпадать с одним из
	// SelectedSlots провайдера.
	SlotTime string `gorm:"type:varchar(5);not null"`

	StartDate datatypes.Date `gorm:"type:date;not null"`
	EndDate   datatypes.Date `gorm:"type:date;not null"`

	Pattern RecurrencePattern `gorm:"type:varchar(16);not null"`

	// Для weekly — JSON-массив номеров дней недели (0=воскресенье … 6=суббота).
	Weekdays datatypes.JSON `gorm:"type:jsonb"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Parent   *Parent   `gorm:"foreignKey:ParentID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Child    *Child    `gorm:"foreignKey:ChildID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`

	Bookings []Booking `gorm:"foreignKey:RecurringBookingID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}
