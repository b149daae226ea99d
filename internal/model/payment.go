package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusRecorded PaymentStatus = "recorded"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// payments — запись о стоимости сессии, создаётся в транзакции бронирования.
// Сама оплата обрабатывается внешней системой; здесь только фиксация суммы.
type Payment struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ParentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	// CustomFee родителя, если задан, иначе BaseFee провайдера.
	Amount int64 `gorm:"type:bigint;not null"`

	Status PaymentStatus `gorm:"type:varchar(32);not null;default:'recorded';index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// session_access_grants — разрешение на доступ к данным сессии,
// ограниченное временным окном слота. Согласие по умолчанию не дано.
type SessionAccessGrant struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	BookingID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ParentID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProviderID uuid.UUID `gorm:"type:uuid;not null;index"`

	WindowStart time.Time `gorm:"type:timestamp with time zone;not null"`
	WindowEnd   time.Time `gorm:"type:timestamp with time zone;not null"`

	ConsentGiven bool `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Booking *Booking `gorm:"foreignKey:BookingID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
