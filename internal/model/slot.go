package model

import (
	"time"

	"github.com/google/uuid"
)

// time_slots — конкретные бронируемые интервалы, материализованные
// из шаблона провайдера. Инвариант: IsBooked=true тогда и только тогда,
// когда на слот ссылается ровно одно неотменённое бронирование.
type TimeSlot struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;index:idx_slots_provider_start"`

	// Абсолютные инстанты в UTC; локальное время восстанавливается
	// через таймзону провайдера.
	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_slots_provider_start"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	IsActive bool `gorm:"not null;default:true;index"`
	IsBooked bool `gorm:"not null;default:false;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
