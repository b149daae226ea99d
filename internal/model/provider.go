package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Provider — терапевт, ведущий видеосессии с детьми.
type Provider struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	// Имя/отображаемое название в интерфейсе.
	DisplayName string `gorm:"type:varchar(255);not null"`

	// Краткое описание, специализация и т.п.
	Description string `gorm:"type:text"`

	// IANA-таймзона провайдера, например "Asia/Kolkata".
	Timezone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Ровно 8 локальных времён начала сессий в формате "HH:MM".
	// Хранится как JSON-массив строк (в Postgres — JSONB).
	SelectedSlots datatypes.JSON `gorm:"type:jsonb"`

	// Длительность одной сессии в минутах.
	SlotDurationMinutes int64 `gorm:"type:bigint;not null;default:60"`

	// Базовая стоимость сессии в минимальных единицах валюты.
	BaseFee int64 `gorm:"type:bigint;not null;default:0"`

	IsActive bool `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	// Навигационные поля для GORM (опционально, но удобно для Preload).
	Slots  []TimeSlot     `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Leaves []LeaveRequest `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
