package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type LeaveType string

const (
	LeaveTypeCasual   LeaveType = "casual"
	LeaveTypeSick     LeaveType = "sick"
	LeaveTypeFestive  LeaveType = "festive"
	LeaveTypeOptional LeaveType = "optional"
)

type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// leave_requests — заявка провайдера на выходной день.
// Поля *Remaining — снимок остатков на момент одобрения: запись-леджер,
// а не изменяемый счётчик. Текущие остатки всегда пересчитываются
// по количеству одобренных заявок, снимок служит для аудита.
type LeaveRequest struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	ProviderID uuid.UUID `gorm:"type:uuid;not null;index:idx_leaves_provider_date"`

	// Календарная дата выходного (без времени).
	Date datatypes.Date `gorm:"type:date;not null;index:idx_leaves_provider_date"`

	Type   LeaveType   `gorm:"type:varchar(32);not null"`
	Status LeaveStatus `gorm:"type:varchar(32);not null;default:'pending';index"`

	Reason        string `gorm:"type:text"`
	DecisionNotes string `gorm:"type:text"`

	CasualRemaining   int `gorm:"type:int;not null;default:0"`
	SickRemaining     int `gorm:"type:int;not null;default:0"`
	FestiveRemaining  int `gorm:"type:int;not null;default:0"`
	OptionalRemaining int `gorm:"type:int;not null;default:0"`

	DecidedAt *time.Time `gorm:"type:timestamp with time zone"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Provider *Provider `gorm:"foreignKey:ProviderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
