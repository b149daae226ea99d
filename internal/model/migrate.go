package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей ядра расписания.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Parent{},
		&Child{},
		&Provider{},
		&TimeSlot{},
		&Booking{},
		&Payment{},
		&SessionAccessGrant{},
		&LeaveRequest{},
		&RecurringBooking{},
		&Event{},
	)
}
