package service

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
)

// Notification — fire-and-forget событие для сервиса уведомлений.
type Notification struct {
	Type        model.EventType
	RecipientID uuid.UUID
	BookingID   *uuid.UUID
	Message     string
	SendAt      time.Time
}

// Notifier публикует уведомления строго после коммита основной транзакции.
// Реализация не имеет права блокировать вызывающего или возвращать ошибку:
// сбой доставки — проблема канала уведомлений, не планировщика.
type Notifier interface {
	Publish(n Notification)
}

// EventNotifier пишет событие в таблицу events (её вычитывает внешний
// сервис уведомлений) в отдельной горутине.
type EventNotifier struct {
	db *gorm.DB
	wg sync.WaitGroup
}

func NewEventNotifier(db *gorm.DB) *EventNotifier {
	return &EventNotifier{db: db}
}

func (n *EventNotifier) Publish(ntf Notification) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ev := model.Event{
			EventType:   ntf.Type,
			RecipientID: ntf.RecipientID,
			BookingID:   ntf.BookingID,
			Details:     ntf.Message,
			SendAt:      ntf.SendAt,
		}
		if err := n.db.Create(&ev).Error; err != nil {
			log.Printf("notifier: write event %s: %v", ntf.Type, err)
		}
	}()
}

// Wait дожидается завершения фоновых публикаций (graceful shutdown).
func (n *EventNotifier) Wait() {
	n.wg.Wait()
}
