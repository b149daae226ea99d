package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/repository"
	"github.com/kindora/therapy-platform/internal/schedule"
)

// BookingService — транзакционный менеджер бронирования. Клейм слота —
// единственная точка взаимной блокировки во всём ядре: из N конкурентных
// попыток на один слот ровно одна завершается бронью.
type BookingService struct {
	db       *gorm.DB
	bookings repository.BookingRepository
	notifier Notifier

	windowDays int
	now        func() time.Time
}

func NewBookingService(
	db *gorm.DB,
	bookings repository.BookingRepository,
	notifier Notifier,
	windowDays int,
) *BookingService {
	return &BookingService{
		db:         db,
		bookings:   bookings,
		notifier:   notifier,
		windowDays: windowDays,
		now:        time.Now,
	}
}

// BookSlot бронирует слот для ребёнка родителя.
func (s *BookingService) BookSlot(ctx context.Context, parentID, childID, slotID string) (*model.Booking, error) {
	return s.bookSlot(ctx, parentID, childID, slotID, nil)
}

// bookSlot — общая реализация; recurringID связывает бронь с регулярным
// планом, когда её создаёт планировщик.
func (s *BookingService) bookSlot(
	ctx context.Context,
	parentID, childID, slotID string,
	recurringID *uuid.UUID,
) (*model.Booking, error) {
	childUUID, err := uuid.Parse(childID)
	if err != nil {
		return nil, ErrChildNotOwned
	}

	var booking model.Booking

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Блокировка строки слота: конкурентные клеймы и каскад отпуска
		// сериализуются здесь.
		slot, err := repository.LockSlotForUpdate(tx, slotID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSlotUnavailable
			}
			return fmt.Errorf("lock slot: %w", err)
		}
		if !slot.IsActive || slot.IsBooked {
			return ErrSlotUnavailable
		}

		now := s.now().UTC()
		if !slot.StartsAt.After(now) {
			return ErrSlotUnavailable
		}
		if slot.StartsAt.After(now.AddDate(0, 0, s.windowDays)) {
			return ErrBookingWindowExceeded
		}

		var provider model.Provider
		if err := tx.First(&provider, "id = ?", slot.ProviderID).Error; err != nil {
			return fmt.Errorf("load provider: %w", err)
		}
		if !provider.IsActive {
			return ErrSlotUnavailable
		}

		// Суббота/воскресенье определяются по календарю провайдера,
		// не по UTC-дате инстанта.
		loc, err := schedule.LoadLocation(provider.Timezone)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		if schedule.DateOf(slot.StartsAt, loc).IsWeekend() {
			return ErrWeekendNotBookable
		}

		var owned int64
		err = tx.Model(&model.Child{}).
			Where("id = ? AND parent_id = ?", childID, parentID).
			Count(&owned).Error
		if err != nil {
			return fmt.Errorf("check child ownership: %w", err)
		}
		if owned == 0 {
			return ErrChildNotOwned
		}

		// Условный апдейт определяет победителя даже там, где
		// FOR UPDATE не поддержан.
		claimed, err := repository.ClaimSlot(tx, slotID)
		if err != nil {
			return fmt.Errorf("claim slot: %w", err)
		}
		if !claimed {
			return ErrSlotUnavailable
		}

		var parent model.Parent
		if err := tx.First(&parent, "id = ?", parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrChildNotOwned
			}
			return fmt.Errorf("load parent: %w", err)
		}

		booking = model.Booking{
			ParentID:           parent.ID,
			ChildID:            childUUID,
			ProviderID:         slot.ProviderID,
			SlotID:             slot.ID,
			RecurringBookingID: recurringID,
			Status:             model.BookingStatusScheduled,
		}
		if err := tx.Create(&booking).Error; err != nil {
			return fmt.Errorf("create booking: %w", err)
		}

		// Стоимость: индивидуальная ставка родителя, иначе базовая провайдера.
		amount := provider.BaseFee
		if parent.CustomFee != nil {
			amount = *parent.CustomFee
		}
		payment := model.Payment{
			BookingID:  booking.ID,
			ParentID:   parent.ID,
			ProviderID: provider.ID,
			Amount:     amount,
			Status:     model.PaymentStatusRecorded,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		// Доступ к данным сессии: окно слота, согласие по умолчанию не дано.
		grant := model.SessionAccessGrant{
			BookingID:    booking.ID,
			ParentID:     parent.ID,
			ProviderID:   provider.ID,
			WindowStart:  slot.StartsAt,
			WindowEnd:    slot.EndsAt,
			ConsentGiven: false,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return fmt.Errorf("create access grant: %w", err)
		}

		return nil
	})
	if txErr != nil {
		return nil, wrapTxErr(txErr)
	}

	// Строго после коммита; сбой уведомления бронь не откатывает.
	s.notifier.Publish(Notification{
		Type:        model.EventTypeBookingCreated,
		RecipientID: booking.ParentID,
		BookingID:   &booking.ID,
		Message:     "booking created",
		SendAt:      s.now().UTC(),
	})

	return &booking, nil
}

// ListForParent возвращает брони родителя, чьи слоты начинаются
// в интервале дат [from, to], по возрастанию времени.
func (s *BookingService) ListForParent(
	ctx context.Context,
	parentID string,
	from, to schedule.LocalDate,
) ([]model.Booking, error) {
	if to.Before(from) {
		return nil, ErrInvalidDateRange
	}
	return s.bookings.ListByParentAndRange(
		ctx,
		parentID,
		from.StartOfDay(time.UTC),
		to.AddDays(1).StartOfDay(time.UTC),
	)
}

// CompleteBooking переводит scheduled-бронь в completed.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID string) (*model.Booking, error) {
	rows, err := s.bookings.MarkCompleted(ctx, bookingID, s.now().UTC())
	if err != nil {
		return nil, wrapTxErr(err)
	}
	if rows == 0 {
		if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrBookingNotFound
			}
			return nil, fmt.Errorf("get booking: %w", err)
		}
		return nil, ErrBookingNotScheduled
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}

	s.notifier.Publish(Notification{
		Type:        model.EventTypeBookingCompleted,
		RecipientID: b.ParentID,
		BookingID:   &b.ID,
		Message:     "session completed",
		SendAt:      s.now().UTC(),
	})
	return b, nil
}
