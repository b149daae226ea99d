package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/repository"
	"github.com/kindora/therapy-platform/internal/schedule"
)

// RecurringInput — параметры регулярного плана.
type RecurringInput struct {
	ChildID    string
	ProviderID string
	SlotTime   string // "HH:MM", одно из времён шаблона провайдера
	StartDate  schedule.LocalDate
	EndDate    schedule.LocalDate
	Pattern    model.RecurrencePattern
	Weekdays   []time.Weekday // для weekly
}

// RecurringPlan — результат планирования: сам план и какие даты удалось
// забронировать, а какие остались пропусками.
type RecurringPlan struct {
	Plan        *model.RecurringBooking
	BookedDates []schedule.LocalDate
	GapDates    []schedule.LocalDate
}

// RecurringService проецирует повторяющийся шаблон в последовательность
// отдельных бронирований. Дата без свободного слота — пропуск, а не
// провал всего плана.
type RecurringService struct {
	db        *gorm.DB
	parents   repository.ParentRepository
	providers repository.ProviderRepository
	leaves    repository.LeaveRepository
	bookings  repository.BookingRepository
	recurring repository.RecurringRepository

	slotSvc    *SlotService
	bookingSvc *BookingService
	notifier   Notifier

	now func() time.Time
}

func NewRecurringService(
	db *gorm.DB,
	parents repository.ParentRepository,
	providers repository.ProviderRepository,
	leaves repository.LeaveRepository,
	bookings repository.BookingRepository,
	recurring repository.RecurringRepository,
	slotSvc *SlotService,
	bookingSvc *BookingService,
	notifier Notifier,
) *RecurringService {
	return &RecurringService{
		db:         db,
		parents:    parents,
		providers:  providers,
		leaves:     leaves,
		bookings:   bookings,
		recurring:  recurring,
		slotSvc:    slotSvc,
		bookingSvc: bookingSvc,
		notifier:   notifier,
		now:        time.Now,
	}
}

// CreateRecurringBooking валидирует план, проецирует даты и бронирует
// каждую реализуемую через обычный транзакционный клейм.
func (s *RecurringService) CreateRecurringBooking(
	ctx context.Context,
	parentID string,
	in RecurringInput,
) (*RecurringPlan, error) {
	owned, err := s.parents.ChildBelongsTo(ctx, in.ChildID, parentID)
	if err != nil {
		return nil, fmt.Errorf("check child ownership: %w", err)
	}
	if !owned {
		return nil, ErrChildNotOwned
	}

	p, err := s.providers.GetByID(ctx, in.ProviderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	if !p.IsActive {
		return nil, ErrProviderNotFound
	}

	times, loc, err := parseTemplate(p)
	if err != nil {
		return nil, err
	}
	slotTime, err := schedule.ParseSlotTime(in.SlotTime)
	if err != nil {
		return nil, err
	}
	offered := false
	for _, t := range times {
		if t == slotTime {
			offered = true
			break
		}
	}
	if !offered {
		return nil, ErrSlotTimeNotOffered
	}

	today := schedule.DateOf(s.now(), loc)
	if in.StartDate.Before(today) {
		return nil, ErrPastDate
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, ErrInvalidDateRange
	}

	var freq schedule.Frequency
	switch in.Pattern {
	case model.RecurrenceDaily:
		freq = schedule.FreqDaily
	case model.RecurrenceWeekly:
		freq = schedule.FreqWeekly
	default:
		return nil, fmt.Errorf("%w: unknown pattern %q", ErrInvalidDateRange, in.Pattern)
	}

	dates, err := schedule.ExpandRule(schedule.Rule{
		Freq:     freq,
		Interval: 1,
		Weekdays: in.Weekdays,
		Start:    in.StartDate,
		End:      in.EndDate,
	})
	if err != nil {
		return nil, err
	}

	weekdaysJSON, err := json.Marshal(in.Weekdays)
	if err != nil {
		return nil, fmt.Errorf("marshal weekdays: %w", err)
	}

	parent, err := s.parents.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}
	child, err := s.parents.GetChild(ctx, in.ChildID)
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}

	plan := &model.RecurringBooking{
		ParentID:   parent.ID,
		ChildID:    child.ID,
		ProviderID: p.ID,
		SlotTime:   slotTime.String(),
		StartDate:  datatypes.Date(in.StartDate.StartOfDay(time.UTC)),
		EndDate:    datatypes.Date(in.EndDate.StartOfDay(time.UTC)),
		Pattern:    in.Pattern,
		Weekdays:   datatypes.JSON(weekdaysJSON),
		IsActive:   true,
	}
	if err := s.recurring.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("create recurring booking: %w", err)
	}

	result := &RecurringPlan{Plan: plan}

	for _, date := range dates {
		// Выходные и дни одобренного отпуска — пропуски плана,
		// а не ошибки.
		if date.IsWeekend() {
			result.GapDates = append(result.GapDates, date)
			continue
		}
		onLeave, err := s.leaves.HasApprovedOnDate(ctx, in.ProviderID, leaveDateKey(date))
		if err != nil {
			return nil, fmt.Errorf("check leave: %w", err)
		}
		if onLeave {
			result.GapDates = append(result.GapDates, date)
			continue
		}

		slots, err := s.slotSvc.GetOrGenerateForDate(ctx, in.ProviderID, date)
		if err != nil {
			return nil, err
		}
		target := date.At(slotTime, loc).UTC()
		slotID := ""
		for _, slot := range slots {
			if slot.StartsAt.UTC().Equal(target) && slot.IsActive && !slot.IsBooked {
				slotID = slot.ID.String()
				break
			}
		}
		if slotID == "" {
			result.GapDates = append(result.GapDates, date)
			continue
		}

		if _, err := s.bookingSvc.bookSlot(ctx, parentID, in.ChildID, slotID, &plan.ID); err != nil {
			// Конкурент успел занять слот или сработала политика —
			// дата становится пропуском; системные сбои пробрасываем.
			if isPlanGapErr(err) {
				result.GapDates = append(result.GapDates, date)
				continue
			}
			return nil, err
		}
		result.BookedDates = append(result.BookedDates, date)
	}

	s.notifier.Publish(Notification{
		Type:        model.EventTypeRecurringCreated,
		RecipientID: parent.ID,
		Message:     fmt.Sprintf("recurring plan created: %d sessions, %d gaps", len(result.BookedDates), len(result.GapDates)),
		SendAt:      s.now().UTC(),
	})
	return result, nil
}

func isPlanGapErr(err error) bool {
	return errors.Is(err, ErrSlotUnavailable) ||
		errors.Is(err, ErrWeekendNotBookable) ||
		errors.Is(err, ErrBookingWindowExceeded)
}

// CancelRecurringBooking деактивирует план и отменяет его будущие
// scheduled-брони тем же каскадным примитивом, что и одобрение отпуска,
// но со скоупом по идентификатору плана.
func (s *RecurringService) CancelRecurringBooking(
	ctx context.Context,
	parentID string,
	id string,
) (*model.RecurringBooking, error) {
	plan, err := s.recurring.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecurringNotFound
		}
		return nil, fmt.Errorf("get recurring booking: %w", err)
	}
	if plan.ParentID.String() != parentID {
		return nil, ErrNotOwner
	}
	if !plan.IsActive {
		return nil, ErrAlreadyCancelled
	}

	now := s.now().UTC()
	var cancelled []CancelledBooking

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.RecurringBooking{}).
			Where("id = ? AND is_active = ?", plan.ID, true).
			Update("is_active", false)
		if res.Error != nil {
			return fmt.Errorf("deactivate plan: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyCancelled
		}

		cancelled, err = cancelBookingsWhere(tx, func(q *gorm.DB) *gorm.DB {
			return q.Where("bookings.recurring_booking_id = ?", plan.ID).
				Where("time_slots.starts_at > ?", now)
		}, "recurring plan cancelled", now)
		if err != nil {
			return fmt.Errorf("cascade cancel: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrAlreadyCancelled) {
			return nil, ErrAlreadyCancelled
		}
		return nil, wrapTxErr(txErr)
	}

	for _, c := range cancelled {
		bookingID := c.BookingID
		s.notifier.Publish(Notification{
			Type:        model.EventTypeBookingCancelled,
			RecipientID: c.ParentID,
			BookingID:   &bookingID,
			Message:     "session cancelled: recurring plan cancelled",
			SendAt:      now,
		})
	}
	s.notifier.Publish(Notification{
		Type:        model.EventTypeRecurringCancelled,
		RecipientID: plan.ParentID,
		Message:     "recurring plan cancelled",
		SendAt:      now,
	})

	return s.recurring.GetByID(ctx, id)
}

// ListPlans возвращает регулярные планы родителя, новые первыми.
func (s *RecurringService) ListPlans(ctx context.Context, parentID string) ([]model.RecurringBooking, error) {
	return s.recurring.ListByParent(ctx, parentID)
}

// GetUpcomingSessions возвращает будущие scheduled-брони плана
// по возрастанию времени. Только чтение, без регенерации слотов.
func (s *RecurringService) GetUpcomingSessions(
	ctx context.Context,
	parentID string,
	id string,
) ([]model.Booking, error) {
	plan, err := s.recurring.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecurringNotFound
		}
		return nil, fmt.Errorf("get recurring booking: %w", err)
	}
	if plan.ParentID.String() != parentID {
		return nil, ErrNotOwner
	}

	return s.bookings.ListByRecurring(
		ctx,
		id,
		s.now().UTC(),
		[]model.BookingStatus{model.BookingStatusScheduled},
	)
}
