package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/repository"
	"github.com/kindora/therapy-platform/internal/schedule"
)

// Базовые квоты отпусков.
const (
	BaselineCasualPerYear    = 5
	BaselineSickPerYear      = 5
	BaselineFestivePerYear   = 5
	BaselineOptionalPerMonth = 1
)

// LeaveAction — решение администратора по заявке.
type LeaveAction string

const (
	LeaveActionApprove LeaveAction = "approve"
	LeaveActionReject  LeaveAction = "reject"
)

// LeaveService обрабатывает заявки на выходные и каскадную отмену.
// Остатки квот всегда пересчитываются по числу одобренных заявок;
// снимок на записи — леджер на момент одобрения, обратно он не читается.
type LeaveService struct {
	db        *gorm.DB
	providers repository.ProviderRepository
	leaves    repository.LeaveRepository
	notifier  Notifier

	now func() time.Time
}

func NewLeaveService(
	db *gorm.DB,
	providers repository.ProviderRepository,
	leaves repository.LeaveRepository,
	notifier Notifier,
) *LeaveService {
	return &LeaveService{
		db:        db,
		providers: providers,
		leaves:    leaves,
		notifier:  notifier,
		now:       time.Now,
	}
}

// quotaWindow — интервал дат [from, to), в котором считается квота типа t
// относительно даты заявки: календарный год для casual/sick/festive,
// календарный месяц для optional.
func quotaWindow(t model.LeaveType, date schedule.LocalDate) (time.Time, time.Time) {
	switch t {
	case model.LeaveTypeOptional:
		from := time.Date(date.Year, date.Month, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0)
	default:
		from := time.Date(date.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0)
	}
}

func baseline(t model.LeaveType) int {
	switch t {
	case model.LeaveTypeSick:
		return BaselineSickPerYear
	case model.LeaveTypeFestive:
		return BaselineFestivePerYear
	case model.LeaveTypeOptional:
		return BaselineOptionalPerMonth
	default:
		return BaselineCasualPerYear
	}
}

// remaining пересчитывает остаток квоты типа t на дату date через
// переданный репозиторий: внутри транзакции одобрения он привязан к tx.
func remaining(
	ctx context.Context,
	leaves repository.LeaveRepository,
	providerID string,
	t model.LeaveType,
	date schedule.LocalDate,
) (int, error) {
	from, to := quotaWindow(t, date)
	used, err := leaves.CountApprovedInRange(ctx, providerID, t, from, to)
	if err != nil {
		return 0, fmt.Errorf("count approved leaves: %w", err)
	}
	return baseline(t) - int(used), nil
}

// RequestLeave создаёт PENDING-заявку провайдера на дату.
func (s *LeaveService) RequestLeave(
	ctx context.Context,
	providerID string,
	date schedule.LocalDate,
	leaveType model.LeaveType,
	reason string,
) (*model.LeaveRequest, error) {
	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}

	loc, err := schedule.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	today := schedule.DateOf(s.now(), loc)
	if date.Before(today) {
		return nil, ErrPastDate
	}

	open, err := s.leaves.ExistsOpenOnDate(ctx, providerID, leaveDateKey(date))
	if err != nil {
		return nil, fmt.Errorf("check duplicate leave: %w", err)
	}
	if open {
		return nil, ErrDuplicateLeave
	}

	if leaveType == model.LeaveTypeOptional {
		from, to := quotaWindow(leaveType, date)
		used, err := s.leaves.CountApprovedInRange(ctx, providerID, leaveType, from, to)
		if err != nil {
			return nil, fmt.Errorf("count optional leaves: %w", err)
		}
		if used >= BaselineOptionalPerMonth {
			return nil, ErrOptionalAlreadyUsedThisMonth
		}
	}
	rem, err := remaining(ctx, s.leaves, providerID, leaveType, date)
	if err != nil {
		return nil, err
	}
	if rem <= 0 {
		return nil, ErrNoBalanceRemaining
	}

	// Снимок текущих остатков на момент заявки; при одобрении будет
	// перезаписан декрементированным.
	snapshot, err := snapshotRemaining(ctx, s.leaves, providerID, date)
	if err != nil {
		return nil, err
	}

	leave := &model.LeaveRequest{
		ProviderID:        p.ID,
		Date:              datatypes.Date(leaveDateKey(date)),
		Type:              leaveType,
		Status:            model.LeaveStatusPending,
		Reason:            reason,
		CasualRemaining:   snapshot[model.LeaveTypeCasual],
		SickRemaining:     snapshot[model.LeaveTypeSick],
		FestiveRemaining:  snapshot[model.LeaveTypeFestive],
		OptionalRemaining: snapshot[model.LeaveTypeOptional],
	}
	if err := s.leaves.Create(ctx, leave); err != nil {
		return nil, fmt.Errorf("create leave: %w", err)
	}

	s.notifier.Publish(Notification{
		Type:        model.EventTypeLeaveRequested,
		RecipientID: p.ID,
		Message:     fmt.Sprintf("leave requested for %s", date),
		SendAt:      s.now().UTC(),
	})
	return leave, nil
}

func snapshotRemaining(
	ctx context.Context,
	leaves repository.LeaveRepository,
	providerID string,
	date schedule.LocalDate,
) (map[model.LeaveType]int, error) {
	snapshot := make(map[model.LeaveType]int, 4)
	for _, t := range []model.LeaveType{
		model.LeaveTypeCasual,
		model.LeaveTypeSick,
		model.LeaveTypeFestive,
		model.LeaveTypeOptional,
	} {
		rem, err := remaining(ctx, leaves, providerID, t, date)
		if err != nil {
			return nil, err
		}
		snapshot[t] = rem
	}
	return snapshot, nil
}

// ListLeaves возвращает заявки провайдера, по убыванию даты.
func (s *LeaveService) ListLeaves(ctx context.Context, providerID string) ([]model.LeaveRequest, error) {
	if _, err := s.providers.GetByID(ctx, providerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return s.leaves.ListByProvider(ctx, providerID)
}

// ProcessLeave применяет решение администратора.
// Отклонение — только смена статуса и уведомление. Одобрение — одна
// транзакция: снимок остатков на запись, деактивация всех слотов даты,
// каскадная отмена scheduled-броней. Любой сбой откатывает заявку
// в PENDING целиком.
func (s *LeaveService) ProcessLeave(
	ctx context.Context,
	leaveID string,
	action LeaveAction,
	notes string,
) (*model.LeaveRequest, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeaveNotFound
		}
		return nil, fmt.Errorf("get leave: %w", err)
	}
	if leave.Status != model.LeaveStatusPending {
		return nil, ErrLeaveAlreadyProcessed
	}

	now := s.now().UTC()

	if action == LeaveActionReject {
		err := s.db.WithContext(ctx).
			Model(&model.LeaveRequest{}).
			Where("id = ? AND status = ?", leave.ID, model.LeaveStatusPending).
			Updates(map[string]any{
				"status":         model.LeaveStatusRejected,
				"decision_notes": notes,
				"decided_at":     now,
			}).Error
		if err != nil {
			return nil, wrapTxErr(fmt.Errorf("reject leave: %w", err))
		}
		s.notifier.Publish(Notification{
			Type:        model.EventTypeLeaveRejected,
			RecipientID: leave.ProviderID,
			Message:     notes,
			SendAt:      now,
		})
		return s.leaves.GetByID(ctx, leaveID)
	}

	p, err := s.providers.GetByID(ctx, leave.ProviderID.String())
	if err != nil {
		return nil, fmt.Errorf("get provider: %w", err)
	}
	loc, err := schedule.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	date := schedule.DateOf(time.Time(leave.Date), time.UTC)
	dayStart := date.StartOfDay(loc).UTC()
	dayEnd := date.AddDays(1).StartOfDay(loc).UTC()

	var cancelled []CancelledBooking

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Декрементированный снимок: одобряемая заявка уже учтена.
		// Считается внутри транзакции, по её собственному снимку данных.
		snapshot, err := snapshotRemaining(ctx, repository.NewGormLeaveRepository(tx), leave.ProviderID.String(), date)
		if err != nil {
			return err
		}
		snapshot[leave.Type]--

		res := tx.Model(&model.LeaveRequest{}).
			Where("id = ? AND status = ?", leave.ID, model.LeaveStatusPending).
			Updates(map[string]any{
				"status":             model.LeaveStatusApproved,
				"decision_notes":     notes,
				"decided_at":         now,
				"casual_remaining":   snapshot[model.LeaveTypeCasual],
				"sick_remaining":     snapshot[model.LeaveTypeSick],
				"festive_remaining":  snapshot[model.LeaveTypeFestive],
				"optional_remaining": snapshot[model.LeaveTypeOptional],
			})
		if res.Error != nil {
			return fmt.Errorf("approve leave: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrLeaveAlreadyProcessed
		}

		// Деактивируем все слоты даты независимо от занятости.
		err = tx.Model(&model.TimeSlot{}).
			Where("provider_id = ?", leave.ProviderID).
			Where("starts_at >= ? AND starts_at < ?", dayStart, dayEnd).
			Update("is_active", false).Error
		if err != nil {
			return fmt.Errorf("deactivate slots: %w", err)
		}

		cancelled, err = cancelBookingsWhere(tx, func(q *gorm.DB) *gorm.DB {
			return q.Where("bookings.provider_id = ?", leave.ProviderID).
				Where("time_slots.starts_at >= ? AND time_slots.starts_at < ?", dayStart, dayEnd)
		}, "provider leave approved", now)
		if err != nil {
			return fmt.Errorf("cascade cancel: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if errors.Is(txErr, ErrLeaveAlreadyProcessed) {
			return nil, ErrLeaveAlreadyProcessed
		}
		return nil, fmt.Errorf("%w: %v", ErrLeaveApprovalFailed, wrapTxErr(txErr))
	}

	// Уведомления родителям отменённых броней — строго после коммита.
	for _, c := range cancelled {
		bookingID := c.BookingID
		s.notifier.Publish(Notification{
			Type:        model.EventTypeBookingCancelled,
			RecipientID: c.ParentID,
			BookingID:   &bookingID,
			Message:     "session cancelled: therapist unavailable",
			SendAt:      now,
		})
	}
	s.notifier.Publish(Notification{
		Type:        model.EventTypeLeaveApproved,
		RecipientID: leave.ProviderID,
		Message:     notes,
		SendAt:      now,
	})

	return s.leaves.GetByID(ctx, leaveID)
}
