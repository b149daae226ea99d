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

// Шаблон провайдера всегда содержит ровно 8 времён начала сессий.
const templateSlotCount = 8

// SlotService материализует конкретные бронируемые слоты из шаблона
// провайдера. Выходные дни материализуются как обычно и отклоняются
// только при бронировании; дни с одобренным отпуском не генерируются вовсе.
type SlotService struct {
	db        *gorm.DB
	providers repository.ProviderRepository
	slots     repository.SlotRepository
	leaves    repository.LeaveRepository

	horizonDays int
	now         func() time.Time
}

func NewSlotService(
	db *gorm.DB,
	providers repository.ProviderRepository,
	slots repository.SlotRepository,
	leaves repository.LeaveRepository,
	horizonDays int,
) *SlotService {
	return &SlotService{
		db:          db,
		providers:   providers,
		slots:       slots,
		leaves:      leaves,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// provider достаёт провайдера, переводя gorm-ошибку в доменную.
func (s *SlotService) provider(ctx context.Context, id string) (*model.Provider, error) {
	p, err := s.providers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProviderNotFound
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}
	return p, nil
}

// parseTemplate валидирует шаблон: ровно 8 корректных "HH:MM" и известная
// таймзона. Любое нарушение — ErrInvalidConfiguration.
func parseTemplate(p *model.Provider) ([]schedule.SlotTime, *time.Location, error) {
	if len(p.SelectedSlots) == 0 {
		return nil, nil, ErrInvalidConfiguration
	}
	var raw []string
	if err := json.Unmarshal(p.SelectedSlots, &raw); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if len(raw) != templateSlotCount {
		return nil, nil, fmt.Errorf("%w: got %d times", ErrInvalidConfiguration, len(raw))
	}
	times := make([]schedule.SlotTime, 0, templateSlotCount)
	for _, ts := range raw {
		t, err := schedule.ParseSlotTime(ts)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		times = append(times, t)
	}
	loc, err := schedule.LoadLocation(p.Timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return times, loc, nil
}

// leaveDateKey — каноническое представление календарной даты отпуска
// в колонке date: полночь этой даты в UTC.
func leaveDateKey(d schedule.LocalDate) time.Time {
	return d.StartOfDay(time.UTC)
}

// buildSlots строит слоты даты из шаблона, пропуская занятые инстанты.
func buildSlots(
	p *model.Provider,
	date schedule.LocalDate,
	times []schedule.SlotTime,
	loc *time.Location,
	taken map[time.Time]bool,
) []model.TimeSlot {
	duration := time.Duration(p.SlotDurationMinutes) * time.Minute
	slots := make([]model.TimeSlot, 0, len(times))
	for _, t := range times {
		start := date.At(t, loc).UTC()
		if taken[start] {
			continue
		}
		slots = append(slots, model.TimeSlot{
			ProviderID: p.ID,
			StartsAt:   start,
			EndsAt:     start.Add(duration),
			IsActive:   true,
			IsBooked:   false,
		})
	}
	return slots
}

// GetOrGenerateForDate возвращает слоты провайдера на дату, генерируя их
// при первом обращении. Повторные вызовы до первого бронирования
// идемпотентны. Если на дату есть одобренный отпуск — генерация
// пропускается целиком и возвращается пустой список.
func (s *SlotService) GetOrGenerateForDate(
	ctx context.Context,
	providerID string,
	date schedule.LocalDate,
) ([]model.TimeSlot, error) {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	times, loc, err := parseTemplate(p)
	if err != nil {
		return nil, err
	}

	dayStart := date.StartOfDay(loc).UTC()
	dayEnd := date.AddDays(1).StartOfDay(loc).UTC()

	existing, err := s.slots.ListByProviderRange(ctx, providerID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if len(existing) > 0 {
		return existing, nil
	}

	onLeave, err := s.leaves.HasApprovedOnDate(ctx, providerID, leaveDateKey(date))
	if err != nil {
		return nil, fmt.Errorf("check leave: %w", err)
	}
	if onLeave {
		return []model.TimeSlot{}, nil
	}

	slots := buildSlots(p, date, times, loc, nil)
	if err := s.slots.CreateBatch(ctx, slots); err != nil {
		return nil, fmt.Errorf("create slots: %w", err)
	}
	return s.slots.ListByProviderRange(ctx, providerID, dayStart, dayEnd)
}

// MaterializeSlots прогоняет генерацию по всему горизонту от сегодня.
// Уже материализованные и отпускные даты пропускаются.
func (s *SlotService) MaterializeSlots(ctx context.Context, providerID string) error {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return err
	}
	_, loc, err := parseTemplate(p)
	if err != nil {
		return err
	}

	today := schedule.DateOf(s.now(), loc)
	for i := 0; i < s.horizonDays; i++ {
		if _, err := s.GetOrGenerateForDate(ctx, providerID, today.AddDays(i)); err != nil {
			return err
		}
	}
	return nil
}

// RegenerateForTemplateChange атомарно обновляет шаблон провайдера,
// удаляет будущие незабронированные слоты и перегенерирует горизонт.
// Забронированные слоты не трогаются; их инстанты при перегенерации
// пропускаются, чтобы не создавать дубликаты.
func (s *SlotService) RegenerateForTemplateChange(
	ctx context.Context,
	providerID string,
	slotTimes []string,
	durationMin int64,
	timezone string,
) error {
	p, err := s.provider(ctx, providerID)
	if err != nil {
		return err
	}

	if len(slotTimes) != templateSlotCount {
		return fmt.Errorf("%w: got %d times", ErrInvalidConfiguration, len(slotTimes))
	}
	for _, ts := range slotTimes {
		if _, err := schedule.ParseSlotTime(ts); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}
	if durationMin <= 0 {
		return fmt.Errorf("%w: non-positive duration", ErrInvalidConfiguration)
	}
	loc, err := schedule.LoadLocation(timezone)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	rawTimes, err := json.Marshal(slotTimes)
	if err != nil {
		return fmt.Errorf("marshal template: %w", err)
	}

	now := s.now().UTC()
	today := schedule.DateOf(now, loc)
	horizonEnd := today.AddDays(s.horizonDays).StartOfDay(loc).UTC()

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.Provider{}).
			Where("id = ?", providerID).
			Updates(map[string]any{
				"selected_slots":        datatypes.JSON(rawTimes),
				"slot_duration_minutes": durationMin,
				"timezone":              timezone,
			}).Error
		if err != nil {
			return fmt.Errorf("update template: %w", err)
		}

		// Удаляем только будущее и только незабронированное: слот,
		// который прямо сейчас клеймится, защищён своей блокировкой строки.
		err = repository.NewGormSlotRepository(tx).DeleteUnbookedAfter(ctx, providerID, now)
		if err != nil {
			return fmt.Errorf("delete unbooked slots: %w", err)
		}

		// Оставшиеся (забронированные) инстанты не дублируем.
		var kept []model.TimeSlot
		err = tx.Where("provider_id = ?", providerID).
			Where("starts_at > ?", now).
			Find(&kept).Error
		if err != nil {
			return fmt.Errorf("list kept slots: %w", err)
		}
		taken := make(map[time.Time]bool, len(kept))
		for _, k := range kept {
			taken[k.StartsAt.UTC()] = true
		}

		fresh := *p
		fresh.SelectedSlots = datatypes.JSON(rawTimes)
		fresh.SlotDurationMinutes = durationMin
		fresh.Timezone = timezone
		times, _, err := parseTemplate(&fresh)
		if err != nil {
			return err
		}

		var batch []model.TimeSlot
		for i := 0; i < s.horizonDays; i++ {
			date := today.AddDays(i)
			onLeave, err := s.leaveApprovedInTx(tx, providerID, date)
			if err != nil {
				return err
			}
			if onLeave {
				continue
			}
			for _, slot := range buildSlots(&fresh, date, times, loc, taken) {
				if !slot.StartsAt.After(now) || !slot.StartsAt.Before(horizonEnd) {
					continue
				}
				batch = append(batch, slot)
			}
		}
		if len(batch) > 0 {
			if err := tx.Create(&batch).Error; err != nil {
				return fmt.Errorf("insert regenerated slots: %w", err)
			}
		}
		return nil
	})
	return wrapTxErr(txErr)
}

func (s *SlotService) leaveApprovedInTx(tx *gorm.DB, providerID string, date schedule.LocalDate) (bool, error) {
	var count int64
	err := tx.Model(&model.LeaveRequest{}).
		Where("provider_id = ? AND date = ? AND status = ?", providerID, leaveDateKey(date), model.LeaveStatusApproved).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check leave: %w", err)
	}
	return count > 0, nil
}
