package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/schedule"
)

func TestGetOrGenerateForDate_GeneratesTemplateSlots(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	p := seedProvider(t, db, "Asia/Kolkata")

	date := mustDate(t, "2026-01-06")
	slots, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), date)
	if err != nil {
		t.Fatalf("GetOrGenerateForDate: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("len(slots) = %d, want 8", len(slots))
	}

	// 09:00 in UTC+5:30 is 03:30 UTC.
	loc, _ := schedule.LoadLocation("Asia/Kolkata")
	slot := slotAt(t, slots, date, "09:00", loc)
	want := time.Date(2026, time.January, 6, 3, 30, 0, 0, time.UTC)
	if !slot.StartsAt.UTC().Equal(want) {
		t.Fatalf("StartsAt = %v, want %v", slot.StartsAt.UTC(), want)
	}
	if !slot.EndsAt.UTC().Equal(want.Add(time.Hour)) {
		t.Fatalf("EndsAt = %v, want %v", slot.EndsAt.UTC(), want.Add(time.Hour))
	}
	if !slot.IsActive || slot.IsBooked {
		t.Fatalf("fresh slot must be active and unbooked")
	}
}

func TestGetOrGenerateForDate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	p := seedProvider(t, db, "UTC")

	date := mustDate(t, "2026-01-06")
	first, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), date)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), date)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("len mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("slot %d regenerated: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestGetOrGenerateForDate_ProviderNotFound(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)

	_, err := env.slots.GetOrGenerateForDate(context.Background(), "c2a7e9aa-0000-0000-0000-000000000000", mustDate(t, "2026-01-06"))
	if !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("err = %v, want ErrProviderNotFound", err)
	}
}

func TestGetOrGenerateForDate_InvalidTemplate(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	p := seedProvider(t, db, "UTC")

	// Shrink the template to 7 times.
	raw, _ := json.Marshal(testSlotTimes[:7])
	if err := db.Model(&model.Provider{}).Where("id = ?", p.ID).
		Update("selected_slots", datatypes.JSON(raw)).Error; err != nil {
		t.Fatalf("update template: %v", err)
	}

	_, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), mustDate(t, "2026-01-06"))
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}

func TestGetOrGenerateForDate_SkipsApprovedLeaveDay(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	p := seedProvider(t, db, "UTC")

	date := mustDate(t, "2026-01-06")
	leave := &model.LeaveRequest{
		ProviderID: p.ID,
		Date:       datatypes.Date(leaveDateKey(date)),
		Type:       model.LeaveTypeCasual,
		Status:     model.LeaveStatusApproved,
	}
	if err := db.Create(leave).Error; err != nil {
		t.Fatalf("seed leave: %v", err)
	}

	slots, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), date)
	if err != nil {
		t.Fatalf("GetOrGenerateForDate: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("len(slots) = %d, want 0 on leave day", len(slots))
	}

	var count int64
	db.Model(&model.TimeSlot{}).Where("provider_id = ?", p.ID).Count(&count)
	if count != 0 {
		t.Fatalf("slots persisted on leave day: %d", count)
	}
}

func TestGetOrGenerateForDate_WeekendStillMaterialized(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	p := seedProvider(t, db, "UTC")

	// Weekend days are generated; the booking path rejects them.
	slots, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), mustDate(t, "2026-01-10"))
	if err != nil {
		t.Fatalf("GetOrGenerateForDate: %v", err)
	}
	if len(slots) != 8 {
		t.Fatalf("len(slots) = %d, want 8 on saturday", len(slots))
	}
}

func TestMaterializeSlots_FullHorizon(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	env.slots.horizonDays = 7
	p := seedProvider(t, db, "UTC")

	if err := env.slots.MaterializeSlots(context.Background(), p.ID.String()); err != nil {
		t.Fatalf("MaterializeSlots: %v", err)
	}

	var count int64
	db.Model(&model.TimeSlot{}).Where("provider_id = ?", p.ID).Count(&count)
	if count != 7*8 {
		t.Fatalf("slot count = %d, want %d", count, 7*8)
	}
}

func TestRegenerateForTemplateChange_PreservesBookedSlots(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	env.slots.horizonDays = 7
	p := seedProvider(t, db, "UTC")
	parent := seedParent(t, db, nil)
	child := seedChild(t, db, parent.ID)

	date := mustDate(t, "2026-01-06")
	slots, err := env.slots.GetOrGenerateForDate(context.Background(), p.ID.String(), date)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	loc, _ := schedule.LoadLocation("UTC")
	booked := slotAt(t, slots, date, "09:00", loc)
	if _, err := env.bookings.BookSlot(context.Background(), parent.ID.String(), child.ID.String(), booked.ID.String()); err != nil {
		t.Fatalf("book: %v", err)
	}

	newTimes := []string{"08:00", "09:30", "10:30", "11:30", "12:30", "13:30", "14:30", "15:30"}
	err = env.slots.RegenerateForTemplateChange(context.Background(), p.ID.String(), newTimes, 45, "UTC")
	if err != nil {
		t.Fatalf("RegenerateForTemplateChange: %v", err)
	}

	// The booked slot survives untouched.
	var kept model.TimeSlot
	if err := db.First(&kept, "id = ?", booked.ID).Error; err != nil {
		t.Fatalf("booked slot deleted: %v", err)
	}
	if !kept.IsBooked {
		t.Fatalf("booked slot lost is_booked")
	}

	// Old unbooked instants are gone.
	var count int64
	db.Model(&model.TimeSlot{}).
		Where("provider_id = ?", p.ID).
		Where("starts_at = ?", date.At(schedule.SlotTime{Hour: 10}, loc).UTC()).
		Count(&count)
	if count != 0 {
		t.Fatalf("old 10:00 slot still present")
	}

	// New template instants exist.
	db.Model(&model.TimeSlot{}).
		Where("provider_id = ?", p.ID).
		Where("starts_at = ?", date.At(schedule.SlotTime{Hour: 8}, loc).UTC()).
		Count(&count)
	if count != 1 {
		t.Fatalf("new 08:00 slot missing")
	}
}

func TestRegenerateForTemplateChange_InvalidTemplate(t *testing.T) {
	db := newTestDB(t)
	env := newTestEnv(t, db)
	p := seedProvider(t, db, "UTC")

	err := env.slots.RegenerateForTemplateChange(context.Background(), p.ID.String(), []string{"09:00"}, 60, "UTC")
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("err = %v, want ErrInvalidConfiguration", err)
	}
}
