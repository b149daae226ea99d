package service

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kindora/therapy-platform/internal/model"
	"github.com/kindora/therapy-platform/internal/repository"
	"github.com/kindora/therapy-platform/internal/schedule"
)

// Fixed clock for deterministic window/date checks: Monday 2026-01-05 08:00 UTC.
var fixedNow = time.Date(2026, time.January, 5, 8, 0, 0, 0, time.UTC)

var testSlotTimes = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

// Minimal sqlite-friendly schema: the Postgres defaults in the model tags
// (gen_random_uuid, now) do not automigrate on sqlite.
var testSchema = []string{
	`CREATE TABLE providers (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		description TEXT,
		timezone TEXT NOT NULL,
		selected_slots TEXT,
		slot_duration_minutes INTEGER NOT NULL,
		base_fee INTEGER NOT NULL,
		is_active BOOLEAN NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE parents (
		id TEXT PRIMARY KEY,
		display_name TEXT,
		contact_phone TEXT,
		custom_fee INTEGER,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE children (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		display_name TEXT NOT NULL,
		birth_year INTEGER,
		note TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE time_slots (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		starts_at DATETIME NOT NULL,
		ends_at DATETIME NOT NULL,
		is_active BOOLEAN NOT NULL,
		is_booked BOOLEAN NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE bookings (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		slot_id TEXT NOT NULL,
		recurring_booking_id TEXT,
		status TEXT NOT NULL,
		completed_at DATETIME,
		cancelled_at DATETIME,
		cancel_reason TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE UNIQUE INDEX idx_bookings_slot_scheduled ON bookings(slot_id) WHERE status = 'scheduled';`,
	`CREATE TABLE payments (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		parent_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE session_access_grants (
		id TEXT PRIMARY KEY,
		booking_id TEXT NOT NULL UNIQUE,
		parent_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		window_start DATETIME NOT NULL,
		window_end DATETIME NOT NULL,
		consent_given BOOLEAN NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE leave_requests (
		id TEXT PRIMARY KEY,
		provider_id TEXT NOT NULL,
		date DATE NOT NULL,
		type TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT,
		decision_notes TEXT,
		casual_remaining INTEGER NOT NULL DEFAULT 0,
		sick_remaining INTEGER NOT NULL DEFAULT 0,
		festive_remaining INTEGER NOT NULL DEFAULT 0,
		optional_remaining INTEGER NOT NULL DEFAULT 0,
		decided_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE recurring_bookings (
		id TEXT PRIMARY KEY,
		parent_id TEXT NOT NULL,
		child_id TEXT NOT NULL,
		provider_id TEXT NOT NULL,
		slot_time TEXT NOT NULL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		pattern TEXT NOT NULL,
		weekdays TEXT,
		is_active BOOLEAN NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	);`,
	`CREATE TABLE events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		booking_id TEXT,
		details TEXT,
		send_at DATETIME,
		created_at DATETIME
	);`,
}

func openTestDB(t *testing.T, dsn string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if dsn == ":memory:" {
		// Every pooled connection to :memory: is a separate database.
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("unwrap sql.DB: %v", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}
	for _, stmt := range testSchema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newTestDB(t *testing.T) *gorm.DB {
	return openTestDB(t, ":memory:")
}

// newConcurrentTestDB opens a file-backed database: concurrent transactions
// on :memory: do not serialize honestly. _txlock=immediate makes BEGIN take
// the write lock up front, mirroring the locking discipline of Postgres.
func newConcurrentTestDB(t *testing.T) *gorm.DB {
	path := filepath.Join(t.TempDir(), "claims.db")
	return openTestDB(t, "file:"+path+"?_busy_timeout=5000&_txlock=immediate")
}

// recordingNotifier collects notifications synchronously for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Notification
}

func (n *recordingNotifier) Publish(e Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, e)
}

func (n *recordingNotifier) byType(t model.EventType) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, e := range n.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

type testEnv struct {
	db        *gorm.DB
	slots     *SlotService
	bookings  *BookingService
	leaves    *LeaveService
	recurring *RecurringService
	notifier  *recordingNotifier
}

func newTestEnv(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()

	providerRepo := repository.NewGormProviderRepository(db)
	parentRepo := repository.NewGormParentRepository(db)
	slotRepo := repository.NewGormSlotRepository(db)
	bookingRepo := repository.NewGormBookingRepository(db)
	leaveRepo := repository.NewGormLeaveRepository(db)
	recurringRepo := repository.NewGormRecurringRepository(db)

	notifier := &recordingNotifier{}
	nowFn := func() time.Time { return fixedNow }

	slots := NewSlotService(db, providerRepo, slotRepo, leaveRepo, 60)
	slots.now = nowFn
	bookings := NewBookingService(db, bookingRepo, notifier, 30)
	bookings.now = nowFn
	leaves := NewLeaveService(db, providerRepo, leaveRepo, notifier)
	leaves.now = nowFn
	recurring := NewRecurringService(db, parentRepo, providerRepo, leaveRepo, bookingRepo, recurringRepo, slots, bookings, notifier)
	recurring.now = nowFn

	return &testEnv{
		db:        db,
		slots:     slots,
		bookings:  bookings,
		leaves:    leaves,
		recurring: recurring,
		notifier:  notifier,
	}
}

func seedProvider(t *testing.T, db *gorm.DB, timezone string) *model.Provider {
	t.Helper()
	raw, err := json.Marshal(testSlotTimes)
	if err != nil {
		t.Fatalf("marshal slot times: %v", err)
	}
	p := &model.Provider{
		ID:                  uuid.New(),
		DisplayName:         "dr. test",
		Timezone:            timezone,
		SelectedSlots:       datatypes.JSON(raw),
		SlotDurationMinutes: 60,
		BaseFee:             2500,
		IsActive:            true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return p
}

func seedParent(t *testing.T, db *gorm.DB, customFee *int64) *model.Parent {
	t.Helper()
	p := &model.Parent{
		ID:          uuid.New(),
		DisplayName: "parent",
		CustomFee:   customFee,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	return p
}

func seedChild(t *testing.T, db *gorm.DB, parentID uuid.UUID) *model.Child {
	t.Helper()
	c := &model.Child{
		ID:          uuid.New(),
		ParentID:    parentID,
		DisplayName: "child",
		BirthYear:   2018,
	}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("seed child: %v", err)
	}
	return c
}

func mustDate(t *testing.T, s string) schedule.LocalDate {
	t.Helper()
	d, err := schedule.ParseLocalDate(s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return d
}

// slotAt finds the provider slot at the given local time on the date.
func slotAt(t *testing.T, slots []model.TimeSlot, date schedule.LocalDate, hhmm string, loc *time.Location) *model.TimeSlot {
	t.Helper()
	st, err := schedule.ParseSlotTime(hhmm)
	if err != nil {
		t.Fatalf("parse slot time: %v", err)
	}
	target := date.At(st, loc).UTC()
	for i := range slots {
		if slots[i].StartsAt.UTC().Equal(target) {
			return &slots[i]
		}
	}
	t.Fatalf("no slot at %s %s", date, hhmm)
	return nil
}
