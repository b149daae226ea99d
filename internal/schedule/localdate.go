package schedule

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidSlotTime = errors.New("invalid slot time, want HH:MM")
	ErrInvalidDate     = errors.New("invalid date, want YYYY-MM-DD")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// SlotTime — локальное время начала сессии без даты и таймзоны ("09:00").
type SlotTime struct {
	Hour   int
	Minute int
}

// ParseSlotTime разбирает строку "HH:MM" (строго две цифры в каждой части).
func ParseSlotTime(s string) (SlotTime, error) {
	// time.Parse принимает и однозначный час ("9:00"), формат требует две цифры.
	if len(s) != 5 {
		return SlotTime{}, fmt.Errorf("%w: %q", ErrInvalidSlotTime, s)
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return SlotTime{}, fmt.Errorf("%w: %q", ErrInvalidSlotTime, s)
	}
	return SlotTime{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t SlotTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// LocalDate — календарная дата без времени и таймзоны.
// Вместе с IANA-таймзоной провайдера однозначно задаёт сутки;
// все преобразования "дата+время -> инстант" идут через At.
type LocalDate struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseLocalDate разбирает строку "YYYY-MM-DD".
func ParseLocalDate(s string) (LocalDate, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t, time.UTC), nil
}

// DateOf возвращает календарную дату инстанта t в таймзоне loc.
func DateOf(t time.Time, loc *time.Location) LocalDate {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return LocalDate{Year: y, Month: m, Day: d}
}

// At — единственная точка преобразования (дата, локальное время, зона)
// в абсолютный инстант. time.Date в загруженной Location корректно
// обрабатывает переходы на летнее/зимнее время.
func (d LocalDate) At(t SlotTime, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, t.Hour, t.Minute, 0, 0, loc)
}

// StartOfDay — полночь этой даты в зоне loc.
func (d LocalDate) StartOfDay(loc *time.Location) time.Time {
	return d.At(SlotTime{}, loc)
}

func (d LocalDate) AddDays(n int) LocalDate {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return DateOf(t, time.UTC)
}

func (d LocalDate) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

// IsWeekend — суббота или воскресенье.
func (d LocalDate) IsWeekend() bool {
	w := d.Weekday()
	return w == time.Saturday || w == time.Sunday
}

func (d LocalDate) Before(other LocalDate) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d LocalDate) After(other LocalDate) bool {
	return other.Before(d)
}

func (d LocalDate) Equal(other LocalDate) bool {
	return d == other
}

// SameMonth — один календарный месяц (для месячных квот).
func (d LocalDate) SameMonth(other LocalDate) bool {
	return d.Year == other.Year && d.Month == other.Month
}

func (d LocalDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// LoadLocation загружает IANA-таймзону, завернув ошибку в доменную.
func LoadLocation(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}
	return loc, nil
}
