package schedule

import (
	"errors"
	"time"
)

type Frequency int

const (
	FreqDaily Frequency = iota
	FreqWeekly
)

// Rule — правило повторения для регулярного плана бронирований.
// Разворачивается в список календарных дат; фильтрация по выходным
// и отпускам провайдера выполняется вызывающей стороной.
type Rule struct {
	Freq     Frequency
	Interval int            // шаг: каждые Interval дней/недель (>=1)
	Weekdays []time.Weekday // для FreqWeekly; пустой список — все дни
	Start    LocalDate      // первая дата, включительно
	End      LocalDate      // последняя дата, включительно
}

// ExpandRule разворачивает правило в упорядоченный список дат [Start, End].
func ExpandRule(rule Rule) ([]LocalDate, error) {
	if rule.End.Before(rule.Start) {
		return nil, errors.New("recurring rule: end date before start date")
	}
	if rule.Interval <= 0 {
		rule.Interval = 1
	}

	var result []LocalDate

	switch rule.Freq {
	case FreqDaily:
		for cur := rule.Start; !cur.After(rule.End); cur = cur.AddDays(rule.Interval) {
			result = append(result, cur)
		}
	case FreqWeekly:
		// Идём по дням, включая дату, если её день недели входит в набор.
		// Interval-недельный шаг отсчитывается от недели, содержащей Start.
		for cur, day := rule.Start, 0; !cur.After(rule.End); cur, day = cur.AddDays(1), day+1 {
			if rule.Interval > 1 && (day/7)%rule.Interval != 0 {
				continue
			}
			if len(rule.Weekdays) > 0 && !containsWeekday(rule.Weekdays, cur.Weekday()) {
				continue
			}
			result = append(result, cur)
		}
	default:
		return nil, errors.New("recurring rule: unknown frequency")
	}

	return result, nil
}

func containsWeekday(list []time.Weekday, w time.Weekday) bool {
	for _, d := range list {
		if d == w {
			return true
		}
	}
	return false
}
