package flow

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/tammmikel/task-botv2/internal/models"
)

var (
	ErrBadDateFormat = errors.New("unrecognized date format")
	ErrPastDate      = errors.New("date is in the past")
)

var relativeDaysRe = regexp.MustCompile(`^через\s+(\d{1,3})\s+(день|дня|дней)$`)

// ParseDeadline разбирает введенную вручную дату дедлайна. Поддерживаются
// форматы ДД.ММ.ГГГГ, ДД.ММ (текущий год) и "через N дней". Результат
// нормализуется к концу дня; прошедшие даты отклоняются.
func ParseDeadline(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return time.Time{}, ErrBadDateFormat
	}

	if m := relativeDaysRe.FindStringSubmatch(input); m != nil {
		days, err := strconv.Atoi(m[1])
		if err != nil || days < 0 {
			return time.Time{}, ErrBadDateFormat
		}
		return EndOfDay(now.AddDate(0, 0, days)), nil
	}

	var t time.Time
	var err error
	switch strings.Count(input, ".") {
	case 2:
		t, err = time.ParseInLocation("02.01.2006", input, now.Location())
	case 1:
		t, err = time.ParseInLocation("02.01", input, now.Location())
		if err == nil {
			t = time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location())
		}
	default:
		return time.Time{}, ErrBadDateFormat
	}
	if err != nil {
		return time.Time{}, ErrBadDateFormat
	}

	deadline := EndOfDay(t)
	if deadline.Before(now) {
		return time.Time{}, ErrPastDate
	}

	return deadline, nil
}

// EndOfDay нормализует дедлайн к 23:59:59 выбранного дня.
func EndOfDay(t time.Time) time.Time {
	return time.Date(
		t.Year(), t.Month(), t.Day(),
		models.DeadlineHour, models.DeadlineMinute, models.DeadlineSecond, 0,
		t.Location(),
	)
}

// Быстрые варианты дедлайна с клавиатуры. Они не проходят проверку на
// прошедшую дату: сегодняшний день допустим всегда.
func DeadlineToday(now time.Time) time.Time    { return EndOfDay(now) }
func DeadlineTomorrow(now time.Time) time.Time { return EndOfDay(now.AddDate(0, 0, 1)) }
func DeadlineIn3Days(now time.Time) time.Time  { return EndOfDay(now.AddDate(0, 0, 3)) }
