package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// ParseSchedule парсит cron-выражение в расписание с учётом timezone.
// Пустой timezone означает UTC; невалидный — ошибка.
func ParseSchedule(cronExpr, timezone string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}

	return zonedSchedule{inner: sched, loc: loc}, nil
}

// zonedSchedule вычисляет следующий момент в заданном timezone.
// Результат возвращается в UTC.
type zonedSchedule struct {
	inner cron.Schedule
	loc   *time.Location
}

func (z zonedSchedule) Next(t time.Time) time.Time {
	return z.inner.Next(t.In(z.loc)).UTC()
}
