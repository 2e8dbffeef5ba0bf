package model

import (
	"fmt"
	"time"
)

// TimeOfDayLayout формат времени занятия: "HH:MM" без часового пояса
const TimeOfDayLayout = "15:04"

// Weekdays названия дней недели в порядке time.Weekday (0 = Sunday)
var Weekdays = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// ClassSchedule регулярное еженедельное занятие.
// StartTime/EndTime хранятся строками "HH:MM" и сравниваются лексикографически.
type ClassSchedule struct {
	ID          string    `json:"id" validate:"required"`
	Day         string    `json:"day" validate:"required,weekday"`
	StartTime   string    `json:"start_time" validate:"required,timeofday"`
	EndTime     string    `json:"end_time" validate:"required,timeofday"`
	ClassroomID string    `json:"classroom_id" validate:"required"`
	ProfessorID string    `json:"professor_id" validate:"required"`
	Subject     string    `json:"subject" validate:"required"`
	CreatedAt   time.Time `json:"created_at"`
}

// TimeOfDay возвращает "HH:MM" для момента t; секунды отбрасываются
func TimeOfDay(t time.Time) string {
	return t.Format(TimeOfDayLayout)
}

// ParseTimeOfDay разбирает "HH:MM" в минуты от начала суток
func ParseTimeOfDay(s string) (int, error) {
	t, err := time.Parse(TimeOfDayLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseWeekday возвращает time.Weekday по названию дня
func ParseWeekday(day string) (time.Weekday, bool) {
	for i, name := range Weekdays {
		if name == day {
			return time.Weekday(i), true
		}
	}
	return 0, false
}

// OccurrenceKey идентификатор конкретного занятия на конкретную дату
func (s *ClassSchedule) OccurrenceKey(date time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%s", s.ID, s.Day, s.StartTime, date.Format("2006-01-02"))
}
