package service

import (
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
)

const (
	minutesPerDay  = 24 * 60
	minutesPerWeek = 7 * minutesPerDay
)

// MatchMode способ сравнения времени начала занятия с окном
type MatchMode int

const (
	// MatchModeWallClock строковое сравнение "HH:MM" в пределах текущего дня недели.
	// Если now+lookahead переходит через полночь, targetTOD становится меньше currentTOD
	// и занятия около полуночи не находятся. Это известное ограничение, сохранённое
	// для совместимости.
	MatchModeWallClock MatchMode = iota
	// MatchModeMinuteOfWeek сравнение по минуте недели с переходом через полночь
	// и через границу Saturday -> Sunday.
	MatchModeMinuteOfWeek
)

// Match выбирает занятия текущего дня недели, начинающиеся в [now, now+lookahead].
// Чистая функция: порядок входа сохраняется.
func Match(now time.Time, lookahead time.Duration, schedules []*model.ClassSchedule) []*model.ClassSchedule {
	currentDay := now.Weekday().String()
	currentTOD := model.TimeOfDay(now)
	targetTOD := model.TimeOfDay(now.Add(lookahead))

	var matched []*model.ClassSchedule
	for _, s := range schedules {
		if s.Day == currentDay && s.StartTime >= currentTOD && s.StartTime <= targetTOD {
			matched = append(matched, s)
		}
	}
	return matched
}

// Occurrence конкретное занятие, попавшее в окно
type Occurrence struct {
	Schedule *model.ClassSchedule
	StartsAt time.Time
	EndsAt   time.Time
}

// Key идентификатор занятия для дедупликации
func (o Occurrence) Key() string {
	return o.Schedule.OccurrenceKey(o.StartsAt)
}

// Matcher находит занятия в окне в выбранном режиме
type Matcher struct {
	Mode      MatchMode
	Lookahead time.Duration
}

// Upcoming возвращает занятия окна вместе с абсолютным временем начала и конца
func (m Matcher) Upcoming(now time.Time, schedules []*model.ClassSchedule) []Occurrence {
	if m.Mode == MatchModeMinuteOfWeek {
		return matchMinuteOfWeek(now, m.Lookahead, schedules)
	}

	day := startOfDay(now)
	matched := Match(now, m.Lookahead, schedules)
	occurrences := make([]Occurrence, 0, len(matched))
	for _, s := range matched {
		startMin, err := model.ParseTimeOfDay(s.StartTime)
		if err != nil {
			// строка прошла сравнение, но не разбирается; считаем, что занятие начинается сейчас
			startMin = now.Hour()*60 + now.Minute()
		}
		occurrences = append(occurrences, newOccurrence(s, day, startMin))
	}
	return occurrences
}

func matchMinuteOfWeek(now time.Time, lookahead time.Duration, schedules []*model.ClassSchedule) []Occurrence {
	nowMin := minuteOfWeek(now)

	// окно считается по усечённым до минуты границам, как и в строковом режиме
	span := floorMod(minuteOfWeek(now.Add(lookahead))-nowMin, minutesPerWeek)
	if lookahead >= 7*24*time.Hour {
		span = minutesPerWeek - 1
	}

	today := startOfDay(now)
	var occurrences []Occurrence
	for _, s := range schedules {
		weekday, ok := model.ParseWeekday(s.Day)
		if !ok {
			continue
		}
		startMin, err := model.ParseTimeOfDay(s.StartTime)
		if err != nil {
			continue
		}

		delta := floorMod(int(weekday)*minutesPerDay+startMin-nowMin, minutesPerWeek)
		if delta > span {
			continue
		}

		dayOffset := (now.Hour()*60 + now.Minute() + delta) / minutesPerDay
		occurrences = append(occurrences, newOccurrence(s, today.AddDate(0, 0, dayOffset), startMin))
	}
	return occurrences
}

func newOccurrence(s *model.ClassSchedule, day time.Time, startMin int) Occurrence {
	startsAt := atMinute(day, startMin)
	endsAt := startsAt
	if endMin, err := model.ParseTimeOfDay(s.EndTime); err == nil && endMin > startMin {
		endsAt = atMinute(day, endMin)
	}
	return Occurrence{Schedule: s, StartsAt: startsAt, EndsAt: endsAt}
}

func atMinute(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}

// CurrentClass возвращает занятие, идущее сейчас в аудитории (start <= now < end)
func CurrentClass(now time.Time, schedules []*model.ClassSchedule, classroomID string) *model.ClassSchedule {
	currentDay := now.Weekday().String()
	currentTOD := model.TimeOfDay(now)

	for _, s := range schedules {
		if s.ClassroomID == classroomID && s.Day == currentDay &&
			s.StartTime <= currentTOD && s.EndTime > currentTOD {
			return s
		}
	}
	return nil
}

func minuteOfWeek(t time.Time) int {
	return int(t.Weekday())*minutesPerDay + t.Hour()*60 + t.Minute()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func floorMod(a, n int) int {
	return ((a % n) + n) % n
}
