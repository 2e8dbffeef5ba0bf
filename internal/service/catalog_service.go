package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidRecord запись не прошла проверку обязательных полей
var ErrInvalidRecord = errors.New("invalid record")

type ClassroomStore interface {
	Create(ctx context.Context, c *model.Classroom) error
	ListAll(ctx context.Context) ([]*model.Classroom, error)
}

type ProfessorStore interface {
	Create(ctx context.Context, p *model.Professor) error
	ListAll(ctx context.Context) ([]*model.Professor, error)
}

type ScheduleStore interface {
	Create(ctx context.Context, s *model.ClassSchedule) error
	Update(ctx context.Context, s *model.ClassSchedule) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*model.ClassSchedule, error)
}

// CatalogService создание записей с проверкой обязательных полей.
// Полноценный CRUD живёт во внешнем интерфейсе; здесь только то, что нужно для наполнения.
type CatalogService struct {
	classrooms ClassroomStore
	professors ProfessorStore
	schedules  ScheduleStore
	validate   *validator.Validate
	logger     *zap.Logger
}

func NewCatalogService(classrooms ClassroomStore, professors ProfessorStore, schedules ScheduleStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		classrooms: classrooms,
		professors: professors,
		schedules:  schedules,
		validate:   NewValidator(),
		logger:     logger,
	}
}

// NewValidator validator с правилами weekday и timeofday
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseWeekday(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != len(model.TimeOfDayLayout) {
			return false
		}
		_, err := model.ParseTimeOfDay(s)
		return err == nil
	})
	return v
}

func (s *CatalogService) check(record any) error {
	if err := s.validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// CreateClassroom создаёт аудиторию
func (s *CatalogService) CreateClassroom(ctx context.Context, c *model.Classroom) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := s.check(c); err != nil {
		return err
	}
	if err := s.classrooms.Create(ctx, c); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}

	s.logger.Info("Classroom created", zap.String("classroom_id", c.ID), zap.String("name", c.Name))
	return nil
}

// CreateProfessor создаёт преподавателя
func (s *CatalogService) CreateProfessor(ctx context.Context, p *model.Professor) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if err := s.check(p); err != nil {
		return err
	}
	if err := s.professors.Create(ctx, p); err != nil {
		return fmt.Errorf("create professor: %w", err)
	}

	s.logger.Info("Professor created", zap.String("professor_id", p.ID), zap.String("email", p.Email))
	return nil
}

// CreateSchedule создаёт занятие. Порядок start < end не проверяется: планировщик его не требует.
func (s *CatalogService) CreateSchedule(ctx context.Context, sc *model.ClassSchedule) error {
	if sc.ID == "" {
		sc.ID = uuid.NewString()
	}
	if err := s.check(sc); err != nil {
		return err
	}
	if err := s.schedules.Create(ctx, sc); err != nil {
		return fmt.Errorf("create class schedule: %w", err)
	}

	s.logger.Info("Class schedule created",
		zap.String("schedule_id", sc.ID),
		zap.String("day", sc.Day),
		zap.String("start_time", sc.StartTime),
		zap.String("subject", sc.Subject))
	return nil
}

// UpdateSchedule обновляет занятие; изменения попадут в планировщик со следующего тика
func (s *CatalogService) UpdateSchedule(ctx context.Context, sc *model.ClassSchedule) error {
	if err := s.check(sc); err != nil {
		return err
	}
	if err := s.schedules.Update(ctx, sc); err != nil {
		return fmt.Errorf("update class schedule: %w", err)
	}
	return nil
}

// DeleteSchedule удаляет занятие
func (s *CatalogService) DeleteSchedule(ctx context.Context, id string) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete class schedule: %w", err)
	}
	return nil
}

// ClassroomStatus занятость аудитории в момент времени
type ClassroomStatus struct {
	Classroom *model.Classroom
	Current   *model.ClassSchedule
	Professor *model.Professor
}

func (c ClassroomStatus) IsOccupied() bool {
	return c.Current != nil
}

// Occupancy показывает, какие аудитории заняты в момент now
func (s *CatalogService) Occupancy(ctx context.Context, now time.Time) ([]ClassroomStatus, error) {
	classrooms, err := s.classrooms.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	schedules, err := s.schedules.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}
	professors, err := s.professors.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}

	snap := NewSnapshot(schedules, professors, classrooms)
	statuses := make([]ClassroomStatus, 0, len(classrooms))
	for _, room := range classrooms {
		status := ClassroomStatus{Classroom: room}
		if current := CurrentClass(now, snap.Schedules, room.ID); current != nil {
			status.Current = current
			status.Professor = snap.Professors[current.ProfessorID]
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}
