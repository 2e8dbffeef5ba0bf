package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// ClassScheduleRepository управляет расписанием занятий в базе данных
type ClassScheduleRepository struct {
	*base.Repository
}

func NewClassScheduleRepository(db base.Querier) *ClassScheduleRepository {
	return &ClassScheduleRepository{Repository: base.NewRepository(db)}
}

const classScheduleColumns = `id, day, start_time, end_time, classroom_id, professor_id, subject, created_at`

func scanClassSchedule(row pgx.Row) (*model.ClassSchedule, error) {
	s := &model.ClassSchedule{}
	err := row.Scan(
		&s.ID,
		&s.Day,
		&s.StartTime,
		&s.EndTime,
		&s.ClassroomID,
		&s.ProfessorID,
		&s.Subject,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create создаёт занятие в расписании
func (r *ClassScheduleRepository) Create(ctx context.Context, s *model.ClassSchedule) error {
	query := `
		INSERT INTO class_schedules (id, day, start_time, end_time, classroom_id, professor_id, subject)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.QueryRow(
		ctx,
		query,
		s.ID,
		s.Day,
		s.StartTime,
		s.EndTime,
		s.ClassroomID,
		s.ProfessorID,
		s.Subject,
	).Scan(&s.CreatedAt)

	if err != nil {
		return fmt.Errorf("create class schedule: %w", err)
	}
	return nil
}

// GetByID получает занятие по ID
func (r *ClassScheduleRepository) GetByID(ctx context.Context, id string) (*model.ClassSchedule, error) {
	query := `SELECT ` + classScheduleColumns + ` FROM class_schedules WHERE id = $1`

	s, err := scanClassSchedule(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class schedule by id: %w", err)
	}
	return s, nil
}

// ListAll возвращает всё расписание; объёмы небольшие, фильтрация делается в памяти
func (r *ClassScheduleRepository) ListAll(ctx context.Context) ([]*model.ClassSchedule, error) {
	query := `SELECT ` + classScheduleColumns + ` FROM class_schedules ORDER BY created_at, id`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}

	schedules, err := base.CollectAll(rows, scanClassSchedule)
	if err != nil {
		return nil, fmt.Errorf("scan class schedule: %w", err)
	}
	return schedules, nil
}

// Update обновляет занятие
func (r *ClassScheduleRepository) Update(ctx context.Context, s *model.ClassSchedule) error {
	query := `
		UPDATE class_schedules
		SET day = $2, start_time = $3, end_time = $4, classroom_id = $5, professor_id = $6, subject = $7
		WHERE id = $1
	`

	n, err := r.ExecAffected(ctx, query, s.ID, s.Day, s.StartTime, s.EndTime, s.ClassroomID, s.ProfessorID, s.Subject)
	if err != nil {
		return fmt.Errorf("update class schedule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update class schedule %s: %w", s.ID, pgx.ErrNoRows)
	}
	return nil
}

// Delete удаляет занятие
func (r *ClassScheduleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM class_schedules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class schedule: %w", err)
	}
	return nil
}
