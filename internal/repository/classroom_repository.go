package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// ClassroomRepository управляет аудиториями в базе данных
type ClassroomRepository struct {
	*base.Repository
}

func NewClassroomRepository(db base.Querier) *ClassroomRepository {
	return &ClassroomRepository{Repository: base.NewRepository(db)}
}

const classroomColumns = `id, name, capacity, created_at`

func scanClassroom(row pgx.Row) (*model.Classroom, error) {
	c := &model.Classroom{}
	if err := row.Scan(&c.ID, &c.Name, &c.Capacity, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// Create создаёт аудиторию
func (r *ClassroomRepository) Create(ctx context.Context, c *model.Classroom) error {
	query := `
		INSERT INTO classrooms (id, name, capacity)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	if err := r.QueryRow(ctx, query, c.ID, c.Name, c.Capacity).Scan(&c.CreatedAt); err != nil {
		return fmt.Errorf("create classroom: %w", err)
	}
	return nil
}

// GetByID получает аудиторию по ID
func (r *ClassroomRepository) GetByID(ctx context.Context, id string) (*model.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = $1`

	c, err := scanClassroom(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get classroom by id: %w", err)
	}
	return c, nil
}

// ListAll возвращает все аудитории
func (r *ClassroomRepository) ListAll(ctx context.Context) ([]*model.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms ORDER BY name`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}

	classrooms, err := base.CollectAll(rows, scanClassroom)
	if err != nil {
		return nil, fmt.Errorf("scan classroom: %w", err)
	}
	return classrooms, nil
}

// Update обновляет аудиторию
func (r *ClassroomRepository) Update(ctx context.Context, c *model.Classroom) error {
	query := `UPDATE classrooms SET name = $2, capacity = $3 WHERE id = $1`

	n, err := r.ExecAffected(ctx, query, c.ID, c.Name, c.Capacity)
	if err != nil {
		return fmt.Errorf("update classroom: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update classroom %s: %w", c.ID, pgx.ErrNoRows)
	}
	return nil
}

// Delete удаляет аудиторию
func (r *ClassroomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM classrooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete classroom: %w", err)
	}
	return nil
}
