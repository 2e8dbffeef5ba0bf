package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// ProfessorRepository управляет преподавателями в базе данных
type ProfessorRepository struct {
	*base.Repository
}

func NewProfessorRepository(db base.Querier) *ProfessorRepository {
	return &ProfessorRepository{Repository: base.NewRepository(db)}
}

const professorColumns = `id, name, email, department, hours_per_week, created_at`

func scanProfessor(row pgx.Row) (*model.Professor, error) {
	p := &model.Professor{}
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.Department, &p.HoursPerWeek, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create создаёт преподавателя
func (r *ProfessorRepository) Create(ctx context.Context, p *model.Professor) error {
	query := `
		INSERT INTO professors (id, name, email, department, hours_per_week)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`

	err := r.QueryRow(ctx, query, p.ID, p.Name, p.Email, p.Department, p.HoursPerWeek).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("create professor: %w", err)
	}
	return nil
}

// GetByID получает преподавателя по ID
func (r *ProfessorRepository) GetByID(ctx context.Context, id string) (*model.Professor, error) {
	query := `SELECT ` + professorColumns + ` FROM professors WHERE id = $1`

	p, err := scanProfessor(r.QueryRow(ctx, query, id))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get professor by id: %w", err)
	}
	return p, nil
}

// ListAll возвращает всех преподавателей
func (r *ProfessorRepository) ListAll(ctx context.Context) ([]*model.Professor, error) {
	query := `SELECT ` + professorColumns + ` FROM professors ORDER BY name`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list professors: %w", err)
	}

	professors, err := base.CollectAll(rows, scanProfessor)
	if err != nil {
		return nil, fmt.Errorf("scan professor: %w", err)
	}
	return professors, nil
}

// Update обновляет преподавателя
func (r *ProfessorRepository) Update(ctx context.Context, p *model.Professor) error {
	query := `
		UPDATE professors
		SET name = $2, email = $3, department = $4, hours_per_week = $5
		WHERE id = $1
	`

	n, err := r.ExecAffected(ctx, query, p.ID, p.Name, p.Email, p.Department, p.HoursPerWeek)
	if err != nil {
		return fmt.Errorf("update professor: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update professor %s: %w", p.ID, pgx.ErrNoRows)
	}
	return nil
}

// Delete удаляет преподавателя
func (r *ProfessorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.ExecAffected(ctx, `DELETE FROM professors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete professor: %w", err)
	}
	return nil
}
