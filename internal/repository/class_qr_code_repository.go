package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// ClassQRCodeRepository хранит выпущенные QR-коды
type ClassQRCodeRepository struct {
	*base.Repository
}

func NewClassQRCodeRepository(db base.Querier) *ClassQRCodeRepository {
	return &ClassQRCodeRepository{Repository: base.NewRepository(db)}
}

const qrCodeColumns = `id, schedule_id, qr_code_data, created_at, expires_at, used`

func scanQRCode(row pgx.Row) (*model.ClassQRCode, error) {
	c := &model.ClassQRCode{}
	err := row.Scan(&c.ID, &c.ScheduleID, &c.Payload, &c.CreatedAt, &c.ExpiresAt, &c.Used)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create сохраняет QR-код; created_at задаёт вызывающий, чтобы expires_at считался от него же
func (r *ClassQRCodeRepository) Create(ctx context.Context, code *model.ClassQRCode) error {
	query := `
		INSERT INTO class_qr_codes (id, schedule_id, qr_code_data, created_at, expires_at, used)
		VALUES ($1, $2, $3, $4, $5, false)
		RETURNING used
	`

	err := r.QueryRow(ctx, query, code.ID, code.ScheduleID, code.Payload, code.CreatedAt, code.ExpiresAt).
		Scan(&code.Used)
	if err != nil {
		return fmt.Errorf("create class qr code: %w", err)
	}
	return nil
}

// GetByPayload ищет код по содержимому QR
func (r *ClassQRCodeRepository) GetByPayload(ctx context.Context, payload string) (*model.ClassQRCode, error) {
	query := `SELECT ` + qrCodeColumns + ` FROM class_qr_codes WHERE qr_code_data = $1`

	c, err := scanQRCode(r.QueryRow(ctx, query, payload))
	if base.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get class qr code by payload: %w", err)
	}
	return c, nil
}

// ListBySchedule возвращает коды занятия, новые первыми
func (r *ClassQRCodeRepository) ListBySchedule(ctx context.Context, scheduleID string) ([]*model.ClassQRCode, error) {
	query := `
		SELECT ` + qrCodeColumns + `
		FROM class_qr_codes
		WHERE schedule_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.Query(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("list class qr codes by schedule: %w", err)
	}

	codes, err := base.CollectAll(rows, scanQRCode)
	if err != nil {
		return nil, fmt.Errorf("scan class qr code: %w", err)
	}
	return codes, nil
}
