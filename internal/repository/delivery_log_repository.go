package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/Freeeeeet/smartclass/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// DeliveryLogRepository журнал попыток отправки QR-кодов
type DeliveryLogRepository struct {
	*base.Repository
}

func NewDeliveryLogRepository(db base.Querier) *DeliveryLogRepository {
	return &DeliveryLogRepository{Repository: base.NewRepository(db)}
}

// Append добавляет запись в журнал
func (r *DeliveryLogRepository) Append(ctx context.Context, a *model.DeliveryAttempt) error {
	query := `
		INSERT INTO delivery_log (schedule_id, credential_id, recipient, outcome, error, occurrence_key, attempted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.QueryRow(
		ctx,
		query,
		a.ScheduleID,
		a.CredentialID,
		a.Recipient,
		string(a.Outcome),
		a.Error,
		a.OccurrenceKey,
		a.AttemptedAt,
	).Scan(&a.ID)

	if err != nil {
		return fmt.Errorf("append delivery attempt: %w", err)
	}
	return nil
}

// ListUndelivered возвращает коды, которые были выпущены, но не доставлены
func (r *DeliveryLogRepository) ListUndelivered(ctx context.Context, limit int) ([]*model.DeliveryAttempt, error) {
	query := `
		SELECT id, schedule_id, credential_id, recipient, outcome, error, occurrence_key, attempted_at
		FROM delivery_log
		WHERE outcome = $1
		ORDER BY attempted_at DESC
		LIMIT $2
	`

	rows, err := r.Query(ctx, query, string(model.OutcomeDeliveryFailed), limit)
	if err != nil {
		return nil, fmt.Errorf("list undelivered attempts: %w", err)
	}

	attempts, err := base.CollectAll(rows, func(row pgx.Row) (*model.DeliveryAttempt, error) {
		a := &model.DeliveryAttempt{}
		var outcome string
		err := row.Scan(&a.ID, &a.ScheduleID, &a.CredentialID, &a.Recipient, &outcome, &a.Error, &a.OccurrenceKey, &a.AttemptedAt)
		a.Outcome = model.DeliveryOutcome(outcome)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan delivery attempt: %w", err)
	}
	return attempts, nil
}
