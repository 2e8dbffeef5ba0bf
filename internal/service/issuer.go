package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Freeeeeet/smartclass/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCredentialTTL срок действия QR-кода по умолчанию
const DefaultCredentialTTL = time.Hour

// CredentialIssuer выпускает одноразовые QR-коды
type CredentialIssuer interface {
	Issue(ctx context.Context, scheduleID string) (*model.ClassQRCode, error)
}

// CredentialStore сохраняет выпущенный код
type CredentialStore interface {
	Create(ctx context.Context, code *model.ClassQRCode) error
}

// QRCodeIssuer выпускает коды вида CLASS:<scheduleID>:<unix-nanos>.
// Повторный вызов для того же занятия даёт новый код: дедупликацией занимается планировщик.
type QRCodeIssuer struct {
	store  CredentialStore
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu       sync.Mutex
	lastNano int64
}

func NewQRCodeIssuer(store CredentialStore, ttl time.Duration, logger *zap.Logger) *QRCodeIssuer {
	if ttl <= 0 {
		ttl = DefaultCredentialTTL
	}
	return &QRCodeIssuer{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Issue создаёт и сохраняет код. Если сохранить не удалось, код не возвращается.
func (i *QRCodeIssuer) Issue(ctx context.Context, scheduleID string) (*model.ClassQRCode, error) {
	if scheduleID == "" {
		return nil, fmt.Errorf("%w: empty schedule id", ErrIssuanceFailed)
	}

	issuedAt := i.now()
	code := &model.ClassQRCode{
		ID:         uuid.NewString(),
		ScheduleID: scheduleID,
		Payload:    fmt.Sprintf("CLASS:%s:%d", scheduleID, i.uniqueNano(issuedAt)),
		CreatedAt:  issuedAt,
		ExpiresAt:  issuedAt.Add(i.ttl),
	}

	if err := i.store.Create(ctx, code); err != nil {
		i.logger.Error("Failed to store QR code",
			zap.String("schedule_id", scheduleID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrIssuanceFailed, err)
	}

	i.logger.Info("QR code stored",
		zap.String("qr_code_id", code.ID),
		zap.String("schedule_id", scheduleID),
		zap.Time("expires_at", code.ExpiresAt))

	return code, nil
}

// uniqueNano возвращает строго возрастающее значение, даже если часы вернули то же время
func (i *QRCodeIssuer) uniqueNano(t time.Time) int64 {
	i.mu.Lock()
	defer i.mu.Unlock()

	n := t.UnixNano()
	if n <= i.lastNano {
		n = i.lastNano + 1
	}
	i.lastNano = n
	return n
}
