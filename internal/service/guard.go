package service

import (
	"context"
	"time"
)

// OccurrenceGuard помечает занятие как уже обработанное.
// Claim возвращает false, если метка уже стоит и ещё не истекла.
type OccurrenceGuard interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}
