package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/smartclass/internal/service"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const occurrencePrefix = "smartclass:occurrence:"

var _ service.OccurrenceGuard = (*RedisGuard)(nil)

// RedisGuard метки в Redis: переживают перезапуск и общие для нескольких реплик
type RedisGuard struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewRedisClient создаёт подключение и проверяет его через Ping
func NewRedisClient(ctx context.Context, addr, password string, db int) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return rdb, nil
}

func NewRedisGuard(rdb *goredis.Client, logger *zap.Logger) *RedisGuard {
	return &RedisGuard{rdb: rdb, logger: logger}
}

// Claim ставит метку через SET NX с TTL
func (g *RedisGuard) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.rdb.SetNX(ctx, occurrencePrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim occurrence %s: %w", key, err)
	}
	return ok, nil
}

func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.rdb.Del(ctx, occurrencePrefix+key).Err(); err != nil {
		return fmt.Errorf("release occurrence %s: %w", key, err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (g *RedisGuard) Close() error {
	g.logger.Debug("Closing redis occurrence guard")
	return g.rdb.Close()
}
