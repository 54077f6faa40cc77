package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/internal/domain"
)

type redisRepo struct {
	client *redis.Client
}

// NewRedis returns a Repository whose codes expire through Redis key TTLs,
// so they survive restarts and are shared across instances.
func NewRedis(client *redis.Client) Repository {
	return &redisRepo{client: client}
}

func (r *redisRepo) Save(ctx context.Context, email, code string, ttl time.Duration) error {
	if err := r.client.Set(ctx, otpKey(email), code, ttl).Err(); err != nil {
		return fmt.Errorf("redis set otp failed: %w", err)
	}
	return nil
}

func (r *redisRepo) Get(ctx context.Context, email string) (string, error) {
	code, err := r.client.Get(ctx, otpKey(email)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get otp failed: %w", err)
	}
	return code, nil
}

func (r *redisRepo) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, otpKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete otp failed: %w", err)
	}
	return nil
}

func otpKey(email string) string {
	return fmt.Sprintf("otp:%s", normalize(email))
}
