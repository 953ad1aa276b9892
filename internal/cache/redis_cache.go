package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dapurpos/backend/internal/domain"
)

type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr string) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func summaryKey(date string) string {
	return "pos:summary:" + date
}

func (r *Redis) GetSummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	raw, err := r.client.Get(ctx, summaryKey(date)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	var summary domain.DailySummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		// Stale or corrupt entry. Treat as a miss so the caller recomputes.
		r.client.Del(ctx, summaryKey(date))
		return nil, ErrMiss
	}
	return &summary, nil
}

func (r *Redis) SetSummary(ctx context.Context, summary domain.DailySummary, ttl time.Duration) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, summaryKey(summary.Date), raw, ttl).Err()
}

func (r *Redis) InvalidateSummary(ctx context.Context, date string) error {
	return r.client.Del(ctx, summaryKey(date)).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
