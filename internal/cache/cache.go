// Package cache provides a read-through cache for daily summaries. The
// service works without it; the noop implementation is used when no Redis
// address is configured.
package cache

import (
	"context"
	"errors"
	"time"

	"dapurpos/backend/internal/domain"
)

// ErrMiss is returned when the cache has no entry for the requested date.
var ErrMiss = errors.New("cache miss")

type SummaryCache interface {
	GetSummary(ctx context.Context, date string) (*domain.DailySummary, error)
	SetSummary(ctx context.Context, summary domain.DailySummary, ttl time.Duration) error
	InvalidateSummary(ctx context.Context, date string) error
	Close() error
}

type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) GetSummary(context.Context, string) (*domain.DailySummary, error) {
	return nil, ErrMiss
}

func (*Noop) SetSummary(context.Context, domain.DailySummary, time.Duration) error { return nil }

func (*Noop) InvalidateSummary(context.Context, string) error { return nil }

func (*Noop) Close() error { return nil }
