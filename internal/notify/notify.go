// Package notify publishes order status events to an external broker so
// kitchen displays and delivery dashboards can react without polling.
package notify

import (
	"context"

	"dapurpos/backend/internal/domain"
)

type Publisher interface {
	PublishOrderStatus(ctx context.Context, event domain.OrderStatusEvent) error
	Close() error
}

// Noop is used when no broker is configured. Status changes are still
// recorded in the store; they just aren't fanned out.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) PublishOrderStatus(context.Context, domain.OrderStatusEvent) error { return nil }

func (*Noop) Close() error { return nil }
