package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"dapurpos/backend/internal/domain"
)

const statusExchange = "order.status"

// AMQP publishes status events to a fanout exchange. Each consumer binds
// its own queue, so a kitchen display and a delivery dashboard both see
// every event.
type AMQP struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQP(url string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := channel.ExchangeDeclare(statusExchange, "fanout", true, false, false, false, nil); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQP{conn: conn, channel: channel}, nil
}

func (a *AMQP) PublishOrderStatus(ctx context.Context, event domain.OrderStatusEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return a.channel.PublishWithContext(ctx, statusExchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.Timestamp,
		Body:         body,
	})
}

func (a *AMQP) Close() error {
	if a.channel != nil {
		a.channel.Close()
	}
	return a.conn.Close()
}
