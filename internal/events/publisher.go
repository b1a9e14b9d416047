// Package events fans order lifecycle events out to RabbitMQ for the
// external fulfillment process. The order engine never talks to it; the
// HTTP layer publishes after a successful commit, and a lost event is a
// delivery gap, not a correctness problem.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anbari/storefront/internal/models"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
)

const (
	RoutingKeyOrderCreated   = "order.created"
	RoutingKeyOrderCancelled = "order.cancelled"
)

// OrderEvent is the wire payload for order.created and order.cancelled.
type OrderEvent struct {
	EventID     string          `json:"event_id"`
	OrderID     int64           `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	UserID      int64           `json:"user_id"`
	Status      string          `json:"status"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

// Publisher sends order events to a topic exchange. A nil *Publisher is
// valid and drops everything, so callers need no enabled check.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}

// PublishOrderCreated announces a freshly committed order. The total is
// the stored amount; it is never recomputed here.
func (p *Publisher) PublishOrderCreated(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, RoutingKeyOrderCreated, order)
}

// PublishOrderCancelled announces a cancellation after stock has been
// restored.
func (p *Publisher) PublishOrderCancelled(ctx context.Context, order *models.Order) error {
	return p.publish(ctx, RoutingKeyOrderCancelled, order)
}

func (p *Publisher) publish(ctx context.Context, routingKey string, order *models.Order) error {
	if p == nil {
		return nil
	}

	event := OrderEvent{
		EventID:     uuid.NewString(),
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Status:      order.Status.String(),
		TotalAmount: order.TotalAmount,
		OccurredAt:  time.Now().UTC(),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			MessageId:   event.EventID,
			Body:        body,
		},
	)
}
