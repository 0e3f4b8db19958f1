package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/medibook/backend/internal/zlog"
)

// Publisher emits events to a topic exchange
type Publisher interface {
	Publish(ctx context.Context, key string, msg Envelope) error
	Close() error
}

type rmqPublisher struct {
	conn     *amqp091.Connection
	exchange string
}

// NewPublisher dials RabbitMQ and declares the durable topic exchange
func NewPublisher(url, exchange string) (Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open amqp channel: %w", err)
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &rmqPublisher{conn: conn, exchange: exchange}, nil
}

func (r *rmqPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	cid := ""
	if msg.Meta.CorrelationID != nil {
		cid = *msg.Meta.CorrelationID
	}

	return ch.PublishWithContext(ctx, r.exchange, key, false, false, amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     msg.Meta.ID,
		CorrelationId: cid,
		Timestamp:     time.Now(),
		Body:          body,
	})
}

func (r *rmqPublisher) Close() error {
	return r.conn.Close()
}

// FallbackPublisher drops events; used when no broker is configured
type FallbackPublisher struct{}

func NewFallback() Publisher {
	return &FallbackPublisher{}
}

func (p *FallbackPublisher) Publish(ctx context.Context, key string, msg Envelope) error {
	zlog.Debug("FallbackPublisher: skipped publish", zap.String("key", key))
	return nil
}

func (p *FallbackPublisher) Close() error {
	return nil
}
