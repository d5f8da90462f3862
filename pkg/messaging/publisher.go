package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"istas_backend/internal/config"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const RoutingEvaluationCompleted = "evaluation.completed"

// EvaluationCompleted is published once an evaluation is stored as complete.
type EvaluationCompleted struct {
	EvaluationID string    `json:"evaluationId"`
	TenantID     string    `json:"tenantId"`
	EmployeeID   uint      `json:"employeeId"`
	FormID       uint      `json:"formId"`
	TotalYes     int       `json:"totalYes"`
	TotalNo      int       `json:"totalNo"`
	PercentYes   float64   `json:"percentYes"`
	RiskLevel    string    `json:"riskLevel"`
	CompletedBy  uint      `json:"completedBy"`
	CompletedAt  time.Time `json:"completedAt"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// NoopPublisher drops every message. Used when the broker is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }
func (NoopPublisher) Close() error                               { return nil }

// confirmTimeout bounds the wait for a broker confirm. The wait is detached
// from the caller's context so an abandoned request cannot leave a confirm
// unread.
const confirmTimeout = 5 * time.Second

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// publishChannel is the part of *amqp.Channel the publisher needs.
type publishChannel interface {
	publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error)
	Close() error
}

type amqpChannel struct {
	*amqp.Channel
}

func (c amqpChannel) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) (confirmation, error) {
	dc, err := c.PublishWithDeferredConfirmWithContext(ctx, exchange, key, false, false, msg)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("channel is not in confirm mode")
	}
	return dc, nil
}

type RabbitPublisher struct {
	conn     io.Closer
	ch       publishChannel
	exchange string
	timeout  time.Duration
	log      *zap.Logger
}

// NewPublisher returns a RabbitMQ publisher when the broker is enabled and a
// NoopPublisher otherwise.
func NewPublisher(cfg config.BrokerConfig, log *zap.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // autoDelete
		false,        // internal
		false,        // noWait
		nil,          // args
	)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info("Successfully connected to rabbitMQ", zap.String("exchange", cfg.Exchange))
	return &RabbitPublisher{
		conn:     conn,
		ch:       amqpChannel{ch},
		exchange: cfg.Exchange,
		timeout:  confirmTimeout,
		log:      log,
	}, nil
}

// Publish sends payload as JSON and waits for the broker confirm of that
// delivery tag.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	confirm, err := p.ch.publish(ctx, p.exchange, routingKey, msg)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	if !acked {
		return fmt.Errorf("publish %s: broker nack", routingKey)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.log.Warn("Failed to close rabbitMQ channel", zap.Error(err))
	}
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
