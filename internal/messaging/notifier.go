package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Notifier publishes job lifecycle events. Implementations must be safe for
// concurrent use by the worker pool.
type Notifier interface {
	NotifyJobEvent(ctx context.Context, payload JobEventPayload) error
	Close() error
}

// RabbitMQNotifier publishes job events to a durable queue over a dedicated
// channel.
type RabbitMQNotifier struct {
	conn      *amqp091.Connection
	ch        *amqp091.Channel
	queueName string
	logger    *zap.Logger
}

var _ Notifier = (*RabbitMQNotifier)(nil)

// NewRabbitMQNotifier opens a channel on the given connection and declares
// the target queue.
func NewRabbitMQNotifier(conn *amqp091.Connection, queueName string, logger *zap.Logger) (*RabbitMQNotifier, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue %q: %w", queueName, err)
	}

	logger.Info("job event queue declared", zap.String("queue", queueName))

	return &RabbitMQNotifier{
		conn:      conn,
		ch:        ch,
		queueName: queueName,
		logger:    logger.Named("notifier"),
	}, nil
}

func (n *RabbitMQNotifier) NotifyJobEvent(ctx context.Context, payload JobEventPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	err = n.ch.PublishWithContext(ctx,
		"",          // default exchange
		n.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
			MessageId:   payload.JobID,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish job event: %w", err)
	}

	n.logger.Debug("job event published",
		zap.String("jobID", payload.JobID),
		zap.String("status", payload.Status))
	return nil
}

func (n *RabbitMQNotifier) Close() error {
	if n.ch != nil {
		return n.ch.Close()
	}
	return nil
}
