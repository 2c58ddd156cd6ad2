package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/flowmind/flowmind/internal/domain"
)

// Топология flowmind: один обменник, одна очередь завершённых запусков.
const (
	Exchange          = "flowmind.events"
	QueueRunCompleted = "runs.completed"
	KeyRunCompleted   = "run.completed"
)

// MessageType — тип события.
type MessageType string

// MessageTypeRunCompleted — запуск завершён (успешно или нет).
const MessageTypeRunCompleted MessageType = "run.completed"

// Message — конверт события.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип события.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunCompletedPayload — payload события о завершённом запуске.
type RunCompletedPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	Target     string    `json:"target"`
	Success    bool      `json:"success"`
	Steps      int       `json:"steps"`
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
}

// Publisher публикует события запусков.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт Publisher и объявляет топологию.
func NewPublisher(ctx context.Context, conn *Connection, logger *slog.Logger) (*Publisher, error) {
	if err := setupTopology(ctx, conn); err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, logger: logger}, nil
}

// PublishRunCompleted публикует событие о завершённом запуске.
func (p *Publisher) PublishRunCompleted(ctx context.Context, target string, result *domain.ExecutionResult) error {
	return p.publish(ctx, KeyRunCompleted, newRunCompleted(target, result))
}

// newRunCompleted строит конверт события run.completed.
func newRunCompleted(target string, result *domain.ExecutionResult) *Message {
	return &Message{
		ID:   uuid.New().String(),
		Type: MessageTypeRunCompleted,
		Payload: RunCompletedPayload{
			RunID:      result.RunID,
			Target:     target,
			Success:    result.Success,
			Steps:      len(result.StepResults),
			Error:      result.Error,
			DurationMS: result.Duration().Milliseconds(),
		},
		Timestamp: time.Now(),
	}
}

// publish сериализует и отправляет сообщение в обменник flowmind.
func (p *Publisher) publish(ctx context.Context, routingKey string, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			Exchange,
			routingKey,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", Exchange, routingKey, err)
		}

		p.logger.Debug("published event",
			"exchange", Exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)
		return nil
	})
}

// setupTopology объявляет обменник, очередь и привязку.
func setupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			Exchange, // name
			"direct", // type
			true,     // durable
			false,    // auto-deleted
			false,    // internal
			false,    // no-wait
			nil,      // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", Exchange, err)
		}

		_, err = ch.QueueDeclare(
			QueueRunCompleted, // name
			true,              // durable
			false,             // delete when unused
			false,             // exclusive
			false,             // no-wait
			nil,               // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueRunCompleted, err)
		}

		err = ch.QueueBind(
			QueueRunCompleted, // queue name
			KeyRunCompleted,   // routing key
			Exchange,          // exchange
			false,             // no-wait
			nil,               // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", QueueRunCompleted, Exchange, err)
		}

		return nil
	})
}
