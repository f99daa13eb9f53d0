package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения. На topic exchange тип сообщения
// одновременно служит ключом маршрутизации.
type MessageType string

// Типы сообщений.
const (
	MessageTypeUserCreated   MessageType = "user.created"
	MessageTypeEmailUpdated  MessageType = "user.email_updated"
	MessageTypeUserDeleted   MessageType = "user.deleted"
	MessageTypeTaskCompleted MessageType = "task.completed"
	MessageTypeStepCompleted MessageType = "step.completed"
	MessageTypeFlowCompleted MessageType = "flow.completed"
	MessageTypeReminderDue   MessageType = "reminder.due"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// UserCreatedPayload — payload событий user.created и user.email_updated.
type UserCreatedPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// UserDeletedPayload — payload события user.deleted.
type UserDeletedPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// TaskCompletedPayload — payload события task.completed.
type TaskCompletedPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	StepName string    `json:"step_name"`
	TaskName string    `json:"task_name"`
}

// StepCompletedPayload — payload события step.completed.
type StepCompletedPayload struct {
	UserID   uuid.UUID `json:"user_id"`
	StepName string    `json:"step_name"`
}

// FlowCompletedPayload — payload события flow.completed.
type FlowCompletedPayload struct {
	UserID uuid.UUID `json:"user_id"`
}

// ReminderDuePayload — payload события reminder.due.
type ReminderDuePayload struct {
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	CurrentStep string    `json:"current_step"`
	IdleSince   time.Time `json:"idle_since"`
}

// Publisher публикует события приёмной кампании в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в admissions.events.
// Ключ маршрутизации — тип сообщения.
func (p *Publisher) Publish(ctx context.Context, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ch := p.conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	err = ch.PublishWithContext(
		ctx,
		string(ExchangeEvents), // exchange
		string(msg.Type),       // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
			MessageId:    msg.ID,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Type, err)
	}

	p.logger.Debug("published message",
		"routing_key", msg.Type,
		"message_id", msg.ID,
	)

	return nil
}

// publishPayload оборачивает payload в конверт и публикует.
func (p *Publisher) publishPayload(ctx context.Context, msgType MessageType, payload any) error {
	return p.Publish(ctx, &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}

// PublishUserCreated публикует событие о заведённом пользователе.
func (p *Publisher) PublishUserCreated(ctx context.Context, userID uuid.UUID, email string) error {
	return p.publishPayload(ctx, MessageTypeUserCreated, UserCreatedPayload{UserID: userID, Email: email})
}

// PublishEmailUpdated публикует событие о смене email.
func (p *Publisher) PublishEmailUpdated(ctx context.Context, userID uuid.UUID, email string) error {
	return p.publishPayload(ctx, MessageTypeEmailUpdated, UserCreatedPayload{UserID: userID, Email: email})
}

// PublishUserDeleted публикует событие об удалённом пользователе.
func (p *Publisher) PublishUserDeleted(ctx context.Context, userID uuid.UUID) error {
	return p.publishPayload(ctx, MessageTypeUserDeleted, UserDeletedPayload{UserID: userID})
}

// PublishTaskCompleted публикует событие о выполненной задаче.
func (p *Publisher) PublishTaskCompleted(ctx context.Context, payload TaskCompletedPayload) error {
	return p.publishPayload(ctx, MessageTypeTaskCompleted, payload)
}

// PublishStepCompleted публикует событие о полностью выполненном шаге.
func (p *Publisher) PublishStepCompleted(ctx context.Context, payload StepCompletedPayload) error {
	return p.publishPayload(ctx, MessageTypeStepCompleted, payload)
}

// PublishFlowCompleted публикует событие о завершённом потоке.
func (p *Publisher) PublishFlowCompleted(ctx context.Context, userID uuid.UUID) error {
	return p.publishPayload(ctx, MessageTypeFlowCompleted, FlowCompletedPayload{UserID: userID})
}

// PublishReminderDue публикует напоминание о простаивающем потоке.
// Потребитель: notifier в admitto-reminder.
func (p *Publisher) PublishReminderDue(ctx context.Context, payload ReminderDuePayload) error {
	return p.publishPayload(ctx, MessageTypeReminderDue, payload)
}
