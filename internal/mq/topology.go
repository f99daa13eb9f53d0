package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// Exchanges — имена обменников.
const (
	// ExchangeEvents — topic exchange со всеми событиями приёмной кампании.
	ExchangeEvents Exchange = "admissions.events"

	// ExchangeDLX — dead letter exchange для необработанных сообщений.
	ExchangeDLX Exchange = "admissions.dlx"
)

// Queues — имена очередей.
const (
	// QueueReminders — напоминания абитуриентам (reminder.due).
	QueueReminders Queue = "admissions.reminders"

	// QueueDLQ — сообщения, отвергнутые потребителями.
	QueueDLQ Queue = "admissions.dlq"
)

// dlqRoutingKey — ключ, с которым DLX доставляет сообщения в DLQ.
const dlqRoutingKey = "dead"

// SetupTopology объявляет обменники, очереди и привязки.
// Идемпотентна: повторное объявление той же топологии безопасно.
func SetupTopology(conn *Connection) error {
	ch := conn.Channel()
	if ch == nil {
		return fmt.Errorf("no channel available")
	}

	if err := declareExchanges(ch); err != nil {
		return err
	}
	if err := declareQueues(ch); err != nil {
		return err
	}
	return bindQueues(ch)
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeEvents, "topic"},
		{ExchangeDLX, "direct"},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	// Отвергнутые напоминания уходят через DLX в admissions.dlq
	dlxArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLX),
		"x-dead-letter-routing-key": dlqRoutingKey,
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		{QueueReminders, dlxArgs},
		{QueueDLQ, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

// bindQueues привязывает очереди к обменникам.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey string
		exchange   Exchange
	}{
		{QueueReminders, string(MessageTypeReminderDue), ExchangeEvents},
		{QueueDLQ, dlqRoutingKey, ExchangeDLX},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),    // queue name
			b.routingKey,       // routing key
			string(b.exchange), // exchange
			false,              // no-wait
			nil,                // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}

	return nil
}
