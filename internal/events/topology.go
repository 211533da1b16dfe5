package events

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// Queue — имя очереди.
type Queue string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// Топология событий: один direct-обменник, по очереди на тип события.
const (
	RunsExchange Exchange = "celesta.runs"

	RunsStartedQueue  Queue = "runs.started"
	RunsFinishedQueue Queue = "runs.finished"

	RunStartedKey  RoutingKey = "run.started"
	RunFinishedKey RoutingKey = "run.finished"
)

// binding связывает очередь с ключом маршрутизации.
type binding struct {
	queue Queue
	key   RoutingKey
}

var bindings = []binding{
	{RunsStartedQueue, RunStartedKey},
	{RunsFinishedQueue, RunFinishedKey},
}

// SetupTopology объявляет обменник, очереди и связки.
// Идемпотентно: повторный вызов на той же топологии безопасен.
func SetupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		string(RunsExchange),
		"direct",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("declare exchange %s: %w", RunsExchange, err)
	}

	for _, b := range bindings {
		if _, err := ch.QueueDeclare(
			string(b.queue),
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", b.queue, err)
		}

		if err := ch.QueueBind(
			string(b.queue),
			string(b.key),
			string(RunsExchange),
			false,
			nil,
		); err != nil {
			return fmt.Errorf("bind queue %s: %w", b.queue, err)
		}
	}

	return nil
}
