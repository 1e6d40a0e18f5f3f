package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — имя обменника.
type Exchange string

// RoutingKey — ключ маршрутизации.
type RoutingKey string

// ExchangeRuns — topic exchange событий выполнений.
const ExchangeRuns Exchange = "maidono.runs"

// Ключи событий.
const (
	RoutingKeyRunStarted  RoutingKey = "run.started"
	RoutingKeyRunFinished RoutingKey = "run.finished"

	// RoutingKeyAllRuns — шаблон подписки на все события runs.
	RoutingKeyAllRuns RoutingKey = "run.*"
)

// SetupTopology объявляет exchange maidono.runs.
// Очереди объявляют сами потребители.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		return declareExchange(ch)
	})
}

func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeRuns), // name
		"topic",              // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeRuns, err)
	}
	return nil
}

// DeclareWatchQueue объявляет временную очередь наблюдателя,
// привязанную ко всем событиям runs. Возвращает имя, выданное брокером.
func DeclareWatchQueue(ch *amqp.Channel) (string, error) {
	if err := declareExchange(ch); err != nil {
		return "", err
	}

	q, err := ch.QueueDeclare(
		"",    // name (генерирует брокер)
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return "", fmt.Errorf("declare watch queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, string(RoutingKeyAllRuns), string(ExchangeRuns), false, nil); err != nil {
		return "", fmt.Errorf("bind queue %s to %s: %w", q.Name, ExchangeRuns, err)
	}
	return q.Name, nil
}
