package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно событие.
type Handler func(ctx context.Context, msg *Message) error

// DeclareFunc объявляет очередь и возвращает её имя.
// Вызывается при каждом (пере)подключении.
type DeclareFunc func(ch *amqp.Channel) (string, error)

// Consumer читает события из очереди.
type Consumer struct {
	conn    *Connection
	logger  *slog.Logger
	declare DeclareFunc
	handler Handler
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, declare DeclareFunc, handler Handler, logger *slog.Logger) *Consumer {
	return &Consumer{
		conn:    conn,
		logger:  logger,
		declare: declare,
		handler: handler,
	}
}

// Run читает события до отмены ctx. После разрыва соединения
// ждёт переподключения и объявляет очередь заново.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		deliveries, err := c.subscribe(ctx)
		if err != nil {
			c.logger.Error("failed to subscribe", "error", err)
		} else {
			c.process(ctx, deliveries)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.Reconnected():
			c.logger.Info("reconnected, resubscribing")
		}
	}
}

func (c *Consumer) subscribe(ctx context.Context) (<-chan amqp.Delivery, error) {
	var deliveries <-chan amqp.Delivery
	err := c.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		queue, err := c.declare(ch)
		if err != nil {
			return err
		}
		deliveries, err = ch.ConsumeWithContext(ctx,
			queue,
			"",    // consumer tag
			false, // auto-ack
			true,  // exclusive
			false, // no-local
			false, // no-wait
			nil,
		)
		if err != nil {
			return fmt.Errorf("consume %s: %w", queue, err)
		}
		return nil
	})
	return deliveries, err
}

// process обрабатывает сообщения, пока канал доставки открыт.
func (c *Consumer) process(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-deliveries:
			if !ok {
				return
			}
			c.handle(ctx, raw)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Warn("dropping malformed event", "error", err)
		raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, &msg); err != nil {
		c.logger.Warn("event handler failed", "message_id", msg.ID, "error", err)
		raw.Nack(false, false)
		return
	}
	raw.Ack(false)
}
