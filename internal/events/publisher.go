package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const OrderSubmittedQueue = "checkout.order.submitted"

type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(conn *amqp.Connection) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	// Declare the queue up front so publish never fails on missing infra.
	_, err = ch.QueueDeclare(OrderSubmittedQueue, true, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("declare %s: %w", OrderSubmittedQueue, err)
	}

	return &Publisher{ch: ch}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

func (p *Publisher) PublishOrderSubmitted(ctx context.Context, ev OrderSubmitted) error {
	env := BuildOrderSubmittedEnvelope(ev)

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderSubmitted: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",                  // default exchange
		OrderSubmittedQueue, // routing key = queue name
		false,               // mandatory
		false,               // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish OrderSubmitted: %w", err)
	}
	return nil
}
