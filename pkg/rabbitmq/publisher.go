package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	ch       *amqp091.Channel            // AMQP channel for publishing messages
	confirms <-chan amqp091.Confirmation // publish confirmations
	exchange string
}

func NewPublisher(conn *amqp091.Connection, exchange string) (*Publisher, error) {

	if conn == nil {
		return nil, errors.New("AMQP connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, err
	}

	confirms := ch.NotifyPublish(make(chan amqp091.Confirmation, 100))

	return &Publisher{
		ch:       ch,
		confirms: confirms,
		exchange: exchange,
	}, nil
}

// PublishEvent wraps payload in the event envelope and publishes it with
// the given routing key, waiting for the broker confirmation.
func (p *Publisher) PublishEvent(ctx context.Context, routingKey, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	body, err := json.Marshal(EventPayload{
		ID:      uuid.New(),
		Type:    eventType,
		Payload: raw,
	})
	if err != nil {
		return err
	}

	if err := p.publish(ctx, routingKey, body); err != nil {
		return err
	}

	select {
	case confirm := <-p.confirms:
		if !confirm.Ack {
			return errors.New("confirmation not received for message")
		}
	case <-time.After(5 * time.Second):
		return errors.New("publish confirms timeout")
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

func (p *Publisher) publish(ctx context.Context, routingKey string, body []byte) error {

	if p.ch == nil {
		return errors.New("AMQP channel is nil")
	}

	return p.ch.PublishWithContext(
		ctx,
		p.exchange,
		routingKey,
		false,
		false,
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
