package events

import (
	"context"
	"encoding/json"
	"time"

	"safarpay/internal/models"

	"github.com/rabbitmq/amqp091-go"
)

// Exchange is the durable topic exchange all wallet events go through.
const Exchange = "wallet_events"

// RabbitMQPublisher publishes domain events to a durable topic exchange,
// routing by event name.
type RabbitMQPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewRabbitMQPublisher dials the broker with a bounded timeout and declares
// the exchange.
func NewRabbitMQPublisher(amqpURL string) (*RabbitMQPublisher, error) {
	conn, err := amqp091.DialConfig(amqpURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(Exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}
	return &RabbitMQPublisher{conn: conn, channel: ch}, nil
}

// PublishEvents sends each event as a JSON message. On the first failure the
// remaining events are returned as an error so the caller can re-attach them
// for a later retry.
func (p *RabbitMQPublisher) PublishEvents(ctx context.Context, evts []models.DomainEvent) error {
	for _, e := range evts {
		body, err := json.Marshal(e)
		if err != nil {
			return err
		}
		err = p.channel.PublishWithContext(ctx,
			Exchange,
			e.EventName(),
			false,
			false,
			amqp091.Publishing{
				ContentType: "application/json",
				Timestamp:   time.Now(),
				Body:        body,
			},
		)
		if err != nil {
			// One-shot retry on a fresh channel before giving up.
			ch, chErr := p.conn.Channel()
			if chErr != nil {
				return err
			}
			p.channel = ch
			if err := p.channel.PublishWithContext(ctx, Exchange, e.EventName(), false, false, amqp091.Publishing{
				ContentType: "application/json",
				Timestamp:   time.Now(),
				Body:        body,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Close gracefully closes the channel and connection.
func (p *RabbitMQPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
