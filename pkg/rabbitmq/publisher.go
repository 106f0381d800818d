package rabbitmq

import (
	"context"
	amqp "github.com/rabbitmq/amqp091-go"
	"sync"
	"time"
	"video-consult/config"
)

const RatingExchange = "practitioner_rating_exchange"

// Publisher publishes JSON messages to a single exchange.
type Publisher struct {
	conn     *amqp.Connection
	exchange string
	kind     string
	timeout  time.Duration

	mu      sync.Mutex
	channel *amqp.Channel
}

func NewPublisher(conn *amqp.Connection, cfg *config.RabbitMQ, exchange string) *Publisher {
	return &Publisher{
		conn:     conn,
		exchange: exchange,
		kind:     cfg.Kind,
		timeout:  5 * time.Second,
	}
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err = ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		// drop the channel so the next call opens a fresh one
		ch.Close()
		p.channel = nil
		return err
	}

	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

func (p *Publisher) ensureChannel() (*amqp.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(p.exchange, p.kind, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, err
	}
	p.channel = ch

	return ch, nil
}
