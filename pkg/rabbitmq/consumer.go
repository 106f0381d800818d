package rabbitmq

import (
	"context"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"sync"
	"video-consult/config"
)

type Consumer[T any] interface {
	Consume(ctx context.Context, dependencies T) error
}

// Binding names the exchange, queue and routing key a consumer reads from.
type Binding struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

var AppointmentBooked = Binding{
	Exchange:   "healthcare_exchange",
	Queue:      "appointment_booking_queue",
	RoutingKey: "appointment.booked",
}

type consumer[T any] struct {
	conn       *amqp.Connection
	cfg        *config.RabbitMQ
	binding    Binding
	handler    func(ctx context.Context, msg amqp.Delivery, dependencies T) error
	numWorkers int
}

func (c consumer[T]) Consume(ctx context.Context, dependencies T) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	queueName := c.binding.Queue

	err = ch.ExchangeDeclare(c.binding.Exchange, c.cfg.Kind, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", queueName).Msg("failed to declare exchange")
		return err
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", queueName).Msg("failed to declare queue")
		return err
	}

	err = ch.QueueBind(q.Name, c.binding.RoutingKey, c.binding.Exchange, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", queueName).Msg("failed to bind queue")
		return err
	}

	err = ch.Qos(c.numWorkers, 0, false)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", queueName).Msg("failed to set QoS")
		return err
	}

	deliveries, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("queue", queueName).Msg("failed to consume queue")
		return err
	}

	jobs := make(chan amqp.Delivery, c.numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= c.numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			for msg := range jobs {
				if err := c.handler(ctx, msg, dependencies); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Int("worker", workerId).Str("queue", queueName).Msg("failed to handle message")
				}
				if err := msg.Ack(false); err != nil {
					zerolog.Ctx(ctx).Error().Err(err).Msg("failed to acknowledge message")
				}
			}
		}(i)
	}

	for {
		select {
		case delivery, ok := <-deliveries:
			if !ok {
				close(jobs)
				wg.Wait()
				return nil
			}

			jobs <- delivery
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return ctx.Err()
		}
	}
}

func NewConsumer[T any](
	conn *amqp.Connection,
	cfg *config.RabbitMQ,
	binding Binding,
	numWorkers int,
	handler func(ctx context.Context, msg amqp.Delivery, dependencies T) error,
) Consumer[T] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &consumer[T]{
		conn:       conn,
		cfg:        cfg,
		binding:    binding,
		handler:    handler,
		numWorkers: numWorkers,
	}
}
