package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/resoul/awstranscribe/config"
	"github.com/resoul/awstranscribe/models"
)

type RabbitMQService struct {
	conn        *amqp.Connection
	channel     *amqp.Channel
	queue       amqp.Queue
	resultQueue string
}

func NewRabbitMQService(cfg config.RabbitMQConfig) (*RabbitMQService, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	q, err := declareQueue(ch, cfg.QueueName)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if cfg.ResultQueue != "" {
		if _, err := declareQueue(ch, cfg.ResultQueue); err != nil {
			ch.Close()
			conn.Close()
			return nil, err
		}
	}

	// Jobs are processed one at a time.
	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &RabbitMQService{
		conn:        conn,
		channel:     ch,
		queue:       q,
		resultQueue: cfg.ResultQueue,
	}, nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	return ch.QueueDeclare(
		name,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
}

// Consume delivers requests to handler sequentially until ctx is cancelled
// or the channel closes. Malformed messages are rejected without requeue; a
// job cut short by cancellation is requeued and Consume returns.
func (s *RabbitMQService) Consume(ctx context.Context, handler func(context.Context, models.JobMessage)) error {
	msgs, err := s.channel.Consume(
		s.queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}

			if requeued := handleDelivery(ctx, msg.Body, msg, handler); requeued {
				return nil
			}
		}
	}
}

// acker settles a delivery. amqp.Delivery satisfies it.
type acker interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// handleDelivery runs handler for one message body and settles it. A job
// interrupted by ctx cancellation is requeued so another worker can pick it
// up; handleDelivery reports true in that case.
func handleDelivery(ctx context.Context, body []byte, d acker, handler func(context.Context, models.JobMessage)) bool {
	job, err := decodeJobMessage(body)
	if err != nil {
		logrus.WithError(err).Error("Failed to parse job")
		if nackErr := d.Nack(false, false); nackErr != nil {
			logrus.WithError(nackErr).Warn("Failed to reject message")
		}
		return false
	}

	handler(ctx, job)

	log := logrus.WithField("job_uuid", job.UUID)
	if ctx.Err() != nil {
		if err := d.Nack(false, true); err != nil {
			log.WithError(err).Warn("Failed to requeue message")
		} else {
			log.Warn("Job interrupted by shutdown, message requeued")
		}
		return true
	}

	if err := d.Ack(false); err != nil {
		log.WithError(err).Warn("Failed to ack message")
	}
	return false
}

// Publish sends a job result to the result queue. Without a configured
// result queue it is a no-op.
func (s *RabbitMQService) Publish(ctx context.Context, result models.JobResult) error {
	if s.resultQueue == "" {
		return nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	return s.channel.PublishWithContext(ctx,
		"",            // default exchange
		s.resultQueue, // routing key
		false,         // mandatory
		false,         // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    result.UUID,
			Body:         body,
		},
	)
}

func (s *RabbitMQService) Close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}

func decodeJobMessage(body []byte) (models.JobMessage, error) {
	var job models.JobMessage
	if err := json.Unmarshal(body, &job); err != nil {
		return models.JobMessage{}, newJobError(ErrTypeRabbitMQ, "", "decode", err)
	}
	if job.SourceURL == "" {
		return models.JobMessage{}, newJobError(ErrTypeRabbitMQ, job.UUID, "decode", errors.New("job has no source_url"))
	}
	return job, nil
}
