package queue

import (
	"context"
	"encoding/json"
	"time"

	"factposter/internal/logger"
	"factposter/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Producer отправляет события о публикации в очередь RabbitMQ.
type Producer struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
}

func NewProducer(url, queueName string) (*Producer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	// Очередь durable, чтобы события переживали перезапуск брокера
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &Producer{conn: conn, ch: ch, queue: queueName}, nil
}

// PostPublished публикует событие об успешно опубликованном посте.
func (p *Producer) PostPublished(ctx context.Context, run models.Run) error {
	body, err := EncodeEvent(run.Event())
	if err != nil {
		return err
	}

	logger.Component("queue").WithField("queue", p.queue).Debug("Publishing post event")

	return p.ch.PublishWithContext(
		ctx,
		"",      // exchange
		p.queue, // routing key (имя очереди)
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Timestamp:    run.FinishedAt,
			Body:         body,
		},
	)
}

// EncodeEvent сериализует событие в JSON с временем в UTC.
func EncodeEvent(event models.PublishedEvent) ([]byte, error) {
	event.PublishedAt = event.PublishedAt.UTC().Truncate(time.Second)
	return json.Marshal(event)
}

func (p *Producer) Close() {
	p.ch.Close()
	p.conn.Close()
}
