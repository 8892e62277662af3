package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/phambaophuc/image-validator/internal/services/checker"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const QueueName = "image_validation"

// JobStore holds uploads and job state for asynchronous validations.
type JobStore interface {
	Download(ctx context.Context, path string) ([]byte, error)
	Delete(ctx context.Context, path string) error
	SaveJob(ctx context.Context, job *models.ValidationJob) error
}

type Checker interface {
	Check(ctx context.Context, requestID string, upload checker.Upload) (*checker.Outcome, error)
}

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	store     JobStore
	checker   Checker
}

func NewQueueService(
	rabbitmqURL string,
	store JobStore,
	checker Checker,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	// One unacknowledged job per consumer.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger.Named("queue"),
		queueName: QueueName,
		store:     store,
		checker:   checker,
	}, nil
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
