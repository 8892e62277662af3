package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/image-validator/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

// StartWorker registers a consumer and processes deliveries until ctx is
// cancelled or the channel closes.
func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
			return nil
		case msg, ok := <-msgs:
			if !ok {
				q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
				return nil
			}

			q.processMessage(ctx, msg, workerID)
		}
	}
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.ValidationJob
	if err := json.Unmarshal(msg.Body, &job); err != nil || job.ID == "" {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing
	job.UpdatedAt = time.Now().UTC()
	q.saveJob(ctx, &job)

	result, err := q.processJob(ctx, &job)

	// Job state must outlive a shutdown that interrupts the check.
	persistCtx := context.WithoutCancel(ctx)

	if ctx.Err() != nil {
		q.requeueJob(persistCtx, msg, &job, workerID)
		return
	}

	if err != nil {
		job.Status = models.StatusFailed
		job.Error = err.Error()
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.Error(err))
	} else {
		job.Status = models.StatusCompleted
		job.Result = result
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID))
	}
	job.UpdatedAt = time.Now().UTC()
	q.saveJob(persistCtx, &job)

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}

	if err := q.store.Delete(persistCtx, job.StorageKey); err != nil {
		q.logger.Warn("Failed to delete processed upload",
			zap.String("job_id", job.ID),
			zap.String("storage_key", job.StorageKey),
			zap.Error(err))
	}
}

// requeueJob returns an interrupted job to the queue with its upload intact so
// another worker can pick it up.
func (q *QueueService) requeueJob(ctx context.Context, msg amqp.Delivery, job *models.ValidationJob, workerID int) {
	q.logger.Warn("Job interrupted, requeueing",
		zap.String("job_id", job.ID),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusPending
	job.Error = ""
	job.Result = nil
	job.UpdatedAt = time.Now().UTC()
	q.saveJob(ctx, job)

	if err := msg.Nack(false, true); err != nil {
		q.logger.Error("Failed to requeue message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}
}

func (q *QueueService) saveJob(ctx context.Context, job *models.ValidationJob) {
	if err := q.store.SaveJob(ctx, job); err != nil {
		q.logger.Error("Failed to save job state",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}
