package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/phambaophuc/imgres/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

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

	go q.consume(ctx, msgs, workerID)

	return nil
}

func (q *QueueService) consume(ctx context.Context, msgs <-chan amqp.Delivery, workerID int) {
	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
			return
		case msg, ok := <-msgs:
			if !ok {
				q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
				return
			}

			q.processMessage(ctx, msg, workerID)
		}
	}
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var event models.UsageEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		q.logger.Error("Failed to unmarshal usage event",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	if err := q.store.RecordUsage(ctx, event); err != nil {
		q.logger.Error("Failed to record usage",
			zap.String("event_id", event.ID),
			zap.Error(err))
		msg.Nack(false, !msg.Redelivered)
		return
	}

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("event_id", event.ID),
			zap.Error(err))
	}
}
