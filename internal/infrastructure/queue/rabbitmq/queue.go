package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/infrastructure/queue"
	"github.com/nmorozov/docpipe/internal/infrastructure/resilience"
)

const attemptHeader = "x-attempt"

// Queue is the RabbitMQ work-queue backend: a durable queue whose
// dead-letter target is the poison queue. Failed deliveries are republished
// with an incremented attempt header until the ceiling, then rejected into
// the poison queue.
type Queue struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	name       string
	maxDeliver int
	executor   *resilience.Executor
	logger     *slog.Logger
}

func New(url, name string, maxDeliver int, executor *resilience.Executor, logger *slog.Logger) (*Queue, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if maxDeliver <= 0 {
		maxDeliver = 5
	}

	conn, err := connectWithRetry(url, 10, 5*time.Second, logger)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	poison := name + ".poison"
	if _, err := channel.QueueDeclare(poison, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare poison queue: %w", err)
	}
	_, err = channel.QueueDeclare(name, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": poison,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	return &Queue{
		conn:       conn,
		channel:    channel,
		name:       name,
		maxDeliver: maxDeliver,
		executor:   executor,
		logger:     logger,
	}, nil
}

func connectWithRetry(url string, maxRetries int, delay time.Duration, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("rabbitmq_connect_retry", "attempt", i+1, "max", maxRetries, "error", err)
		if i < maxRetries-1 {
			time.Sleep(delay)
		}
	}
	return nil, fmt.Errorf("connect rabbitmq after %d attempts: %w", maxRetries, err)
}

func (q *Queue) Close() {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

func (q *Queue) Publish(ctx context.Context, msg domain.WorkMessage) error {
	payload, err := queue.EncodeWorkMessage(msg)
	if err != nil {
		return err
	}

	call := func(callCtx context.Context) error {
		return q.publishRaw(callCtx, payload, 1)
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "rabbitmq.publish", call, classifyAMQPError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

func (q *Queue) publishRaw(ctx context.Context, payload []byte, attempt int) error {
	err := q.channel.PublishWithContext(ctx, "", q.name, false, false, amqp.Publishing{
		ContentType:  "text/plain",
		Body:         payload,
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{attemptHeader: int32(attempt)},
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (q *Queue) Consume(ctx context.Context, handler func(context.Context, domain.WorkMessage) error) error {
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := q.channel.Consume(q.name, "doc-worker", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("amqp delivery channel closed")
			}
			q.handleDelivery(ctx, delivery, handler)
		}
	}
}

func (q *Queue) handleDelivery(ctx context.Context, delivery amqp.Delivery, handler func(context.Context, domain.WorkMessage) error) {
	work, err := queue.DecodeWorkMessage(delivery.Body)
	if err != nil {
		q.logger.Error("work_message_undecodable", "error", err)
		// Reject without requeue dead-letters into the poison queue.
		_ = delivery.Nack(false, false)
		return
	}

	if err := handler(ctx, work); err != nil {
		attempt := deliveryAttempt(delivery)
		q.logger.Warn("work_attempt_failed", "doc_id", work.DocID, "attempt", attempt, "error", err)
		if attempt >= q.maxDeliver {
			q.logger.Error("work_message_poisoned", "doc_id", work.DocID, "attempts", attempt)
			_ = delivery.Nack(false, false)
			return
		}
		// Republish with the incremented attempt header, then ack the old
		// delivery; Nack(requeue) would not track the attempt count.
		if pubErr := q.publishRaw(ctx, delivery.Body, attempt+1); pubErr != nil {
			q.logger.Error("redeliver_publish_failed", "doc_id", work.DocID, "error", pubErr)
			_ = delivery.Nack(false, true)
			return
		}
		_ = delivery.Ack(false)
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		q.logger.Warn("amqp_ack_failed", "doc_id", work.DocID, "error", ackErr)
	}
}

func deliveryAttempt(delivery amqp.Delivery) int {
	raw, ok := delivery.Headers[attemptHeader]
	if !ok {
		return 1
	}
	switch v := raw.(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 1
}
