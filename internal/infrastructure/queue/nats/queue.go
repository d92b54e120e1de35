package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nmorozov/docpipe/internal/core/domain"
	"github.com/nmorozov/docpipe/internal/infrastructure/queue"
	"github.com/nmorozov/docpipe/internal/infrastructure/resilience"
)

const consumerGroup = "doc-workers"

// Queue is the JetStream work-queue backend. Deliveries are acked explicitly
// after the handler succeeds; a delivery that exhausts MaxDeliver is copied
// to the poison subject and terminated.
type Queue struct {
	conn       *nats.Conn
	js         nats.JetStreamContext
	stream     string
	subject    string
	maxDeliver int
	ackWait    time.Duration
	executor   *resilience.Executor
	logger     *slog.Logger
}

type Options struct {
	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	AckWait            time.Duration
	ResilienceExecutor *resilience.Executor
	Logger             *slog.Logger
}

func New(url, stream, subject string, maxDeliver int, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if maxDeliver <= 0 {
		maxDeliver = 5
	}
	ackWait := options.AckWait
	if ackWait <= 0 {
		ackWait = 2 * time.Minute
	}

	conn, err := nats.Connect(
		url,
		nats.Name("docpipe"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	q := &Queue{
		conn:       conn,
		js:         js,
		stream:     stream,
		subject:    subject,
		maxDeliver: maxDeliver,
		ackWait:    ackWait,
		executor:   options.ResilienceExecutor,
		logger:     logger,
	}
	if err := q.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) ensureStream() error {
	_, err := q.js.StreamInfo(q.stream)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("stream info: %w", err)
	}
	_, err = q.js.AddStream(&nats.StreamConfig{
		Name:      q.stream,
		Subjects:  []string{q.subject, q.poisonSubject()},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", q.stream, err)
	}
	return nil
}

func (q *Queue) poisonSubject() string {
	return q.subject + ".poison"
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) Publish(ctx context.Context, msg domain.WorkMessage) error {
	payload, err := queue.EncodeWorkMessage(msg)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if _, err := q.js.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("jetstream publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

func (q *Queue) Consume(ctx context.Context, handler func(context.Context, domain.WorkMessage) error) error {
	sub, err := q.js.QueueSubscribe(q.subject, consumerGroup, func(msg *nats.Msg) {
		q.handleDelivery(ctx, msg, handler)
	},
		nats.Durable(consumerGroup),
		nats.ManualAck(),
		nats.MaxDeliver(q.maxDeliver),
		nats.AckWait(q.ackWait),
		nats.DeliverAll(),
	)
	if err != nil {
		return fmt.Errorf("jetstream subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func (q *Queue) handleDelivery(ctx context.Context, msg *nats.Msg, handler func(context.Context, domain.WorkMessage) error) {
	work, err := queue.DecodeWorkMessage(msg.Data)
	if err != nil {
		// Undecodable payloads can never succeed; route straight to poison.
		q.logger.Error("work_message_undecodable", "error", err)
		q.poison(msg)
		return
	}

	if err := handler(ctx, work); err != nil {
		q.logger.Warn("work_attempt_failed", "doc_id", work.DocID, "error", err)
		meta, metaErr := msg.Metadata()
		if metaErr == nil && meta.NumDelivered >= uint64(q.maxDeliver) {
			q.logger.Error("work_message_poisoned", "doc_id", work.DocID, "deliveries", meta.NumDelivered)
			q.poison(msg)
			return
		}
		if nakErr := msg.Nak(); nakErr != nil {
			q.logger.Error("nats_nak_failed", "doc_id", work.DocID, "error", nakErr)
		}
		return
	}

	if ackErr := msg.Ack(); ackErr != nil {
		// The ack failing after a successful attempt means a redelivery, which
		// the idempotent result write absorbs.
		q.logger.Warn("nats_ack_failed", "doc_id", work.DocID, "error", ackErr)
	}
}

func (q *Queue) poison(msg *nats.Msg) {
	if _, err := q.js.Publish(q.poisonSubject(), msg.Data); err != nil {
		q.logger.Error("poison_publish_failed", "error", err)
		// Leave the delivery unacked so it comes back rather than vanishing.
		return
	}
	if err := msg.Term(); err != nil {
		q.logger.Error("nats_term_failed", "error", err)
	}
}
