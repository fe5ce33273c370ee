// Package nats implements the message queue port using NATS JetStream and
// the blackboard's NATS-facing adapters built on it.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/blackboard/internal/logger"
	"github.com/Strob0t/blackboard/internal/port/messagequeue"
)

const (
	streamName       = "BLACKBOARD"
	streamMaxAge     = 24 * time.Hour
	maxRetries       = 3
	headerRequestID  = "X-Request-ID"
	headerRetryCount = "Retry-Count"
	dlqSuffix        = ".dlq"
)

var _ messagequeue.Queue = (*Queue)(nil)

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("blackboard"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name: streamName,
		Subjects: []string{
			messagequeue.SubjectEvents + ".>",
			"workers.>",
			"agents.>",
			"tasks.>",
		},
		MaxAge: streamMaxAge,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// JetStream exposes the JetStream context for KV-backed adapters.
func (q *Queue) JetStream() jetstream.JetStream { return q.js }

// KeyValue creates or opens a KV bucket whose entries expire after ttl.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := q.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{Bucket: bucket, TTL: ttl})
	if err != nil {
		return nil, fmt.Errorf("nats kv %s: %w", bucket, err)
	}
	return kv, nil
}

// Publish sends a message to the given subject. The request ID carried by
// ctx travels as a header.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers a handler for messages on the given subject.
// Messages that fail schema validation go straight to <subject>.dlq. Failed
// handlers are redelivered until maxRetries, then moved to the DLQ.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		Durable:       durableName(subject),
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
		MaxDeliver:    maxRetries + 1,
	})
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		q.handle(msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}
	return cons.Stop, nil
}

func (q *Queue) handle(msg jetstream.Msg, handler messagequeue.Handler) {
	ctx := context.Background()
	if id := msg.Headers().Get(headerRequestID); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}

	if err := messagequeue.Validate(msg.Subject(), msg.Data()); err != nil {
		slog.ErrorContext(ctx, "invalid message", "subject", msg.Subject(), "error", err)
		q.moveToDLQ(ctx, msg)
		return
	}

	if err := handler(ctx, msg.Subject(), msg.Data()); err != nil {
		retries := retryCount(msg)
		slog.ErrorContext(ctx, "message handler failed", "subject", msg.Subject(), "retries", retries, "error", err)
		if retries >= maxRetries {
			q.moveToDLQ(ctx, msg)
			return
		}
		if nakErr := msg.Nak(); nakErr != nil {
			slog.Error("nats nak failed", "error", nakErr)
		}
		return
	}
	if ackErr := msg.Ack(); ackErr != nil {
		slog.Error("nats ack failed", "error", ackErr)
	}
}

func (q *Queue) moveToDLQ(ctx context.Context, msg jetstream.Msg) {
	dlq := &nats.Msg{Subject: msg.Subject() + dlqSuffix, Data: msg.Data(), Header: nats.Header{}}
	if id := logger.RequestID(ctx); id != "" {
		dlq.Header.Set(headerRequestID, id)
	}
	if _, err := q.js.PublishMsg(ctx, dlq); err != nil {
		slog.ErrorContext(ctx, "dlq publish failed", "subject", dlq.Subject, "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// retryCount is the larger of the Retry-Count header and the number of
// earlier deliveries.
func retryCount(msg jetstream.Msg) int {
	n, _ := strconv.Atoi(msg.Headers().Get(headerRetryCount))
	if md, err := msg.Metadata(); err == nil && int(md.NumDelivered)-1 > n {
		n = int(md.NumDelivered) - 1
	}
	return n
}

func durableName(subject string) string {
	r := strings.NewReplacer(".", "_", "*", "any", ">", "all")
	return "blackboard_" + r.Replace(subject)
}

// Drain gracefully drains all subscriptions before closing.
func (q *Queue) Drain() error {
	if err := q.nc.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (q *Queue) Close() error {
	q.nc.Close()
	return nil
}

// IsConnected reports whether the NATS connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}
