// Package service implements the business rules layered over the flat-file
// repositories: the ban/penalty engine, the store and purchase flow, the
// search scan and the catalog cache refresher.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/EldonT123/bs-reviews/internal/queue"
)

// AuditPublisher publishes moderation and purchase events to the
// moderation.audit queue.  Publishing is strictly best-effort: every error
// is logged and swallowed so the request flow never depends on the broker.
// A nil publisher is valid and drops all events.
type AuditPublisher struct {
	URL string
	Log *zap.Logger
}

func NewAuditPublisher(url string, log *zap.Logger) *AuditPublisher {
	if url == "" {
		return nil
	}
	return &AuditPublisher{URL: url, Log: log}
}

// Publish sends one event.  Messages are marked persistent so they survive
// broker restarts.
func (p *AuditPublisher) Publish(ctx context.Context, ev queue.AuditEvent) {
	if p == nil {
		return
	}
	if ev.OccurredAt == "" {
		ev.OccurredAt = time.Now().UTC().Format(time.RFC3339)
	}
	if err := p.publish(ctx, ev); err != nil {
		p.Log.Warn("audit publish failed", zap.String("action", ev.Action), zap.Error(err))
	}
}

func (p *AuditPublisher) publish(ctx context.Context, ev queue.AuditEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	// Ensure the queue exists (idempotent). Durable so messages survive
	// broker restarts.
	if _, err := ch.QueueDeclare(queue.AuditQueueName, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return ch.PublishWithContext(ctx,
		"",                   // default exchange
		queue.AuditQueueName, // routing key = queue name
		false,                // mandatory
		false,                // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		})
}
