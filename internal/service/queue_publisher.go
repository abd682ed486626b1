// Package service holds the workflow services.  Services own the status
// transition rules and call repositories; handlers only translate HTTP.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/metrics"
)

// EventPublisher hands a workflow event to the broker.  Publishing is
// best-effort: callers log failures and never fail the request.
type EventPublisher interface {
	Publish(ctx context.Context, queue string, event any) error
}

// AMQPPublisher publishes JSON events to durable RabbitMQ queues.  A
// connection is dialed per publish; event volume is a handful per request.
type AMQPPublisher struct {
	url string
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string) *AMQPPublisher { return &AMQPPublisher{url: url} }

// Publish declares queue (idempotent) and publishes event as a persistent
// message on the default exchange.
func (p *AMQPPublisher) Publish(ctx context.Context, queue string, event any) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// NopPublisher drops every event.  It is used when EVENTS_ENABLED=false.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

// events wraps a publisher with the logging and metrics every service
// shares.  Publishing runs detached from the request's cancellation so a
// client hanging up after commit does not drop the event.
type events struct {
	pub EventPublisher
	log *zap.Logger
	m   *metrics.Metrics
}

func (e events) emit(ctx context.Context, queue string, event any) {
	if e.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	err := e.pub.Publish(ctx, queue, event)
	e.m.Published(queue, err)
	if err != nil && e.log != nil {
		e.log.Warn("event publish failed", zap.String("queue", queue), zap.Error(err))
	}
}

func nowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }
