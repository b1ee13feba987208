// Package service holds application services that sit between handlers and
// external systems. Currently that is the audit event publisher.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/food-delivery-platform/internal/queue"
)

// Publisher sends audit events to the platform.events queue. A nil Publisher
// is valid and drops every event, which keeps handlers testable without a
// broker. Publishing is best effort: failures are logged and returned but
// callers are expected to ignore them rather than fail the request.
type Publisher struct {
	URL string
	Log *zap.Logger
}

// NewPublisher builds a Publisher for the given broker URL. An empty URL
// yields nil, disabling publishing.
func NewPublisher(url string, log *zap.Logger) *Publisher {
	if url == "" {
		return nil
	}
	return &Publisher{URL: url, Log: log}
}

// Publish marshals the payload into an Envelope and sends it as a persistent
// message. A connection is dialed per call; the event volume here (auth and
// menu mutations) does not justify holding a channel open.
func (p *Publisher) Publish(ctx context.Context, kind string, payload any) error {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.Log.Warn("events: marshal payload failed", zap.String("kind", kind), zap.Error(err))
		return err
	}
	body, err := json.Marshal(queue.Envelope{
		Kind: kind,
		At:   time.Now().UTC().Format(time.RFC3339),
		Data: data,
	})
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("events: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("events: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so events survive broker restarts.
	if _, err := ch.QueueDeclare(queue.QueueName, true, false, false, false, nil); err != nil {
		p.Log.Warn("events: queue declare failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.QueueName, false, false, pub); err != nil {
		p.Log.Warn("events: publish failed", zap.Error(err))
		return err
	}
	return nil
}
