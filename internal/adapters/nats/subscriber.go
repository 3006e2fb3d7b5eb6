package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/constructtrack/platform/internal/core/domain"
)

// Subscriber consumes domain events from JetStream with durable consumers.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := RawConn(url)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeProjectEvents(ctx context.Context, durable string, handler func(ctx context.Context, event *domain.ProjectEvent) error) error {
	return subscribe(ctx, s, ProjectSubjects, durable, handler)
}

func (s *Subscriber) SubscribeNotionEvents(ctx context.Context, durable string, handler func(ctx context.Context, event *domain.NotionEvent) error) error {
	return subscribe(ctx, s, NotionSubjects, durable, handler)
}

// subscribe decodes each message into T. Undecodable messages are
// terminated; handler errors are redelivered up to MaxDeliver.
func subscribe[T any](ctx context.Context, s *Subscriber, subject, durable string, handler func(context.Context, *T) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		var v T
		if err := json.Unmarshal(msg.Data, &v); err != nil {
			_ = msg.Term()
			return
		}
		if err := handler(ctx, &v); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable(durable),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	s.subs = append(s.subs, sub)
	return nil
}

// Close unsubscribes and drains.
func (s *Subscriber) Close() {
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	_ = s.conn.Drain()
}
