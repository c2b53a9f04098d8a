package natsadapter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/biohubbc/biohub/internal/core/ports"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
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
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

// SubscribeSubmissionIngested delivers ingested events to handler through a
// durable consumer. Handler errors are redelivered up to three times.
func (s *Subscriber) SubscribeSubmissionIngested(ctx context.Context, handler func(ctx context.Context, ev *ports.SubmissionEvent) error) error {
	return s.subscribe(ctx, SubjectIngested+".>", "submission-dispatcher", handler)
}

// SubscribeSubmissionTransformed delivers transformed events to handler.
func (s *Subscriber) SubscribeSubmissionTransformed(ctx context.Context, handler func(ctx context.Context, ev *ports.SubmissionEvent) error) error {
	return s.subscribe(ctx, SubjectTransformed+".>", "submission-transformed", handler)
}

func (s *Subscriber) subscribe(ctx context.Context, subject, durable string, handler func(ctx context.Context, ev *ports.SubmissionEvent) error) error {
	sub, err := s.js.Subscribe(subject, func(msg *nats.Msg) {
		ev, err := DecodeEvent(msg.Data)
		if err != nil {
			// Undecodable payloads will never succeed.
			slog.Warn("dropping malformed event", "subject", msg.Subject, "error", err)
			_ = msg.Term()
			return
		}
		if err := handler(ctx, ev); err != nil {
			slog.Warn("event handler failed", "subject", msg.Subject, "error", err)
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
		return err
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
