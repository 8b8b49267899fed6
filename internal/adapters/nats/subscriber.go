package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mgoiri/geolens/internal/core/domain"
)

// Subscriber implements ports.EventSubscriber using NATS JetStream.
type Subscriber struct {
	conn *nats.Conn
	js   nats.JetStreamContext
	subs []*nats.Subscription
}

// NewSubscriber creates a subscriber with its own NATS connection.
func NewSubscriber(url string) (*Subscriber, error) {
	conn, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := conn.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	return &Subscriber{conn: conn, js: js}, nil
}

func (s *Subscriber) SubscribeDatasetUploads(ctx context.Context, handler func(ctx context.Context, ds *domain.Dataset) error) error {
	sub, err := s.js.Subscribe("geo.dataset.uploaded.>", func(msg *nats.Msg) {
		var ds domain.Dataset
		if err := json.Unmarshal(msg.Data, &ds); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &ds); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("dataset-processor"),
		nats.ManualAck(),
		nats.MaxDeliver(3),
	)
	if err != nil {
		return err
	}
	s.subs = append(s.subs, sub)
	return nil
}

func (s *Subscriber) SubscribeAnalysisCompletions(ctx context.Context, handler func(ctx context.Context, run *domain.AnalysisRun) error) error {
	sub, err := s.js.Subscribe("geo.analysis.completed.>", func(msg *nats.Msg) {
		var run domain.AnalysisRun
		if err := json.Unmarshal(msg.Data, &run); err != nil {
			_ = msg.Nak()
			return
		}
		if err := handler(ctx, &run); err != nil {
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	},
		nats.Durable("analysis-processor"),
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
