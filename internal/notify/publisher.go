// Package notify delivers discount code events to websocket subscribers and Kafka.
package notify

import (
	"context"
	"errors"

	"discount-codes/internal/model"
)

// Publisher delivers an event to its subscribers.
type Publisher interface {
	Publish(ctx context.Context, event model.Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, model.Event) error { return nil }

type multiPublisher struct {
	publishers []Publisher
}

// NewMultiPublisher fans every event out to all publishers. Nil entries are skipped.
func NewMultiPublisher(publishers ...Publisher) Publisher {
	m := &multiPublisher{}
	for _, p := range publishers {
		if p != nil {
			m.publishers = append(m.publishers, p)
		}
	}
	return m
}

// Publish delivers to every publisher even if some fail and returns the joined errors.
func (m *multiPublisher) Publish(ctx context.Context, event model.Event) error {
	var errs []error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
