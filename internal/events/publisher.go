// Package events delivers domain events to the message bus. Events are
// collected on the wallet aggregate during a unit of work and handed to a
// Publisher only after the commit succeeds.
package events

import (
	"context"
	"log"

	"safarpay/internal/models"
)

// Publisher delivers committed domain events to the outside world.
type Publisher interface {
	PublishEvents(ctx context.Context, events []models.DomainEvent) error
	Close()
}

// NoopPublisher drops events with a warning. Used when the broker is absent
// at startup so the wallet core stays available.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvents(ctx context.Context, events []models.DomainEvent) error {
	for _, e := range events {
		log.Printf("event publisher disabled, dropping %s", e.EventName())
	}
	return nil
}

func (NoopPublisher) Close() {}
