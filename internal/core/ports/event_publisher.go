package ports

import (
	"context"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// EventPublisher hands committed lifecycle events to the outside world.
// Publish must not block the caller on broker I/O.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.LifecycleEvent)
}

// EventSink delivers a single event to its final destination (broker, log).
type EventSink interface {
	Send(ctx context.Context, event domain.LifecycleEvent) error
}
