package ports

import (
	"context"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// MessageRepository persists the per-request conversation.
type MessageRepository interface {
	Insert(ctx context.Context, m *domain.Message) error
	// ListByRequest returns the messages of a request ordered by creation time ascending.
	ListByRequest(ctx context.Context, requestID string) ([]*domain.Message, error)
	// DeleteByRequest removes every message of the request and returns how many were removed.
	// Only lifecycle cascades call it.
	DeleteByRequest(ctx context.Context, requestID string) (int64, error)
}

// RatingRepository persists ratings. Request IDs are unique across ratings.
type RatingRepository interface {
	Insert(ctx context.Context, r *domain.Rating) error
	ListByProvider(ctx context.Context, providerID string) ([]*domain.Rating, error)
}

// OfferingRepository persists the service catalog.
type OfferingRepository interface {
	FindByID(ctx context.Context, id string) (*domain.ServiceOffering, error)
	FindByOwner(ctx context.Context, providerID string) ([]*domain.ServiceOffering, error)
	FindAll(ctx context.Context) ([]*domain.ServiceOffering, error)
	Create(ctx context.Context, o *domain.ServiceOffering) error
	Update(ctx context.Context, o *domain.ServiceOffering) error
	DeleteByID(ctx context.Context, id string) error
}

// Transactor runs fn as one unit of work. Repository calls made with the
// context handed to fn join the unit; any error returned by fn rolls it back.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
