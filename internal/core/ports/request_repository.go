package ports

import (
	"context"
	"time"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// ListRequestsFilter carries all query parameters for listing requests.
// ClientID or ProviderID is always set by the service layer.
type ListRequestsFilter struct {
	ClientID   string
	ProviderID string
	State      domain.RequestState // optional
	Page       int                 // 1-based
	Limit      int                 // capped at 100 by the service
}

// RequestRepository defines persistence operations for service requests.
// Every mutating call is a conditional write on the persisted state; when the
// condition no longer holds it returns domain.ErrConcurrentModification and
// writes nothing.
type RequestRepository interface {
	Create(ctx context.Context, r *domain.ServiceRequest) error
	FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	// List returns a page of listed (non-rejected) requests matching filter and the total count.
	List(ctx context.Context, filter ListRequestsFilter) ([]*domain.ServiceRequest, int64, error)
	ListIDsByOffering(ctx context.Context, offeringID string) ([]string, error)
	ListIDsByClient(ctx context.Context, clientID string) ([]string, error)
	// TransitionState moves the request from `from` to `to`, stamping updated_at with at.
	TransitionState(ctx context.Context, id string, from, to domain.RequestState, at time.Time) error
	// MarkRated flips rated false→true on a FINALIZED request owned by clientID.
	MarkRated(ctx context.Context, id, clientID string) error
	// DeleteInState removes the request only while it is in state.
	DeleteInState(ctx context.Context, id string, state domain.RequestState) error
	DeleteByOffering(ctx context.Context, offeringID string) (int64, error)
	DeleteByClient(ctx context.Context, clientID string) (int64, error)
}
