package ports

import (
	"context"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// CreateRequestInput carries the data needed to open a service request.
type CreateRequestInput struct {
	ClientID       string
	OfferingID     string
	IdempotencyKey string
}

// CreateRequestResult is returned after creating a request.
type CreateRequestResult struct {
	Request *domain.ServiceRequest
	// AlreadyExisted is true when the Idempotency-Key matched an earlier request.
	AlreadyExisted bool
}

// ListRequestsInput carries the parameters of the listing endpoints.
type ListRequestsInput struct {
	State string
	Page  int
	Limit int
}

// ListRequestsResult is one page of requests.
type ListRequestsResult struct {
	Items      []*domain.ServiceRequest
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// RequestService is the request lifecycle engine.
type RequestService interface {
	Create(ctx context.Context, actor domain.Principal, input CreateRequestInput) (*CreateRequestResult, error)
	Get(ctx context.Context, actor domain.Principal, id string) (*domain.ServiceRequest, error)
	ListForClient(ctx context.Context, actor domain.Principal, clientID string, input ListRequestsInput) (*ListRequestsResult, error)
	ListForProvider(ctx context.Context, actor domain.Principal, providerID string, input ListRequestsInput) (*ListRequestsResult, error)
	// SetState applies a provider decision. A nil request with a nil error
	// means the request was rejected and disposed of.
	SetState(ctx context.Context, actor domain.Principal, id string, target domain.RequestState) (*domain.ServiceRequest, error)
	Finalize(ctx context.Context, actor domain.Principal, id string) (*domain.ServiceRequest, error)
	// DeleteIfFinalized returns false, nil when the request exists but is not FINALIZED.
	DeleteIfFinalized(ctx context.Context, actor domain.Principal, id string) (bool, error)
}

// MessageService is the per-request conversation log.
type MessageService interface {
	Append(ctx context.Context, actor domain.Principal, requestID, recipientID, content string) (*domain.Message, error)
	ListFor(ctx context.Context, actor domain.Principal, requestID string) ([]*domain.Message, error)
}

// ProviderRatings is the public rating summary of a provider.
type ProviderRatings struct {
	ProviderID string
	Average    float64
	Count      int
	Items      []*domain.Rating
}

// RatingService is the one-rating-per-request gate.
type RatingService interface {
	Rate(ctx context.Context, actor domain.Principal, requestID string, stars int, comment string) (*domain.Rating, error)
	ListForProvider(ctx context.Context, providerID string) (*ProviderRatings, error)
}

// OfferingInput carries the editable fields of an offering.
type OfferingInput struct {
	Name        string
	Description string
	Price       float64
}

// CatalogService manages service offerings owned by providers.
type CatalogService interface {
	Create(ctx context.Context, actor domain.Principal, input OfferingInput) (*domain.ServiceOffering, error)
	Update(ctx context.Context, actor domain.Principal, id string, input OfferingInput) (*domain.ServiceOffering, error)
	Delete(ctx context.Context, actor domain.Principal, id string) error
	Get(ctx context.Context, id string) (*domain.ServiceOffering, error)
	ListByOwner(ctx context.Context, providerID string) ([]*domain.ServiceOffering, error)
	ListAll(ctx context.Context) ([]*domain.ServiceOffering, error)
}
