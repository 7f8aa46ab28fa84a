package handler

import (
	"time"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// --- Auth ---

type clientProfileRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
	Phone    string `json:"phone"     validate:"max=32"`
	Address  string `json:"address"   validate:"max=255"`
}

type providerProfileRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=120"`
	TaxID       string `json:"tax_id"       validate:"max=32"`
	Description string `json:"description"  validate:"max=1000"`
	Phone       string `json:"phone"        validate:"max=32"`
	Address     string `json:"address"      validate:"max=255"`
}

type registerRequest struct {
	Email    string                  `json:"email"    validate:"required,email"`
	Password string                  `json:"password" validate:"required,min=8"`
	Role     string                  `json:"role"     validate:"required,oneof=CLIENT PROVIDER"`
	Client   *clientProfileRequest   `json:"client"   validate:"required_if=Role CLIENT,omitempty"`
	Provider *providerProfileRequest `json:"provider" validate:"required_if=Role PROVIDER,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

type accountResponse struct {
	ID        string         `json:"id"`
	Email     string         `json:"email"`
	Role      domain.Role    `json:"role"`
	Profile   domain.Profile `json:"profile,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

type authResponse struct {
	Token     string          `json:"token,omitempty"`
	TokenType string          `json:"token_type,omitempty"`
	Account   accountResponse `json:"account"`
}

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=CLIENT PROVIDER ADMIN"`
}

// --- Catalog ---

type offeringRequest struct {
	Name        string  `json:"name"        validate:"required,max=120"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price"       validate:"gte=0"`
}

type offeringResponse struct {
	ID          string    `json:"id"`
	ProviderID  string    `json:"provider_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Requests ---

type createRequestRequest struct {
	ClientID   string `json:"client_id"   validate:"required"`
	OfferingID string `json:"offering_id" validate:"required"`
}

type setStateRequest struct {
	State string `json:"state" validate:"required,oneof=ACCEPTED REJECTED FINALIZED"`
}

type requestLinks struct {
	Self     string `json:"self"`
	Messages string `json:"messages"`
}

type requestResponse struct {
	ID         string       `json:"id"`
	ClientID   string       `json:"client_id"`
	OfferingID string       `json:"offering_id"`
	ProviderID string       `json:"provider_id"`
	State      string       `json:"state"`
	Rated      bool         `json:"rated"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Links      requestLinks `json:"_links"`
}

type listRequestsQuery struct {
	State string `query:"state" validate:"omitempty,oneof=PENDING ACCEPTED FINALIZED"`
	Page  int    `query:"page"  validate:"gte=0"`
	Limit int    `query:"limit" validate:"gte=0"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listRequestsResponse struct {
	Data       []requestResponse  `json:"data"`
	Pagination paginationResponse `json:"pagination"`
}

type rejectedResponse struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// --- Messages and ratings ---

type messageRequest struct {
	RecipientID string `json:"recipient_id" validate:"required"`
	Content     string `json:"content"      validate:"required"`
}

type messageResponse struct {
	ID          string    `json:"id"`
	RequestID   string    `json:"request_id"`
	SenderID    string    `json:"sender_id"`
	RecipientID string    `json:"recipient_id"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

type ratingRequest struct {
	Stars   int    `json:"stars" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

type ratingResponse struct {
	ID         string    `json:"id"`
	RequestID  string    `json:"request_id"`
	ClientID   string    `json:"client_id"`
	ProviderID string    `json:"provider_id"`
	Stars      int       `json:"stars"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type providerRatingsResponse struct {
	ProviderID string           `json:"provider_id"`
	Average    float64          `json:"average"`
	Count      int              `json:"count"`
	Data       []ratingResponse `json:"data"`
}
