package ports

import (
	"context"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// RegisterInput carries the data of a new account. Exactly one of the
// profile fields is used, selected by Role.
type RegisterInput struct {
	Email    string
	Password string
	Role     domain.Role
	Client   *domain.ClientProfile
	Provider *domain.ProviderProfile
}

// TokenValidator resolves a bearer token to the identity it carries.
// Implementations must be free of I/O and shared mutable state.
type TokenValidator interface {
	Validate(token string) (domain.Principal, error)
}

type AuthService interface {
	TokenValidator
	Register(ctx context.Context, input RegisterInput) (*domain.Account, error)
	Authenticate(ctx context.Context, email, password string) (string, *domain.Account, error)
	ChangeRole(ctx context.Context, actor domain.Principal, accountID string, role domain.Role) (*domain.Account, error)
	// DeleteAccount removes an account and cascades to its offerings,
	// requests and messages.
	DeleteAccount(ctx context.Context, actor domain.Principal, accountID string) error
}
