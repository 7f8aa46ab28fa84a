package ports

import (
	"context"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

// AccountRepository defines persistence for user accounts.
type AccountRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	ExistsByID(ctx context.Context, id string) (bool, error)
	// Create persists a new account and returns it with its generated ID.
	// A duplicate email yields domain.ErrAccountExists.
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// UpdateRole overrides the role and drops a profile that no longer matches it.
	UpdateRole(ctx context.Context, id string, role domain.Role) error
	DeleteByID(ctx context.Context, id string) error
}
