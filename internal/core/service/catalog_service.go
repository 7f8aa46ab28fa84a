package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

const maxOfferingNameLength = 120

// CatalogService manages the offerings providers publish.
type CatalogService struct {
	stores Stores
	now    func() time.Time
	log    zerolog.Logger
}

func NewCatalogService(stores Stores, log zerolog.Logger) *CatalogService {
	return &CatalogService{stores: stores, now: utcNow, log: log}
}

func (s *CatalogService) Create(ctx context.Context, actor domain.Principal, in ports.OfferingInput) (*domain.ServiceOffering, error) {
	if err := domain.Authorize(actor.Role, domain.RoleProvider); err != nil {
		return nil, err
	}
	in, err := validateOffering(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	o := &domain.ServiceOffering{
		ProviderID:  actor.Subject,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.stores.Offerings.Create(ctx, o); err != nil {
		return nil, fmt.Errorf("create offering: %w", err)
	}

	s.log.Info().Str("offering_id", o.ID).Str("provider_id", o.ProviderID).Msg("offering created")
	return o, nil
}

func (s *CatalogService) Update(ctx context.Context, actor domain.Principal, id string, in ports.OfferingInput) (*domain.ServiceOffering, error) {
	o, err := s.loadOwned(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}
	in, err = validateOffering(in)
	if err != nil {
		return nil, err
	}

	o.Name = in.Name
	o.Description = in.Description
	o.Price = in.Price
	o.UpdatedAt = s.now()
	if err := s.stores.Offerings.Update(ctx, o); err != nil {
		return nil, fmt.Errorf("update offering: %w", err)
	}
	return o, nil
}

// Delete removes an offering together with every request made for it and
// the messages of those requests, in one transaction.
func (s *CatalogService) Delete(ctx context.Context, actor domain.Principal, id string) error {
	o, err := s.loadOwned(ctx, actor, id, true)
	if err != nil {
		return err
	}

	var requests int64
	err = s.stores.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		requests, err = purgeOffering(ctx, s.stores, o.ID)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete offering: %w", err)
	}

	s.log.Info().Str("offering_id", o.ID).Int64("requests_removed", requests).Str("actor", actor.Subject).Msg("offering deleted")
	return nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.ServiceOffering, error) {
	o, err := s.stores.Offerings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get offering: %w", err)
	}
	return o, nil
}

func (s *CatalogService) ListByOwner(ctx context.Context, providerID string) ([]*domain.ServiceOffering, error) {
	items, err := s.stores.Offerings.FindByOwner(ctx, providerID)
	if err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	if items == nil {
		items = []*domain.ServiceOffering{}
	}
	return items, nil
}

func (s *CatalogService) ListAll(ctx context.Context) ([]*domain.ServiceOffering, error) {
	items, err := s.stores.Offerings.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list offerings: %w", err)
	}
	if items == nil {
		items = []*domain.ServiceOffering{}
	}
	return items, nil
}

// loadOwned returns the offering if actor is its provider, or an admin when
// adminAllowed is set.
func (s *CatalogService) loadOwned(ctx context.Context, actor domain.Principal, id string, adminAllowed bool) (*domain.ServiceOffering, error) {
	allowed := []domain.Role{domain.RoleProvider}
	if adminAllowed {
		allowed = append(allowed, domain.RoleAdmin)
	}
	if err := domain.Authorize(actor.Role, allowed...); err != nil {
		return nil, err
	}
	o, err := s.stores.Offerings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load offering: %w", err)
	}
	if !actor.IsAdmin() && !o.OwnedBy(actor.Subject) {
		return nil, domain.ErrForbidden
	}
	return o, nil
}

func validateOffering(in ports.OfferingInput) (ports.OfferingInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return in, domain.Validationf("name must not be blank")
	}
	if len(in.Name) > maxOfferingNameLength {
		return in, domain.Validationf("name exceeds %d characters", maxOfferingNameLength)
	}
	if in.Price < 0 {
		return in, domain.Validationf("price must not be negative")
	}
	return in, nil
}
