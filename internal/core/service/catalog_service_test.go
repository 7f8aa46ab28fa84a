package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

func newCatalogSvc(m *memStore) *CatalogService {
	svc := NewCatalogService(m.stores(), discardLogger)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestCatalogService_Create(t *testing.T) {
	m := seededStore()
	svc := newCatalogSvc(m)

	o, err := svc.Create(context.Background(), asProvider, ports.OfferingInput{Name: " Painting ", Price: 120})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if o.ID == "" || o.ProviderID != providerX || o.Name != "Painting" {
		t.Errorf("unexpected offering: %+v", o)
	}

	if _, err := svc.Create(context.Background(), asClient, ports.OfferingInput{Name: "x"}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("client: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Create(context.Background(), asProvider, ports.OfferingInput{Name: " "}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("blank name: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Create(context.Background(), asProvider, ports.OfferingInput{Name: "x", Price: -1}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("negative price: expected ErrValidation, got %v", err)
	}
}

func TestCatalogService_Update_OwnerOnly(t *testing.T) {
	m := seededStore()
	svc := newCatalogSvc(m)
	in := ports.OfferingInput{Name: "Pipes", Price: 60}

	if _, err := svc.Update(context.Background(), asStranger, "off-x", in); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other provider: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Update(context.Background(), asAdmin, "off-x", in); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("admin: expected ErrForbidden, got %v", err)
	}
	o, err := svc.Update(context.Background(), asProvider, "off-x", in)
	if err != nil {
		t.Fatalf("owner: expected no error, got %v", err)
	}
	if o.Name != "Pipes" || o.Price != 60 || !o.UpdatedAt.Equal(fixedNow) {
		t.Errorf("unexpected offering: %+v", o)
	}
}

func TestCatalogService_Delete_Cascades(t *testing.T) {
	m := seededStore()
	m.offerings["off-y"] = &domain.ServiceOffering{ID: "off-y", ProviderID: providerX, Name: "Other"}
	m.putRequest("r1", domain.StatePending)
	m.putRequest("r2", domain.StateFinalized)
	m.putRequest("r3", domain.StatePending)
	m.requests["r3"].OfferingID = "off-y"
	m.putMessage("r1", "a")
	m.putMessage("r2", "b")
	m.putMessage("r3", "c")
	svc := newCatalogSvc(m)

	if err := svc.Delete(context.Background(), asProvider, "off-x"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := m.offerings["off-x"]; ok {
		t.Error("expected offering deleted")
	}
	for _, id := range []string{"r1", "r2"} {
		if _, ok := m.request(id); ok {
			t.Errorf("expected %s deleted", id)
		}
		if m.messageCount(id) != 0 {
			t.Errorf("expected %s messages purged", id)
		}
	}
	if _, ok := m.request("r3"); !ok || m.messageCount("r3") != 1 {
		t.Error("expected unrelated request and messages kept")
	}
	if m.txCount != 1 {
		t.Errorf("expected one transaction, got %d", m.txCount)
	}
}

func TestCatalogService_Delete_AdminAndForbidden(t *testing.T) {
	m := seededStore()
	svc := newCatalogSvc(m)

	if err := svc.Delete(context.Background(), asStranger, "off-x"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("other provider: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(context.Background(), asAdmin, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), asAdmin, "off-x"); err != nil {
		t.Errorf("admin: expected no error, got %v", err)
	}
}

func TestCatalogService_Lists(t *testing.T) {
	m := seededStore()
	m.offerings["off-y"] = &domain.ServiceOffering{ID: "off-y", ProviderID: providerY, Name: "Gardening"}
	svc := newCatalogSvc(m)

	all, err := svc.ListAll(context.Background())
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 offerings, got %d (%v)", len(all), err)
	}
	mine, err := svc.ListByOwner(context.Background(), providerY)
	if err != nil || len(mine) != 1 || mine[0].ID != "off-y" {
		t.Fatalf("unexpected owner listing: %+v (%v)", mine, err)
	}
	none, err := svc.ListByOwner(context.Background(), "nobody")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil listing, got %#v (%v)", none, err)
	}
	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
