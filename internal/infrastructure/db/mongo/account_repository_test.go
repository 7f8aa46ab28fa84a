package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

func TestMongoAccount_StoresDatesAndMatchingProfile(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 250*int(time.Millisecond), time.UTC)
	account := &domain.Account{
		ID:           "acc-1",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		Role:         domain.RoleClient,
		Profile:      domain.ClientProfile{FullName: "Alice Doe"},
		CreatedAt:    created,
		UpdatedAt:    created,
	}

	raw, err := bson.Marshal(toMongoAccount(account))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	doc := bson.Raw(raw)
	if got := doc.Lookup("created_at").Type; got != bson.TypeDateTime {
		t.Fatalf("expected created_at stored as a date, got %v", got)
	}
	if !doc.Lookup("provider").IsZero() {
		t.Fatal("expected no provider subdocument on a client")
	}

	var stored mongoAccount
	if err := bson.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back := stored.toDomain()
	if !back.CreatedAt.Equal(created) || !back.UpdatedAt.Equal(created) {
		t.Fatalf("expected timestamps %v, got %v / %v", created, back.CreatedAt, back.UpdatedAt)
	}
	if p, ok := back.ClientProfile(); !ok || p.FullName != "Alice Doe" {
		t.Fatalf("expected the client profile, got %#v", back.Profile)
	}
}

func TestMongoAccount_AdminReadsBackAdminProfile(t *testing.T) {
	back := mongoAccount{ID: "acc-1", Role: string(domain.RoleAdmin)}.toDomain()
	if _, ok := back.Profile.(domain.AdminProfile); !ok {
		t.Fatalf("expected AdminProfile, got %#v", back.Profile)
	}
}

func TestStaleProfiles(t *testing.T) {
	cases := map[domain.Role][]string{
		domain.RoleClient:   {"provider"},
		domain.RoleProvider: {"client"},
		domain.RoleAdmin:    {"client", "provider"},
	}
	for role, want := range cases {
		got := staleProfiles(role)
		if len(got) != len(want) {
			t.Errorf("%s: expected %v unset, got %v", role, want, got)
			continue
		}
		for _, field := range want {
			if _, ok := got[field]; !ok {
				t.Errorf("%s: expected %q unset, got %v", role, field, got)
			}
		}
	}
}
