package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

func newMessageSvc(m *memStore) ports.MessageService {
	svc := NewMessageService(memRequests{m}, memMessages{m}, discardLogger).(*messageService)
	tick := fixedNow
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return svc
}

func TestMessageService_Append_BothDirections(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StatePending)
	svc := newMessageSvc(m)

	msg, err := svc.Append(context.Background(), asClient, "r1", providerX, "  hi there  ")
	if err != nil {
		t.Fatalf("client->provider: %v", err)
	}
	if msg.Content != "hi there" || msg.SenderID != clientID || msg.RecipientID != providerX {
		t.Errorf("unexpected message: %+v", msg)
	}
	if _, err := svc.Append(context.Background(), asProvider, "r1", clientID, "hello"); err != nil {
		t.Fatalf("provider->client: %v", err)
	}
	if m.messageCount("r1") != 2 {
		t.Errorf("expected 2 messages, got %d", m.messageCount("r1"))
	}
}

func TestMessageService_Append_AllowedInEveryLiveState(t *testing.T) {
	for _, state := range []domain.RequestState{domain.StatePending, domain.StateAccepted, domain.StateFinalized} {
		m := seededStore()
		m.putRequest("r1", state)
		if _, err := newMessageSvc(m).Append(context.Background(), asClient, "r1", providerX, "ping"); err != nil {
			t.Errorf("%s: expected no error, got %v", state, err)
		}
	}
}

func TestMessageService_Append_Validation(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StatePending)
	svc := newMessageSvc(m)

	cases := map[string]string{
		"blank":     "   ",
		"too long":  strings.Repeat("x", domain.MaxMessageLength+1),
		"empty":     "",
		"only tabs": "\t\t",
	}
	for name, content := range cases {
		if _, err := svc.Append(context.Background(), asClient, "r1", providerX, content); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%s: expected ErrValidation, got %v", name, err)
		}
	}
	if _, err := svc.Append(context.Background(), asClient, "r1", providerX, strings.Repeat("x", domain.MaxMessageLength)); err != nil {
		t.Errorf("max length: expected no error, got %v", err)
	}
}

func TestMessageService_Append_Pairing(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StatePending)
	svc := newMessageSvc(m)

	cases := []struct {
		name      string
		actor     domain.Principal
		recipient string
	}{
		{"outsider", asOther, providerX},
		{"other provider", asStranger, clientID},
		{"client to self", asClient, clientID},
		{"client to outsider", asClient, providerY},
		{"admin to outsider", asAdmin, otherID},
	}
	for _, tc := range cases {
		if _, err := svc.Append(context.Background(), tc.actor, "r1", tc.recipient, "x"); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", tc.name, err)
		}
	}
	if _, err := svc.Append(context.Background(), asAdmin, "r1", clientID, "note"); err != nil {
		t.Errorf("admin to participant: expected no error, got %v", err)
	}
}

func TestMessageService_Append_MissingOrRejectedRequest(t *testing.T) {
	m := seededStore()
	m.putRequest("gone", domain.StateRejected)
	svc := newMessageSvc(m)

	if _, err := svc.Append(context.Background(), asClient, "missing", providerX, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing: expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Append(context.Background(), asClient, "gone", providerX, "x"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("rejected: expected ErrNotFound, got %v", err)
	}
}

func TestMessageService_ListFor(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StateAccepted)
	svc := newMessageSvc(m)
	for _, content := range []string{"first", "second", "third"} {
		if _, err := svc.Append(context.Background(), asClient, "r1", providerX, content); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	msgs, err := svc.ListFor(context.Background(), asProvider, "r1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(msgs) != 3 || msgs[0].Content != "first" || msgs[2].Content != "third" {
		t.Errorf("expected ascending order, got %+v", msgs)
	}

	if _, err := svc.ListFor(context.Background(), asOther, "r1"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("outsider: expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ListFor(context.Background(), asAdmin, "r1"); err != nil {
		t.Errorf("admin: expected no error, got %v", err)
	}
}

func TestMessageService_ListFor_EmptyIsNotNil(t *testing.T) {
	m := seededStore()
	m.putRequest("r1", domain.StatePending)

	msgs, err := newMessageSvc(m).ListFor(context.Background(), asClient, "r1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("expected empty slice, got %#v", msgs)
	}
}
