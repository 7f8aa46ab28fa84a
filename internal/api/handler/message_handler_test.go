package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/simplify/marketplace-api/internal/core/domain"
)

type stubMessageService struct {
	appendFn func(ctx context.Context, actor domain.Principal, requestID, recipientID, content string) (*domain.Message, error)
	listFn   func(ctx context.Context, actor domain.Principal, requestID string) ([]*domain.Message, error)
}

func (s *stubMessageService) Append(ctx context.Context, a domain.Principal, requestID, recipientID, content string) (*domain.Message, error) {
	return s.appendFn(ctx, a, requestID, recipientID, content)
}

func (s *stubMessageService) ListFor(ctx context.Context, a domain.Principal, requestID string) ([]*domain.Message, error) {
	return s.listFn(ctx, a, requestID)
}

func TestMessageHandler_Send(t *testing.T) {
	h := NewMessageHandler(&stubMessageService{
		appendFn: func(_ context.Context, a domain.Principal, requestID, recipientID, content string) (*domain.Message, error) {
			if a.Subject != "client-1" || requestID != "req-1" || recipientID != "provider-1" || content != "hello" {
				t.Fatalf("unexpected args: %s %s %s %q", a.Subject, requestID, recipientID, content)
			}
			return &domain.Message{
				ID: "msg-1", RequestID: requestID, SenderID: a.Subject,
				RecipientID: recipientID, Content: content, CreatedAt: handlerNow,
			}, nil
		},
	})

	c, rec := newContext(http.MethodPost, "/v1/requests/req-1/messages", `{"recipient_id":"provider-1","content":"hello"}`, &clientPrincipal)
	c.SetParamNames("id")
	c.SetParamValues("req-1")
	if err := h.Send(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if resp := decode(t, rec); resp["sender_id"] != "client-1" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestMessageHandler_Send_Forbidden(t *testing.T) {
	h := NewMessageHandler(&stubMessageService{
		appendFn: func(context.Context, domain.Principal, string, string, string) (*domain.Message, error) {
			return nil, domain.ErrForbidden
		},
	})

	c, _ := newContext(http.MethodPost, "/v1/requests/req-1/messages", `{"recipient_id":"x","content":"hi"}`, &clientPrincipal)
	if err := h.Send(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestMessageHandler_List_EmptyIsArray(t *testing.T) {
	h := NewMessageHandler(&stubMessageService{
		listFn: func(context.Context, domain.Principal, string) ([]*domain.Message, error) {
			return []*domain.Message{}, nil
		},
	})

	c, rec := newContext(http.MethodGet, "/v1/requests/req-1/messages", "", &providerPrincipal)
	if err := h.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}
