package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

type messageService struct {
	requests ports.RequestRepository
	messages ports.MessageRepository
	now      func() time.Time
	log      zerolog.Logger
}

// NewMessageService returns a MessageService implementation.
func NewMessageService(requests ports.RequestRepository, messages ports.MessageRepository, log zerolog.Logger) ports.MessageService {
	return &messageService{
		requests: requests,
		messages: messages,
		now:      utcNow,
		log:      log,
	}
}

// Append validates and stores a single message. Messages are allowed in any
// live request state; sender and recipient must be the request's two
// participants, except for administrators who may write to either one.
func (s *messageService) Append(ctx context.Context, actor domain.Principal, requestID, recipientID, content string) (*domain.Message, error) {
	// 1. Content is checked before any lookup.
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Validationf("content must not be blank")
	}
	if utf8.RuneCountInString(content) > domain.MaxMessageLength {
		return nil, domain.Validationf("content exceeds %d characters", domain.MaxMessageLength)
	}

	// 2. The parent request must be live.
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	if !req.State.Listed() {
		return nil, fmt.Errorf("append message: %w", domain.ErrRequestNotFound)
	}

	// 3. Pairing.
	if actor.IsAdmin() {
		if !req.IsParticipant(recipientID) {
			return nil, domain.ErrForbidden
		}
	} else if !req.IsParticipant(actor.Subject) || req.Counterpart(actor.Subject) != recipientID {
		return nil, domain.ErrForbidden
	}

	msg := &domain.Message{
		RequestID:   requestID,
		SenderID:    actor.Subject,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   s.now(),
	}
	if err := s.messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}

	s.log.Debug().
		Str("request_id", requestID).
		Str("sender_id", msg.SenderID).
		Str("recipient_id", recipientID).
		Msg("message appended")

	return msg, nil
}

// ListFor returns a snapshot of the request's conversation, oldest first.
func (s *messageService) ListFor(ctx context.Context, actor domain.Principal, requestID string) ([]*domain.Message, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if !actor.IsAdmin() {
		if !req.IsParticipant(actor.Subject) {
			return nil, domain.ErrForbidden
		}
		if !req.State.Listed() {
			return nil, fmt.Errorf("list messages: %w", domain.ErrRequestNotFound)
		}
	}

	msgs, err := s.messages.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.Message{}
	}
	return msgs, nil
}
