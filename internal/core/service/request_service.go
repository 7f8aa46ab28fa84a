package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/simplify/marketplace-api/internal/core/domain"
	"github.com/simplify/marketplace-api/internal/core/ports"
)

// RequestOptions tunes the lifecycle engine.
type RequestOptions struct {
	// RetainRejected keeps rejected requests as hidden REJECTED rows instead
	// of deleting them.
	RetainRejected bool
}

// A call that finds its idempotency key held by another in-flight create
// waits up to attempts*interval for the request id before giving up.
const (
	defaultIdemPollInterval = 50 * time.Millisecond
	defaultIdemPollAttempts = 20
)

// RequestService is the request lifecycle engine. Every transition reads the
// current state, validates it against the state machine and commits it as a
// conditional write, so a concurrent writer loses with
// domain.ErrConcurrentModification instead of overwriting.
type RequestService struct {
	stores    Stores
	publisher ports.EventPublisher
	idem      ports.IdempotencyStore
	opts      RequestOptions
	now       func() time.Time
	log       zerolog.Logger

	idemPollInterval time.Duration
	idemPollAttempts int
}

func NewRequestService(stores Stores, publisher ports.EventPublisher, idem ports.IdempotencyStore, opts RequestOptions, log zerolog.Logger) *RequestService {
	return &RequestService{
		stores:    stores,
		publisher: publisherOrNop(publisher),
		idem:      idem,
		opts:      opts,
		now:       utcNow,
		log:       log,

		idemPollInterval: defaultIdemPollInterval,
		idemPollAttempts: defaultIdemPollAttempts,
	}
}

// Create opens a PENDING request. If an idempotency key is provided and
// already seen, the previously created request is returned without side
// effects. The key is reserved before anything is written, so concurrent
// calls with the same key create at most one request.
func (s *RequestService) Create(ctx context.Context, actor domain.Principal, in ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
	if err := domain.Authorize(actor.Role, domain.RoleClient); err != nil {
		return nil, err
	}
	if actor.Subject != in.ClientID {
		return nil, domain.ErrForbidden
	}

	reserved := false
	if in.IdempotencyKey != "" && s.idem != nil {
		existing, ok, err := s.reserve(ctx, in)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return &ports.CreateRequestResult{Request: existing, AlreadyExisted: true}, nil
		}
		reserved = ok
	}

	req, err := s.create(ctx, in)
	if err != nil {
		if reserved {
			if rerr := s.idem.Release(context.WithoutCancel(ctx), in.ClientID, in.IdempotencyKey); rerr != nil {
				s.log.Warn().Err(rerr).Str("idempotency_key", in.IdempotencyKey).Msg("failed to release idempotency key")
			}
		}
		return nil, err
	}

	if reserved {
		if err := s.idem.Complete(ctx, in.ClientID, in.IdempotencyKey, req.ID); err != nil {
			s.log.Warn().Err(err).Str("request_id", req.ID).Msg("failed to store idempotency key")
		}
	}

	s.log.Info().Str("request_id", req.ID).Str("client_id", req.ClientID).Str("offering_id", req.OfferingID).Msg("request created")
	s.publish(ctx, domain.EventRequestCreated, req, actor)

	return &ports.CreateRequestResult{Request: req}, nil
}

func (s *RequestService) create(ctx context.Context, in ports.CreateRequestInput) (*domain.ServiceRequest, error) {
	exists, err := s.stores.Accounts.ExistsByID(ctx, in.ClientID)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if !exists {
		return nil, domain.ErrAccountNotFound
	}
	offering, err := s.stores.Offerings.FindByID(ctx, in.OfferingID)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	now := s.now()
	req := &domain.ServiceRequest{
		ClientID:   in.ClientID,
		OfferingID: offering.ID,
		ProviderID: offering.ProviderID,
		State:      domain.StatePending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.stores.Requests.Create(ctx, req); err != nil {
		s.log.Error().Err(err).Str("client_id", in.ClientID).Msg("failed to create request")
		return nil, fmt.Errorf("create request: %w", err)
	}
	return req, nil
}

// reserve claims the idempotency key. It returns the earlier request when the
// key was already completed, waits briefly while another call holds the key,
// and reports reserved=false without error when the store is unreachable so
// creation proceeds unprotected.
func (s *RequestService) reserve(ctx context.Context, in ports.CreateRequestInput) (*domain.ServiceRequest, bool, error) {
	id, reserved, err := s.idem.Reserve(ctx, in.ClientID, in.IdempotencyKey)
	if err != nil {
		s.log.Warn().Err(err).Str("idempotency_key", in.IdempotencyKey).Msg("idempotency reserve failed, creating anyway")
		return nil, false, nil
	}
	if reserved {
		return nil, true, nil
	}

	for attempt := 0; id == "" && attempt < s.idemPollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, false, ctx.Err()
		case <-time.After(s.idemPollInterval):
		}
		if id, err = s.idem.Lookup(ctx, in.ClientID, in.IdempotencyKey); err != nil {
			return nil, false, fmt.Errorf("create request: %w", err)
		}
	}
	if id == "" {
		return nil, false, domain.ErrIdempotencyInFlight
	}

	existing, err := s.stores.Requests.FindByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("replay request: %w", err)
	}
	s.log.Info().Str("idempotency_key", in.IdempotencyKey).Str("request_id", id).Msg("idempotent replay")
	return existing, false, nil
}

// Get returns a request visible to actor. Retained rejected requests are
// only visible to administrators.
func (s *RequestService) Get(ctx context.Context, actor domain.Principal, id string) (*domain.ServiceRequest, error) {
	req, err := s.stores.Requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if actor.IsAdmin() {
		return req, nil
	}
	if !req.IsParticipant(actor.Subject) {
		return nil, domain.ErrForbidden
	}
	if !req.State.Listed() {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *RequestService) ListForClient(ctx context.Context, actor domain.Principal, clientID string, in ports.ListRequestsInput) (*ports.ListRequestsResult, error) {
	if !actor.IsAdmin() && (actor.Role != domain.RoleClient || actor.Subject != clientID) {
		return nil, domain.ErrForbidden
	}
	return s.list(ctx, ports.ListRequestsFilter{ClientID: clientID}, in)
}

func (s *RequestService) ListForProvider(ctx context.Context, actor domain.Principal, providerID string, in ports.ListRequestsInput) (*ports.ListRequestsResult, error) {
	if !actor.IsAdmin() && (actor.Role != domain.RoleProvider || actor.Subject != providerID) {
		return nil, domain.ErrForbidden
	}
	return s.list(ctx, ports.ListRequestsFilter{ProviderID: providerID}, in)
}

func (s *RequestService) list(ctx context.Context, filter ports.ListRequestsFilter, in ports.ListRequestsInput) (*ports.ListRequestsResult, error) {
	if in.State != "" {
		state, err := domain.ParseRequestState(in.State)
		if err != nil {
			return nil, err
		}
		filter.State = state
	}
	filter.Page, filter.Limit = normalizePage(in.Page, in.Limit)

	items, total, err := s.stores.Requests.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	if items == nil {
		items = []*domain.ServiceRequest{}
	}
	return &ports.ListRequestsResult{
		Items:      items,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages(total, filter.Limit),
	}, nil
}

// SetState applies a provider decision to a request.
func (s *RequestService) SetState(ctx context.Context, actor domain.Principal, id string, target domain.RequestState) (*domain.ServiceRequest, error) {
	switch target {
	case domain.StateAccepted:
		return s.transition(ctx, actor, id, target)
	case domain.StateRejected:
		return s.reject(ctx, actor, id)
	case domain.StateFinalized:
		return s.Finalize(ctx, actor, id)
	}
	return nil, domain.Validationf("state must be %s, %s or %s", domain.StateAccepted, domain.StateRejected, domain.StateFinalized)
}

// Finalize moves an ACCEPTED request to FINALIZED.
func (s *RequestService) Finalize(ctx context.Context, actor domain.Principal, id string) (*domain.ServiceRequest, error) {
	return s.transition(ctx, actor, id, domain.StateFinalized)
}

func (s *RequestService) transition(ctx context.Context, actor domain.Principal, id string, to domain.RequestState) (*domain.ServiceRequest, error) {
	req, err := s.loadForProvider(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	from := req.State
	if err := domain.CheckTransition(from, to); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.stores.Requests.TransitionState(ctx, id, from, to, now); err != nil {
		return nil, fmt.Errorf("transition request: %w", err)
	}
	req.State = to
	req.UpdatedAt = now

	s.log.Info().Str("request_id", id).Str("from", string(from)).Str("to", string(to)).Str("actor", actor.Subject).Msg("request transitioned")
	s.publish(ctx, eventForState(to), req, actor)
	return req, nil
}

// reject disposes of a PENDING request. By default the request and its
// messages are deleted; with RetainRejected it is kept as REJECTED.
func (s *RequestService) reject(ctx context.Context, actor domain.Principal, id string) (*domain.ServiceRequest, error) {
	if s.opts.RetainRejected {
		return s.transition(ctx, actor, id, domain.StateRejected)
	}

	req, err := s.loadForProvider(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckTransition(req.State, domain.StateRejected); err != nil {
		return nil, err
	}

	err = s.stores.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.stores.Messages.DeleteByRequest(ctx, id); err != nil {
			return fmt.Errorf("purge messages: %w", err)
		}
		return s.stores.Requests.DeleteInState(ctx, id, domain.StatePending)
	})
	if err != nil {
		return nil, fmt.Errorf("reject request: %w", err)
	}

	req.State = domain.StateRejected
	s.log.Info().Str("request_id", id).Str("actor", actor.Subject).Msg("request rejected and removed")
	s.publish(ctx, domain.EventRequestRejected, req, actor)
	return nil, nil
}

// DeleteIfFinalized removes a FINALIZED request together with its messages.
// It reports false without error when the request is in any other state.
func (s *RequestService) DeleteIfFinalized(ctx context.Context, actor domain.Principal, id string) (bool, error) {
	req, err := s.stores.Requests.FindByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}
	if !actor.IsAdmin() && !req.IsParticipant(actor.Subject) {
		return false, domain.ErrForbidden
	}
	if req.State != domain.StateFinalized {
		return false, nil
	}

	var purged int64
	err = s.stores.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		n, err := s.stores.Messages.DeleteByRequest(ctx, id)
		if err != nil {
			return fmt.Errorf("purge messages: %w", err)
		}
		purged = n
		return s.stores.Requests.DeleteInState(ctx, id, domain.StateFinalized)
	})
	if err != nil {
		return false, fmt.Errorf("delete request: %w", err)
	}

	s.log.Info().Str("request_id", id).Int64("messages_purged", purged).Str("actor", actor.Subject).Msg("finalized request deleted")
	s.publish(ctx, domain.EventRequestDeleted, req, actor)
	return true, nil
}

// loadForProvider authorizes actor as the owning provider of request id.
// The role check runs before any lookup.
func (s *RequestService) loadForProvider(ctx context.Context, actor domain.Principal, id string) (*domain.ServiceRequest, error) {
	if err := domain.Authorize(actor.Role, domain.RoleProvider); err != nil {
		return nil, err
	}
	req, err := s.stores.Requests.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req.ProviderID != actor.Subject {
		return nil, domain.ErrForbidden
	}
	if !req.State.Listed() {
		return nil, domain.ErrRequestNotFound
	}
	return req, nil
}

func (s *RequestService) publish(ctx context.Context, t domain.EventType, req *domain.ServiceRequest, actor domain.Principal) {
	s.publisher.Publish(ctx, domain.NewLifecycleEvent(t, req, actor.Subject, s.now()))
}

func eventForState(state domain.RequestState) domain.EventType {
	switch state {
	case domain.StateAccepted:
		return domain.EventRequestAccepted
	case domain.StateRejected:
		return domain.EventRequestRejected
	case domain.StateFinalized:
		return domain.EventRequestFinalized
	}
	return domain.EventType("request." + string(state))
}

