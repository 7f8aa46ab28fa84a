package domain

import (
	"fmt"
	"time"
)

// RequestState represents the lifecycle state of a service request.
type RequestState string

const (
	StatePending   RequestState = "PENDING"
	StateAccepted  RequestState = "ACCEPTED"
	StateRejected  RequestState = "REJECTED"
	StateFinalized RequestState = "FINALIZED"
)

// validTransitions defines the allowed state machine transitions.
// REJECTED and FINALIZED are terminal.
var validTransitions = map[RequestState][]RequestState{
	StatePending:  {StateAccepted, StateRejected},
	StateAccepted: {StateFinalized},
}

// CanTransitionTo reports whether a transition from current state to next is valid.
func (s RequestState) CanTransitionTo(next RequestState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s RequestState) Terminal() bool {
	return len(validTransitions[s]) == 0
}

// Listed reports whether requests in state s appear in client/provider listings.
func (s RequestState) Listed() bool {
	return s != StateRejected
}

// ParseRequestState converts user input into a known state.
func ParseRequestState(v string) (RequestState, error) {
	switch s := RequestState(v); s {
	case StatePending, StateAccepted, StateRejected, StateFinalized:
		return s, nil
	}
	return "", Validationf("unknown state %q", v)
}

// TransitionError reports a state machine rule violation.
type TransitionError struct {
	From RequestState
	To   RequestState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s (from %s to %s)", ErrIllegalTransition, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }

// CheckTransition returns a *TransitionError when from→to is not allowed.
func CheckTransition(from, to RequestState) error {
	if !from.CanTransitionTo(to) {
		return &TransitionError{From: from, To: to}
	}
	return nil
}

// ServiceRequest is the core aggregate root: a client's ask to receive one
// catalog-listed service from its owning provider.
type ServiceRequest struct {
	ID         string       `json:"id" bson:"_id"`
	ClientID   string       `json:"client_id" bson:"client_id"`
	OfferingID string       `json:"offering_id" bson:"offering_id"`
	ProviderID string       `json:"provider_id" bson:"provider_id"`
	State      RequestState `json:"state" bson:"state"`
	Rated      bool         `json:"rated" bson:"rated"`
	CreatedAt  time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" bson:"updated_at"`
}

// IsParticipant reports whether accountID is the request's client or provider.
func (r *ServiceRequest) IsParticipant(accountID string) bool {
	return accountID != "" && (accountID == r.ClientID || accountID == r.ProviderID)
}

// Counterpart returns the other participant, or "" when accountID is not one.
func (r *ServiceRequest) Counterpart(accountID string) string {
	switch accountID {
	case r.ClientID:
		return r.ProviderID
	case r.ProviderID:
		return r.ClientID
	}
	return ""
}
