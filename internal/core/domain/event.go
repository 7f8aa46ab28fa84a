package domain

import "time"

// EventType names a committed lifecycle change.
type EventType string

const (
	EventRequestCreated   EventType = "request.created"
	EventRequestAccepted  EventType = "request.accepted"
	EventRequestRejected  EventType = "request.rejected"
	EventRequestFinalized EventType = "request.finalized"
	EventRequestDeleted   EventType = "request.deleted"
	EventRequestRated     EventType = "request.rated"
)

// LifecycleEvent is emitted after a lifecycle change has been committed.
type LifecycleEvent struct {
	Type       EventType    `json:"type"`
	RequestID  string       `json:"request_id"`
	ClientID   string       `json:"client_id"`
	ProviderID string       `json:"provider_id"`
	OfferingID string       `json:"offering_id"`
	State      RequestState `json:"state,omitempty"`
	Actor      string       `json:"actor"`
	OccurredAt time.Time    `json:"occurred_at"`
}

// NewLifecycleEvent builds an event describing r after a change made by actor.
func NewLifecycleEvent(t EventType, r *ServiceRequest, actor string, at time.Time) LifecycleEvent {
	return LifecycleEvent{
		Type:       t,
		RequestID:  r.ID,
		ClientID:   r.ClientID,
		ProviderID: r.ProviderID,
		OfferingID: r.OfferingID,
		State:      r.State,
		Actor:      actor,
		OccurredAt: at,
	}
}
