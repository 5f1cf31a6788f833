// Package events broadcasts change events to interested sinks after a
// workflow has committed. Delivery is best-effort: events are queued on a
// bounded buffer, retried a few times per sink and then dropped.
package events

import (
	"context"
	"time"
)

// Name identifies the kind of change.
type Name string

const (
	GroupCreated              Name = "group:created"
	GroupInvitation           Name = "group:invitation"
	GroupInvitationResponse   Name = "group:invitation_response"
	GroupModificationProposed Name = "group:modification_proposed"
	GroupModificationResponse Name = "group:modification_response"
	GroupMemberLeft           Name = "group:member_left"
	TransactionCreated        Name = "transaction:created"
	TransactionUpdated        Name = "transaction:updated"
	TransactionDeleted        Name = "transaction:deleted"
)

// Event describes one committed change.
type Event struct {
	Name           Name      `json:"event"`
	ActorID        string    `json:"actorId"`
	GroupID        string    `json:"groupId,omitempty"`
	InvitationID   string    `json:"invitationId,omitempty"`
	ModificationID string    `json:"modificationId,omitempty"`
	TransactionID  string    `json:"transactionId,omitempty"`
	Status         string    `json:"status,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
}

// Publisher accepts events for delivery. Publish must not block the caller.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Sink delivers an event to one destination.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev Event) error
}

// Discard is a Publisher that drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}
