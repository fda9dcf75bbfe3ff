// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	platformevents "github.com/sanjaykhatri/lead-management-backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = platformevents.Event
	Bus         = platformevents.Bus
	Handler     = platformevents.Handler
	HandlerFunc = platformevents.HandlerFunc
	BaseEvent   = platformevents.BaseEvent
	InMemoryBus = platformevents.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = platformevents.NewBaseEvent
	NewInMemoryBus = platformevents.NewInMemoryBus
)

// ActorRef identifies who performed an action in event payloads.
type ActorRef struct {
	Kind string    `json:"kind"`
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name,omitempty"`
}

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadSubmitted is published when a new lead is captured via the public intake.
type LeadSubmitted struct {
	BaseEvent
	LeadID      uuid.UUID  `json:"leadId"`
	LocationID  uuid.UUID  `json:"locationId"`
	ProviderID  *uuid.UUID `json:"providerId,omitempty"`
	LeadName    string     `json:"leadName"`
	ZipCode     string     `json:"zipCode"`
	ProjectType string     `json:"projectType"`
}

func (e LeadSubmitted) EventName() string { return "leads.submitted" }

// LeadAssigned is published when a lead is assigned or reassigned to a provider.
type LeadAssigned struct {
	BaseEvent
	LeadID           uuid.UUID  `json:"leadId"`
	LocationID       uuid.UUID  `json:"locationId"`
	PreviousProvider *uuid.UUID `json:"previousProvider,omitempty"`
	NewProvider      uuid.UUID  `json:"newProvider"`
	ProviderName     string     `json:"providerName"`
	LeadName         string     `json:"leadName"`
	AssignedBy       *ActorRef  `json:"assignedBy,omitempty"`
}

func (e LeadAssigned) EventName() string { return "leads.assigned" }

// LeadStatusChanged is published when a lead moves to a new status.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	ProviderID *uuid.UUID `json:"providerId,omitempty"`
	OldStatus  string     `json:"oldStatus"`
	NewStatus  string     `json:"newStatus"`
	ChangedBy  ActorRef   `json:"changedBy"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }

// LeadNoteCreated is published when a note is added to a lead.
type LeadNoteCreated struct {
	BaseEvent
	LeadID     uuid.UUID  `json:"leadId"`
	NoteID     uuid.UUID  `json:"noteId"`
	ProviderID *uuid.UUID `json:"providerId,omitempty"`
	Author     ActorRef   `json:"author"`
	NoteType   string     `json:"noteType"`
}

func (e LeadNoteCreated) EventName() string { return "leads.note.created" }

// =============================================================================
// Billing Domain Events
// =============================================================================

// SubscriptionChanged is published after the reconciler mutates local
// subscription state (checkout, webhook, plan change).
type SubscriptionChanged struct {
	BaseEvent
	ProviderID uuid.UUID  `json:"providerId"`
	PlanID     *uuid.UUID `json:"planId,omitempty"`
	EventType  string     `json:"eventType"` // created | updated | canceled | upgraded | downgraded
	OldStatus  string     `json:"oldStatus,omitempty"`
	NewStatus  string     `json:"newStatus"`
}

func (e SubscriptionChanged) EventName() string { return "billing.subscription.changed" }

// =============================================================================
// Scheduler Events
// =============================================================================

// NotificationOutboxDue is published by the scheduler worker when a buffered
// broadcast record comes due for delivery.
type NotificationOutboxDue struct {
	BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDue) EventName() string { return "notification.outbox.due" }
