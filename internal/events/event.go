// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"realia_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a first-contact message creates a lead.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	DeveloperID uuid.UUID `json:"developerId"`
	ProjectID   uuid.UUID `json:"projectId"`
	Phone       string    `json:"phone"`
}

func (e LeadCreated) EventName() string { return "leads.created" }

// LeadRequalified is published after a qualification merge recomputes the score.
type LeadRequalified struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	DeveloperID uuid.UUID `json:"developerId"`
	ProjectID   uuid.UUID `json:"projectId"`
	OldScore    string    `json:"oldScore"`
	NewScore    string    `json:"newScore"`
	Summary     string    `json:"summary"`
}

func (e LeadRequalified) EventName() string { return "leads.requalified" }

// LeadWentQuiet is published when a lead exchange completes, so the
// nurturing scheduler can queue a follow-up.
type LeadWentQuiet struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	DeveloperID uuid.UUID `json:"developerId"`
	Phone       string    `json:"phone"`
}

func (e LeadWentQuiet) EventName() string { return "leads.went_quiet" }

// =============================================================================
// Handoff Domain Events
// =============================================================================

// HandoffOpened is published when a handoff thread becomes active.
type HandoffOpened struct {
	BaseEvent
	HandoffID   uuid.UUID `json:"handoffId"`
	LeadID      uuid.UUID `json:"leadId"`
	DeveloperID uuid.UUID `json:"developerId"`
	Trigger     string    `json:"trigger"`
}

func (e HandoffOpened) EventName() string { return "handoff.opened" }

// HandoffClosed is published when a staff member closes a handoff.
type HandoffClosed struct {
	BaseEvent
	HandoffID uuid.UUID `json:"handoffId"`
	LeadID    uuid.UUID `json:"leadId"`
	Note      string    `json:"note,omitempty"`
}

func (e HandoffClosed) EventName() string { return "handoff.closed" }

// =============================================================================
// Identity / Content Events
// =============================================================================

// ContactActivated is published when a pending authorized number enters the
// active state via its activation code.
type ContactActivated struct {
	BaseEvent
	ContactID   uuid.UUID `json:"contactId"`
	DeveloperID uuid.UUID `json:"developerId"`
	Phone       string    `json:"phone"`
	Role        string    `json:"role"`
}

func (e ContactActivated) EventName() string { return "identity.contact.activated" }

// DocumentStored is published when an uploaded document finishes filing.
type DocumentStored struct {
	BaseEvent
	DocumentID uuid.UUID `json:"documentId"`
	ProjectID  uuid.UUID `json:"projectId"`
	Category   string    `json:"category"`
	Unit       *string   `json:"unit,omitempty"`
	UploadedBy string    `json:"uploadedBy"`
}

func (e DocumentStored) EventName() string { return "documents.stored" }

// ProjectImported is published when a CSV import commits a new project.
type ProjectImported struct {
	BaseEvent
	ProjectID    uuid.UUID `json:"projectId"`
	DeveloperID  uuid.UUID `json:"developerId"`
	Slug         string    `json:"slug"`
	UnitsCreated int       `json:"unitsCreated"`
}

func (e ProjectImported) EventName() string { return "projects.imported" }
