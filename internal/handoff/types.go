// Package handoff connects a lead to a human through an external
// discussion thread, suspending the automated flow while active.
package handoff

import (
	"time"

	"github.com/google/uuid"
)

// Handoff states.
const (
	StatusPending   = "pending"   // created, thread not opened yet
	StatusActive    = "active"    // thread open, relay in both directions
	StatusCompleted = "completed" // terminal
)

// Handoff is one lead-to-human escalation.
type Handoff struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	ProjectID   uuid.UUID
	DeveloperID uuid.UUID
	Trigger     string
	Status      string
	Summary     string
	ThreadID    *int64
	StartedAt   *time.Time
	CompletedAt *time.Time
	Note        *string
	CreatedAt   time.Time
}

// Open reports whether the handoff still suspends the automated flow.
func (h Handoff) Open() bool {
	return h.Status == StatusPending || h.Status == StatusActive
}
