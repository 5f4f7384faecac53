package session

import (
	"time"

	"github.com/google/uuid"
)

// Message roles for conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Sender types distinguish who produced a message.
const (
	SenderLead  = "lead"
	SenderBot   = "bot"
	SenderStaff = "staff"
)

// Session tracks an ongoing conversation for a phone within a project.
type Session struct {
	ID             uuid.UUID
	LeadID         uuid.UUID
	DeveloperID    uuid.UUID
	ProjectID      uuid.UUID
	Phone          string
	LastActivityAt time.Time
	CreatedAt      time.Time
}

// HistoryMessage is one stored conversation turn.
type HistoryMessage struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Role       string
	SenderType string
	Content    string
	CreatedAt  time.Time
}
