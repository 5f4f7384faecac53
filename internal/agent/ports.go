// Package agent defines the generative collaborators of the conversation
// flows and their Gemini-backed implementation.
package agent

import (
	"context"

	"realia_backend/internal/qualification"
)

// Turn is one history entry fed to the model.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// ReplyRequest carries everything the lead responder needs for one turn.
type ReplyRequest struct {
	ProjectContext string
	Known          []string
	Missing        []string
	History        []Turn
	Message        string
}

// Responder generates the lead-facing reply, possibly carrying an inline
// document-send token.
type Responder interface {
	Reply(ctx context.Context, req ReplyRequest) (string, error)
}

// Extractor pulls qualification facts out of one exchange.
type Extractor interface {
	Extract(ctx context.Context, userMessage, reply string) (qualification.Extraction, error)
}

// StaffRequest carries a staff message for action resolution.
type StaffRequest struct {
	ProjectContext string
	UnitList       string
	Message        string
}

// StaffAssistant resolves a staff message into the structured action
// envelope consumed by staffactions.Decode.
type StaffAssistant interface {
	ResolveAction(ctx context.Context, req StaffRequest) ([]byte, error)
}
