// Package scheduler queues and runs deferred work over asynq.
package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types.
const (
	TypeFollowUp = "nurturing:follow_up"
)

// FollowUpPayload is the nurturing follow-up task body. QuietAt is when the
// lead went quiet; the handler skips the follow-up if the lead wrote again
// after it.
type FollowUpPayload struct {
	LeadID  uuid.UUID `json:"leadId"`
	Phone   string    `json:"phone"`
	QuietAt time.Time `json:"quietAt"`
}

// NewFollowUpTask builds the asynq task for a quiet lead.
func NewFollowUpTask(leadID uuid.UUID, phone string, quietAt time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(FollowUpPayload{LeadID: leadID, Phone: phone, QuietAt: quietAt})
	if err != nil {
		return nil, fmt.Errorf("marshal follow-up payload: %w", err)
	}
	return asynq.NewTask(TypeFollowUp, payload), nil
}
