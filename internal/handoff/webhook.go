package handoff

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apphttp "realia_backend/internal/http"
	"realia_backend/platform/logger"
)

// LeadDirectory resolves handoff leads to their phone, for staff replies
// flowing back out.
type LeadDirectory interface {
	LeadPhone(ctx context.Context, leadID uuid.UUID) (string, error)
}

// StaffReplyRecorder appends a relayed staff message to the lead's
// conversation history.
type StaffReplyRecorder interface {
	RecordStaffMessage(ctx context.Context, leadID uuid.UUID, text string) error
}

// The library's update type predates forum topics, so the webhook binds its
// own minimal shape.
type threadUpdate struct {
	Message *struct {
		MessageThreadID int64  `json:"message_thread_id"`
		Text            string `json:"text"`
		From            *struct {
			IsBot     bool   `json:"is_bot"`
			FirstName string `json:"first_name"`
		} `json:"from"`
	} `json:"message"`
}

// Module receives Telegram updates for handoff threads.
type Module struct {
	manager  *Manager
	sender   TextSender
	leads    LeadDirectory
	recorder StaffReplyRecorder
	log      *logger.Logger
}

// NewModule creates the handoff webhook module.
func NewModule(manager *Manager, sender TextSender, leads LeadDirectory, recorder StaffReplyRecorder, log *logger.Logger) *Module {
	return &Module{manager: manager, sender: sender, leads: leads, recorder: recorder, log: log}
}

// Name implements http.Module.
func (m *Module) Name() string { return "handoff" }

// RegisterRoutes implements http.Module.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Webhooks.POST("/telegram/webhook", m.handleUpdate)
}

// handleUpdate processes one Telegram update. Always 200: Telegram retries
// on anything else and the failure modes here are not retryable.
func (m *Module) handleUpdate(c *gin.Context) {
	var update threadUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.Status(http.StatusOK)
		return
	}

	msg := update.Message
	if msg == nil || msg.MessageThreadID == 0 || msg.Text == "" || (msg.From != nil && msg.From.IsBot) {
		c.Status(http.StatusOK)
		return
	}

	ctx := c.Request.Context()
	h, err := m.manager.ActiveByThread(ctx, msg.MessageThreadID)
	if errors.Is(err, ErrNotFound) {
		c.Status(http.StatusOK)
		return
	}
	if err != nil {
		m.log.Error("resolve thread", "thread_id", msg.MessageThreadID, "error", err)
		c.Status(http.StatusOK)
		return
	}

	phone, err := m.leads.LeadPhone(ctx, h.LeadID)
	if err != nil {
		m.log.Error("resolve lead phone", "lead_id", h.LeadID, "error", err)
		c.Status(http.StatusOK)
		return
	}

	if isClose, note := ParseCloseCommand(msg.Text); isClose {
		if err := m.manager.Close(ctx, h, note, phone); err != nil {
			m.log.Error("close handoff", "handoff_id", h.ID, "error", err)
		}
		c.Status(http.StatusOK)
		return
	}

	// Staff reply: out to the lead, into the history.
	if err := m.sender.SendText(ctx, phone, msg.Text); err != nil {
		m.log.WithPhone(phone).Error("relay staff reply", "error", err)
		c.Status(http.StatusOK)
		return
	}
	if err := m.recorder.RecordStaffMessage(ctx, h.LeadID, msg.Text); err != nil {
		m.log.Warn("record staff reply", "lead_id", h.LeadID, "error", err)
	}
	c.Status(http.StatusOK)
}
