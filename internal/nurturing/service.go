// Package nurturing re-engages leads that stopped writing mid-conversation.
package nurturing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"realia_backend/internal/events"
	"realia_backend/internal/qualification"
	"realia_backend/internal/scheduler"
	"realia_backend/platform/logger"
)

// FollowUpDelay is how long a lead stays quiet before the nudge.
const FollowUpDelay = 24 * time.Hour

const followUpText = "¡Hola! 👋 Quedé a disposición por si seguís buscando. " +
	"Si querés te mando el brochure o coordinamos una visita cuando te quede cómodo."

// TextSender delivers a WhatsApp message to a phone.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Service schedules and executes follow-ups.
type Service struct {
	tasks  *scheduler.Client
	leads  *qualification.Service
	sender TextSender
	log    *logger.Logger
}

// NewService creates the nurturing service and subscribes it to quiet-lead
// events. tasks may be nil when the scheduler is disabled.
func NewService(tasks *scheduler.Client, leads *qualification.Service, sender TextSender, eventBus events.Bus, log *logger.Logger) *Service {
	s := &Service{tasks: tasks, leads: leads, sender: sender, log: log}
	eventBus.Subscribe("leads.went_quiet", events.HandlerFunc(s.handleWentQuiet))
	return s
}

func (s *Service) handleWentQuiet(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadWentQuiet)
	if !ok {
		return nil
	}
	return s.tasks.EnqueueFollowUp(ctx, e.LeadID, e.Phone, FollowUpDelay)
}

// Type implements scheduler.Handler.
func (s *Service) Type() string { return scheduler.TypeFollowUp }

// Handle runs one follow-up task. The lead's activity is re-checked at run
// time: a lead that wrote after going quiet gets no nudge, which is how a
// follow-up is implicitly cancelled.
func (s *Service) Handle(ctx context.Context, task *asynq.Task) error {
	var payload scheduler.FollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode follow-up payload: %w", err)
	}

	lead, err := s.leads.Get(ctx, payload.LeadID)
	if errors.Is(err, qualification.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}

	if lead.LastMessageAt != nil && lead.LastMessageAt.After(payload.QuietAt) {
		s.log.WithPhone(payload.Phone).Debug("follow-up skipped, lead wrote again",
			"lead_id", payload.LeadID,
		)
		return nil
	}

	if err := s.sender.SendText(ctx, payload.Phone, followUpText); err != nil {
		return fmt.Errorf("send follow-up: %w", err)
	}
	s.log.WithPhone(payload.Phone).Info("follow-up sent", "lead_id", payload.LeadID)
	return nil
}
