package session

import (
	"context"

	"github.com/google/uuid"

	"realia_backend/internal/events"
	"realia_backend/platform/apperr"
	"realia_backend/platform/logger"
)

// historyLimit is how many recent turns feed the prompt context.
const historyLimit = 20

// Service manages conversation sessions and their lead rows.
type Service struct {
	repo     *Repository
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the session service.
func NewService(repo *Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// GetOrCreate loads the phone's session for a project, creating the session
// and lead on first contact. A LeadCreated event is published exactly once
// per lead.
func (s *Service) GetOrCreate(ctx context.Context, developerID, projectID uuid.UUID, phone string) (Session, error) {
	sess, leadCreated, err := s.repo.GetOrCreate(ctx, developerID, projectID, phone)
	if err != nil {
		return Session{}, apperr.Wrap(apperr.KindInternal, "get or create session", err)
	}

	if leadCreated {
		s.log.WithPhone(phone).Info("lead created",
			"lead_id", sess.LeadID,
			"project_id", projectID,
		)
		s.eventBus.Publish(ctx, events.LeadCreated{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      sess.LeadID,
			DeveloperID: developerID,
			ProjectID:   projectID,
			Phone:       phone,
		})
	}

	if err := s.repo.TouchLeadActivity(ctx, sess.LeadID); err != nil {
		s.log.WithPhone(phone).Warn("touch lead activity failed", "error", err)
	}
	return sess, nil
}

// RecordInbound appends a lead message to the history.
func (s *Service) RecordInbound(ctx context.Context, sessionID uuid.UUID, content string) error {
	return s.repo.AppendMessage(ctx, sessionID, RoleUser, SenderLead, content)
}

// RecordReply appends a generated reply to the history.
func (s *Service) RecordReply(ctx context.Context, sessionID uuid.UUID, content string) error {
	return s.repo.AppendMessage(ctx, sessionID, RoleAssistant, SenderBot, content)
}

// RecordStaffReply appends a human operator's relayed message.
func (s *Service) RecordStaffReply(ctx context.Context, sessionID uuid.UUID, content string) error {
	return s.repo.AppendMessage(ctx, sessionID, RoleAssistant, SenderStaff, content)
}

// RecordStaffMessage is RecordStaffReply addressed by lead instead of
// session, for staff replies arriving from the handoff thread.
func (s *Service) RecordStaffMessage(ctx context.Context, leadID uuid.UUID, content string) error {
	sess, err := s.repo.GetByLead(ctx, leadID)
	if err != nil {
		return apperr.Wrap(apperr.KindNotFound, "session for lead", err)
	}
	return s.RecordStaffReply(ctx, sess.ID, content)
}

// History returns the recent turns, oldest first.
func (s *Service) History(ctx context.Context, sessionID uuid.UUID) ([]HistoryMessage, error) {
	return s.repo.History(ctx, sessionID, historyLimit)
}
