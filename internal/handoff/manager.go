package handoff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"realia_backend/internal/events"
	"realia_backend/internal/qualification"
	"realia_backend/platform/logger"
)

// CloseCommand is recognized verbatim at the start of a staff message on an
// open thread; trailing text becomes the closing note.
const CloseCommand = "/cerrar"

// Store is the persistence the manager needs, implemented by *Repository.
type Store interface {
	Create(ctx context.Context, leadID, projectID, developerID uuid.UUID, trigger, summary string) (Handoff, error)
	GetByID(ctx context.Context, id uuid.UUID) (Handoff, error)
	GetOpenByLead(ctx context.Context, leadID, projectID uuid.UUID) (Handoff, error)
	GetActiveByThread(ctx context.Context, threadID int64) (Handoff, error)
	MarkActive(ctx context.Context, id uuid.UUID, threadID int64) error
	MarkCompleted(ctx context.Context, id uuid.UUID, note string) (bool, error)
}

// TextSender delivers a plain message to a phone.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Manager drives the handoff lifecycle.
type Manager struct {
	store    Store
	threads  ThreadChannel
	sender   TextSender
	eventBus events.Bus
	log      *logger.Logger
}

// NewManager creates the handoff manager. threads may be nil when the
// thread channel is not configured.
func NewManager(store Store, threads ThreadChannel, sender TextSender, eventBus events.Bus, log *logger.Logger) *Manager {
	return &Manager{store: store, threads: threads, sender: sender, eventBus: eventBus, log: log}
}

// Initiate starts (or resumes) a handoff for a lead. Idempotent per
// (lead, project): an existing active handoff is returned unchanged and no
// second thread is opened. A pending handoff retries the thread open; on
// failure it stays pending for a later retry.
func (m *Manager) Initiate(ctx context.Context, lead qualification.Lead, trigger string) (Handoff, error) {
	summary := qualification.ContextSummary(lead)

	h, err := m.store.GetOpenByLead(ctx, lead.ID, lead.ProjectID)
	if errors.Is(err, ErrNotFound) {
		h, err = m.store.Create(ctx, lead.ID, lead.ProjectID, lead.DeveloperID, trigger, summary)
	}
	if err != nil {
		return Handoff{}, fmt.Errorf("get or create handoff: %w", err)
	}
	if h.Status == StatusActive {
		return h, nil
	}

	threadID, err := m.openThread(ctx, lead, trigger, summary)
	if err != nil {
		m.log.WithPhone(lead.Phone).Warn("thread open failed, handoff stays pending",
			"handoff_id", h.ID,
			"error", err,
		)
		return h, nil
	}

	if err := m.store.MarkActive(ctx, h.ID, threadID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Raced with another activation; reload the winner.
			return m.store.GetByID(ctx, h.ID)
		}
		return Handoff{}, fmt.Errorf("mark active: %w", err)
	}
	h.Status = StatusActive
	h.ThreadID = &threadID

	m.notifyLead(ctx, lead.Phone, "Te estoy conectando con una persona del equipo, en breve te escribe por acá. 🙌")

	m.log.WithPhone(lead.Phone).Info("handoff active",
		"handoff_id", h.ID,
		"thread_id", threadID,
		"trigger", trigger,
	)
	m.eventBus.Publish(ctx, events.HandoffOpened{
		BaseEvent:   events.NewBaseEvent(),
		HandoffID:   h.ID,
		LeadID:      lead.ID,
		DeveloperID: lead.DeveloperID,
		Trigger:     trigger,
	})
	return h, nil
}

// Relay forwards a lead message into the handoff's thread. Only meaningful
// while active.
func (m *Manager) Relay(ctx context.Context, h Handoff, leadName, text string) error {
	if h.Status != StatusActive || h.ThreadID == nil || m.threads == nil {
		return nil
	}
	return m.threads.Post(ctx, *h.ThreadID, fmt.Sprintf("💬 %s: %s", leadName, text))
}

// OpenFor returns the lead's open handoff, or ErrNotFound.
func (m *Manager) OpenFor(ctx context.Context, leadID, projectID uuid.UUID) (Handoff, error) {
	return m.store.GetOpenByLead(ctx, leadID, projectID)
}

// Close completes a handoff: records the note, notifies the lead and
// archives the thread. Closing a handoff that is not open is a safe no-op.
func (m *Manager) Close(ctx context.Context, h Handoff, note string, leadPhone string) error {
	closed, err := m.store.MarkCompleted(ctx, h.ID, note)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if !closed {
		return nil
	}

	if leadPhone != "" {
		m.notifyLead(ctx, leadPhone, "Sigo yo por acá. Cualquier otra consulta, escribime cuando quieras. 🤖")
	}
	if h.ThreadID != nil && m.threads != nil {
		if err := m.threads.CloseThread(ctx, *h.ThreadID); err != nil {
			m.log.Warn("archive thread failed", "handoff_id", h.ID, "error", err)
		}
	}

	m.log.Info("handoff closed", "handoff_id", h.ID)
	m.eventBus.Publish(ctx, events.HandoffClosed{
		BaseEvent: events.NewBaseEvent(),
		HandoffID: h.ID,
		LeadID:    h.LeadID,
		Note:      note,
	})
	return nil
}

// CloseByThread handles the staff close command observed on a thread.
func (m *Manager) CloseByThread(ctx context.Context, threadID int64, note, leadPhone string) error {
	h, err := m.store.GetActiveByThread(ctx, threadID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return m.Close(ctx, h, note, leadPhone)
}

// ActiveByThread resolves a thread to its active handoff.
func (m *Manager) ActiveByThread(ctx context.Context, threadID int64) (Handoff, error) {
	return m.store.GetActiveByThread(ctx, threadID)
}

// ParseCloseCommand splits a thread message into (isClose, note).
func ParseCloseCommand(text string) (bool, string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, CloseCommand) {
		return false, ""
	}
	rest := strings.TrimPrefix(trimmed, CloseCommand)
	if rest != "" && !strings.HasPrefix(rest, " ") {
		// "/cerrarlo" is not the command.
		return false, ""
	}
	return true, strings.TrimSpace(rest)
}

func (m *Manager) openThread(ctx context.Context, lead qualification.Lead, trigger, summary string) (int64, error) {
	if m.threads == nil {
		return 0, errors.New("thread channel not configured")
	}
	title := fmt.Sprintf("%s (%s)", lead.DisplayName(), lead.Phone)
	alert := fmt.Sprintf("🔔 Nuevo handoff — %s\nMotivo: %s\n\n%s\n\nRespondé en este tema para hablar con el lead. Cerralo con %s [nota].",
		title, trigger, summary, CloseCommand)
	return m.threads.OpenThread(ctx, title, alert)
}

func (m *Manager) notifyLead(ctx context.Context, phone, text string) {
	if m.sender == nil {
		return
	}
	if err := m.sender.SendText(ctx, phone, text); err != nil {
		m.log.WithPhone(phone).Warn("notify lead failed", "error", err)
	}
}
