package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"realia_backend/internal/events"
	"realia_backend/internal/identity"
	"realia_backend/internal/qualification"
	"realia_backend/platform/logger"
)

// TextSender delivers a WhatsApp message to a phone.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) error
}

// Service fans a hot-lead alert out to active sales contacts and the
// developer's alert email.
type Service struct {
	identity *identity.Repository
	sender   TextSender
	mailer   Mailer
	log      *logger.Logger
}

// NewService creates the alert service and subscribes it to requalification
// events. mailer may be nil when email is disabled.
func NewService(identityRepo *identity.Repository, sender TextSender, mailer Mailer, eventBus events.Bus, log *logger.Logger) *Service {
	s := &Service{identity: identityRepo, sender: sender, mailer: mailer, log: log}
	eventBus.Subscribe("leads.requalified", events.HandlerFunc(s.handleRequalified))
	return s
}

func (s *Service) handleRequalified(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadRequalified)
	if !ok {
		return nil
	}
	// Only the transition into hot alerts anyone.
	if e.NewScore != qualification.BandHot || e.OldScore == qualification.BandHot {
		return nil
	}
	return s.NotifyHotLead(ctx, e.DeveloperID, e.LeadID.String(), e.Summary)
}

// NotifyHotLead sends the alert to every active sales contact concurrently
// and the developer's email, bounded by one deadline. Individual failures
// are logged; the first error is returned for visibility only.
func (s *Service) NotifyHotLead(ctx context.Context, developerID uuid.UUID, leadRef, summary string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	contacts, err := s.identity.ListActiveContactsByRole(ctx, developerID, identity.RoleSales)
	if err != nil {
		return fmt.Errorf("list sales contacts: %w", err)
	}

	text := fmt.Sprintf("🔥 Lead caliente (%s)\n\n%s", leadRef, summary)

	g, gctx := errgroup.WithContext(ctx)
	for _, contact := range contacts {
		g.Go(func() error {
			if err := s.sender.SendText(gctx, contact.Phone, text); err != nil {
				s.log.WithPhone(contact.Phone).Warn("hot lead alert failed", "error", err)
				return err
			}
			return nil
		})
	}

	if s.mailer != nil {
		g.Go(func() error {
			developer, err := s.identity.GetDeveloperByID(gctx, developerID)
			if err != nil || developer.AlertEmail == nil {
				return err
			}
			if err := s.mailer.Send(gctx, *developer.AlertEmail, "Lead caliente", text); err != nil {
				s.log.Warn("hot lead email failed", "error", err)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("hot lead fan-out: %w", err)
	}
	s.log.Info("hot lead alert sent", "lead", leadRef, "contacts", len(contacts))
	return nil
}
