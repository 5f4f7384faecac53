package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"realia_backend/internal/events"
	"realia_backend/platform/apperr"
	"realia_backend/platform/config"
	"realia_backend/platform/logger"
)

// Service resolves inbound channels to business tenants and manages
// contact authorization.
type Service struct {
	repo     *Repository
	cfg      config.RoutingConfig
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the identity service.
func NewService(repo *Repository, cfg config.RoutingConfig, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, eventBus: eventBus, log: log}
}

// Resolve maps an inbound channel identifier to a business context.
//
// When ACTIVE_DEVELOPER_ID is configured, every channel resolves to that
// developer and the default project is the developer's first active project.
// Otherwise the channel identifier is matched against the projects' bound
// WhatsApp numbers and the owning developer is loaded from the match.
func (s *Service) Resolve(ctx context.Context, channelID string) (BusinessContext, error) {
	if fixed := s.cfg.GetActiveDeveloperID(); fixed != "" {
		return s.resolveFixed(ctx, fixed)
	}
	return s.resolveByChannel(ctx, channelID)
}

func (s *Service) resolveFixed(ctx context.Context, fixed string) (BusinessContext, error) {
	developerID, err := uuid.Parse(fixed)
	if err != nil {
		return BusinessContext{}, apperr.Wrap(apperr.KindInternal, "invalid ACTIVE_DEVELOPER_ID", err)
	}

	developer, err := s.repo.GetDeveloperByID(ctx, developerID)
	if errors.Is(err, ErrNotFound) {
		return BusinessContext{}, apperr.NotFound("developer not found")
	}
	if err != nil {
		return BusinessContext{}, apperr.Wrap(apperr.KindInternal, "load developer", err)
	}

	bc := BusinessContext{Developer: developer}

	projects, err := s.repo.ListActiveProjects(ctx, developerID)
	if err != nil {
		return BusinessContext{}, apperr.Wrap(apperr.KindInternal, "list projects", err)
	}
	if len(projects) > 0 {
		bc.DefaultProject = &projects[0]
	}
	return bc, nil
}

func (s *Service) resolveByChannel(ctx context.Context, channelID string) (BusinessContext, error) {
	project, err := s.repo.GetProjectByChannel(ctx, channelID)
	if errors.Is(err, ErrNotFound) {
		return BusinessContext{}, apperr.NotFound("no project bound to channel")
	}
	if err != nil {
		return BusinessContext{}, apperr.Wrap(apperr.KindInternal, "resolve channel", err)
	}

	developer, err := s.repo.GetDeveloperByID(ctx, project.DeveloperID)
	if err != nil {
		return BusinessContext{}, apperr.Wrap(apperr.KindInternal, "load developer", err)
	}

	return BusinessContext{Developer: developer, DefaultProject: &project}, nil
}

// LookupContact returns the authorized contact for a phone, or nil when the
// phone is unknown to the developer. The configured dev phone is treated as
// an always-active admin contact.
func (s *Service) LookupContact(ctx context.Context, phone string, developerID uuid.UUID) (*Contact, error) {
	if dev := s.cfg.GetDevPhone(); dev != "" && dev == phone {
		return &Contact{
			DeveloperID: developerID,
			Phone:       phone,
			Name:        "Dev",
			Role:        RoleAdmin,
			Status:      ContactActive,
		}, nil
	}

	contact, err := s.repo.LookupContact(ctx, phone, developerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "lookup contact", err)
	}
	return contact, nil
}

// TryActivate matches a message against a pending contact's activation code.
// The match is exact after trimming whitespace. On success the contact moves
// to active and a ContactActivated event is published.
func (s *Service) TryActivate(ctx context.Context, contact *Contact, text string) (bool, error) {
	if contact == nil || contact.Status != ContactPending || contact.ActivationCode == "" {
		return false, nil
	}
	if strings.TrimSpace(text) != contact.ActivationCode {
		return false, nil
	}

	if err := s.repo.ActivateContact(ctx, contact.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			// Raced with another activation or a revoke.
			return false, nil
		}
		return false, apperr.Wrap(apperr.KindInternal, "activate contact", err)
	}

	contact.Status = ContactActive
	s.log.WithPhone(contact.Phone).Info("contact activated",
		"contact_id", contact.ID,
		"role", contact.Role,
	)
	s.eventBus.Publish(ctx, events.ContactActivated{
		BaseEvent:   events.NewBaseEvent(),
		ContactID:   contact.ID,
		DeveloperID: contact.DeveloperID,
		Phone:       contact.Phone,
		Role:        contact.Role,
	})
	return true, nil
}
