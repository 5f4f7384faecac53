package imports

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"realia_backend/internal/events"
	"realia_backend/internal/identity"
	"realia_backend/platform/apperr"
	"realia_backend/platform/logger"
)

// ProjectStore is the slice of identity persistence the import commit needs.
type ProjectStore interface {
	SlugExists(ctx context.Context, slug string) (bool, error)
	CreateProject(ctx context.Context, params identity.CreateProjectParams) (identity.Project, error)
	CreateUnits(ctx context.Context, projectID uuid.UUID, units []identity.CreateUnitParams) (int, error)
}

// Service commits confirmed CSV imports.
type Service struct {
	store    ProjectStore
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the import service.
func NewService(store ProjectStore, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, eventBus: eventBus, log: log}
}

// Commit creates the project and its units from a confirmed import.
// The slug must be unique case-insensitively across all projects.
func (s *Service) Commit(ctx context.Context, developerID uuid.UUID, p *ParsedImport) (identity.Project, int, error) {
	exists, err := s.store.SlugExists(ctx, p.Slug)
	if err != nil {
		return identity.Project{}, 0, apperr.Wrap(apperr.KindInternal, "check slug", err)
	}
	if exists {
		return identity.Project{}, 0, apperr.Conflict(fmt.Sprintf("ya existe un proyecto %q", p.Slug))
	}

	project, err := s.store.CreateProject(ctx, identity.CreateProjectParams{
		DeveloperID:       developerID,
		Name:              p.Name,
		Slug:              p.Slug,
		Address:           p.Address,
		Neighborhood:      p.Neighborhood,
		City:              p.City,
		Description:       p.Description,
		Amenities:         p.Amenities,
		TotalFloors:       p.TotalFloors,
		TotalUnits:        p.TotalUnits,
		ConstructionStart: p.ConstructionStart,
		EstimatedDelivery: p.EstimatedDelivery,
		DeliveryStatus:    p.DeliveryStatus,
		PaymentInfo:       p.PaymentInfo,
	})
	if err != nil {
		return identity.Project{}, 0, apperr.Wrap(apperr.KindInternal, "create project", err)
	}

	units := make([]identity.CreateUnitParams, 0, len(p.Units))
	for _, u := range p.Units {
		units = append(units, identity.CreateUnitParams{
			Identifier: u.Identifier,
			Floor:      u.Floor,
			Bedrooms:   u.Bedrooms,
			AreaM2:     u.AreaM2,
			PriceUSD:   u.PriceUSD,
			Status:     u.Status,
		})
	}
	created, err := s.store.CreateUnits(ctx, project.ID, units)
	if err != nil {
		return identity.Project{}, created, apperr.Wrap(apperr.KindInternal, "create units", err)
	}

	s.log.Info("project imported",
		"project_id", project.ID,
		"slug", project.Slug,
		"units", created,
	)
	s.eventBus.Publish(ctx, events.ProjectImported{
		BaseEvent:    events.NewBaseEvent(),
		ProjectID:    project.ID,
		DeveloperID:  developerID,
		Slug:         project.Slug,
		UnitsCreated: created,
	})
	return project, created, nil
}
