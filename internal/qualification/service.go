package qualification

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"realia_backend/internal/events"
	"realia_backend/platform/logger"
)

// Service applies extraction merges to leads.
type Service struct {
	repo     *Repository
	eventBus events.Bus
	log      *logger.Logger
}

// NewService creates the qualification service.
func NewService(repo *Repository, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, eventBus: eventBus, log: log}
}

// Apply merges an extraction into the lead's known facts and recomputes the
// score. Read-merge-write: the current row is loaded, merged and written
// back, so a concurrent merge for the same lead cannot erase fields — the
// overwrite-only-on-non-nil merge makes same-extraction races commutative.
func (s *Service) Apply(ctx context.Context, leadID uuid.UUID, incoming Extraction) error {
	lead, err := s.repo.GetLead(ctx, leadID)
	if err != nil {
		return fmt.Errorf("load lead: %w", err)
	}

	merged := Merge(lead.Qualification, incoming)
	score := Score(merged)
	band := Band(score)

	if err := s.repo.UpdateQualification(ctx, leadID, merged, score, band); err != nil {
		return fmt.Errorf("update qualification: %w", err)
	}

	if band != lead.Band {
		s.log.WithPhone(lead.Phone).Info("lead requalified",
			"lead_id", leadID,
			"old_band", lead.Band,
			"new_band", band,
			"score", score,
		)
		s.eventBus.Publish(ctx, events.LeadRequalified{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      leadID,
			DeveloperID: lead.DeveloperID,
			ProjectID:   lead.ProjectID,
			OldScore:    lead.Band,
			NewScore:    band,
			Summary:     ContextSummary(Lead{Phone: lead.Phone, Qualification: merged, Score: score, Band: band}),
		})
	}
	return nil
}

// Get loads a lead by id.
func (s *Service) Get(ctx context.Context, leadID uuid.UUID) (Lead, error) {
	return s.repo.GetLead(ctx, leadID)
}

// LeadPhone resolves a lead id to its phone, for outbound relays.
func (s *Service) LeadPhone(ctx context.Context, leadID uuid.UUID) (string, error) {
	lead, err := s.Get(ctx, leadID)
	if err != nil {
		return "", err
	}
	return lead.Phone, nil
}

// FindByPhone locates a lead within a project by phone suffix.
func (s *Service) FindByPhone(ctx context.Context, projectID uuid.UUID, phoneSuffix string) (Lead, error) {
	return s.repo.GetLeadByPhone(ctx, projectID, phoneSuffix)
}

// List returns a developer's leads, optionally filtered by band.
func (s *Service) List(ctx context.Context, developerID uuid.UUID, band string) ([]Lead, error) {
	return s.repo.ListLeads(ctx, developerID, band)
}

// ContextSummary renders the lead's known facts as short Spanish lines for
// handoff alerts and staff lookups.
func ContextSummary(l Lead) string {
	q := l.Qualification
	var lines []string

	add := func(label, value string) {
		if value != "" {
			lines = append(lines, label+": "+value)
		}
	}

	if q.Name != nil {
		add("Nombre", *q.Name)
	}
	if q.Intent != nil {
		add("Intención", intentLabel(*q.Intent))
	}
	if q.Financing != nil {
		add("Financiación", financingLabel(*q.Financing))
	}
	if q.Timeline != nil {
		add("Plazo", timelineLabel(*q.Timeline))
	}
	if q.BudgetUSD != nil {
		add("Presupuesto", fmt.Sprintf("USD %.0f", *q.BudgetUSD))
	}
	if q.Bedrooms != nil {
		add("Ambientes", fmt.Sprintf("%d", *q.Bedrooms))
	}
	if q.LocationPref != nil {
		add("Zona", *q.LocationPref)
	}
	add("Score", fmt.Sprintf("%d (%s)", l.Score, l.Band))

	if len(lines) == 0 {
		return "Sin datos de calificación todavía."
	}
	return strings.Join(lines, "\n")
}

func intentLabel(v string) string {
	switch v {
	case IntentOwnHome:
		return "vivienda propia"
	case IntentInvestment:
		return "inversión"
	case IntentRental:
		return "alquiler"
	}
	return v
}

func financingLabel(v string) string {
	switch v {
	case FinancingOwnCapital:
		return "capital propio"
	case FinancingMixed:
		return "mixta"
	case FinancingNeeds:
		return "necesita financiación"
	}
	return v
}

func timelineLabel(v string) string {
	switch v {
	case TimelineImmediate:
		return "inmediato"
	case Timeline3Months:
		return "3 meses"
	case Timeline6Months:
		return "6 meses"
	case Timeline1YearPlus:
		return "más de un año"
	}
	return v
}
