package staffactions

import (
	"context"
	"errors"
	"fmt"

	"realia_backend/internal/identity"
	"realia_backend/internal/qualification"
	"realia_backend/platform/logger"
	"realia_backend/platform/phone"
)

// Executor runs decoded staff actions against a project. Every outcome is a
// user-facing string; system errors are logged and rendered, never
// propagated past this boundary.
type Executor struct {
	identity *identity.Repository
	leads    *qualification.Service
	log      *logger.Logger
}

// NewExecutor creates the staff action executor.
func NewExecutor(identityRepo *identity.Repository, leads *qualification.Service, log *logger.Logger) *Executor {
	return &Executor{identity: identityRepo, leads: leads, log: log}
}

// Result is the outcome of one action. SendTemplate asks the caller to
// attach the blank import template to the reply.
type Result struct {
	Reply        string
	SendTemplate bool
}

// Execute runs one action in the context of a project.
func (e *Executor) Execute(ctx context.Context, project *identity.Project, action Action) Result {
	switch {
	case action.UpdateUnitStatus != nil:
		return Result{Reply: e.updateUnitStatus(ctx, project, action.UpdateUnitStatus)}
	case action.UpdateUnitPrice != nil:
		return Result{Reply: e.updateUnitPrice(ctx, project, action.UpdateUnitPrice)}
	case action.AddUnitNote != nil:
		return Result{Reply: e.addUnitNote(ctx, project, action.AddUnitNote)}
	case action.GetLeadDetail != nil:
		return Result{Reply: e.getLeadDetail(ctx, project, action.GetLeadDetail)}
	case action.ImportInstructions != nil:
		return Result{
			Reply:        "Te envío la plantilla para cargar un proyecto nuevo. Completala y mandámela de vuelta.",
			SendTemplate: true,
		}
	case action.UpdateProject != nil:
		return Result{Reply: e.updateProject(ctx, project, action.UpdateProject)}
	case action.None != nil:
		return Result{Reply: action.None.Reply}
	}
	return Result{Reply: "No entendí qué querés hacer."}
}

func (e *Executor) updateUnitStatus(ctx context.Context, project *identity.Project, a *UpdateUnitStatus) string {
	if project == nil {
		return "No hay un proyecto activo para esa operación."
	}
	unit, err := e.identity.GetUnit(ctx, project.ID, a.Unit)
	if errors.Is(err, identity.ErrNotFound) {
		return fmt.Sprintf("No encontré la unidad %s en %s.", a.Unit, project.Name)
	}
	if err != nil {
		e.log.DatabaseError("get unit", err)
		return "Hubo un error buscando la unidad, probá de nuevo."
	}

	if err := e.identity.UpdateUnitStatus(ctx, unit.ID, a.Status); err != nil {
		e.log.DatabaseError("update unit status", err)
		return "No pude actualizar el estado, probá de nuevo."
	}
	return fmt.Sprintf("✅ Unidad %s marcada como %s.", unit.Identifier, StatusLabel(a.Status))
}

func (e *Executor) updateUnitPrice(ctx context.Context, project *identity.Project, a *UpdateUnitPrice) string {
	if project == nil {
		return "No hay un proyecto activo para esa operación."
	}
	unit, err := e.identity.GetUnit(ctx, project.ID, a.Unit)
	if errors.Is(err, identity.ErrNotFound) {
		return fmt.Sprintf("No encontré la unidad %s en %s.", a.Unit, project.Name)
	}
	if err != nil {
		e.log.DatabaseError("get unit", err)
		return "Hubo un error buscando la unidad, probá de nuevo."
	}

	if err := e.identity.UpdateUnitPrice(ctx, unit.ID, a.PriceUSD); err != nil {
		e.log.DatabaseError("update unit price", err)
		return "No pude actualizar el precio, probá de nuevo."
	}
	return fmt.Sprintf("✅ Unidad %s ahora vale USD %.0f.", unit.Identifier, a.PriceUSD)
}

func (e *Executor) addUnitNote(ctx context.Context, project *identity.Project, a *AddUnitNote) string {
	if project == nil {
		return "No hay un proyecto activo para esa operación."
	}
	unit, err := e.identity.GetUnit(ctx, project.ID, a.Unit)
	if errors.Is(err, identity.ErrNotFound) {
		return fmt.Sprintf("No encontré la unidad %s en %s.", a.Unit, project.Name)
	}
	if err != nil {
		e.log.DatabaseError("get unit", err)
		return "Hubo un error buscando la unidad, probá de nuevo."
	}

	if err := e.identity.AppendUnitNote(ctx, unit.ID, a.Note); err != nil {
		e.log.DatabaseError("append unit note", err)
		return "No pude guardar la nota, probá de nuevo."
	}
	return fmt.Sprintf("📝 Nota agregada a la unidad %s.", unit.Identifier)
}

func (e *Executor) getLeadDetail(ctx context.Context, project *identity.Project, a *GetLeadDetail) string {
	if project == nil {
		return "No hay un proyecto activo para esa operación."
	}
	lead, err := e.leads.FindByPhone(ctx, project.ID, phone.DigitsOnly(a.Phone))
	if errors.Is(err, qualification.ErrNotFound) {
		return fmt.Sprintf("No encontré ningún lead con el teléfono %s.", a.Phone)
	}
	if err != nil {
		e.log.DatabaseError("find lead", err)
		return "Hubo un error buscando el lead, probá de nuevo."
	}

	return fmt.Sprintf("👤 %s (%s)\n%s", lead.DisplayName(), lead.Phone, qualification.ContextSummary(lead))
}

func (e *Executor) updateProject(ctx context.Context, project *identity.Project, a *UpdateProject) string {
	if project == nil {
		return "No hay un proyecto activo para esa operación."
	}
	err := e.identity.UpdateProject(ctx, project.ID, identity.ProjectUpdates{
		Address:           a.Address,
		Neighborhood:      a.Neighborhood,
		City:              a.City,
		Description:       a.Description,
		PaymentInfo:       a.PaymentInfo,
		DeliveryStatus:    a.DeliveryStatus,
		EstimatedDelivery: a.EstimatedDelivery,
	})
	if err != nil {
		e.log.DatabaseError("update project", err)
		return "No pude actualizar el proyecto, probá de nuevo."
	}
	return fmt.Sprintf("✅ Proyecto %s actualizado.", project.Name)
}
