package conversation

import (
	"context"
	"errors"

	"realia_backend/internal/agent"
	"realia_backend/internal/identity"
	"realia_backend/internal/staffactions"
	"realia_backend/platform/logger"
)

// StaffActionResolver turns free-form staff text into an executed action:
// the assistant emits a structured envelope, Decode validates it and the
// executor applies it.
type StaffActionResolver struct {
	assistant agent.StaffAssistant
	executor  *staffactions.Executor
	log       *logger.Logger
}

func NewStaffActionResolver(assistant agent.StaffAssistant, executor *staffactions.Executor, log *logger.Logger) *StaffActionResolver {
	return &StaffActionResolver{assistant: assistant, executor: executor, log: log}
}

func (s *StaffActionResolver) Resolve(ctx context.Context, project *identity.Project, unitList, message string) (string, bool) {
	projectContext := "Sin proyecto activo."
	if project != nil {
		projectContext = BuildProjectContext(project, nil)
	}

	raw, err := s.assistant.ResolveAction(ctx, agent.StaffRequest{
		ProjectContext: projectContext,
		UnitList:       unitList,
		Message:        message,
	})
	if err != nil {
		s.log.Error("staff action resolution failed", "error", err)
		return "No pude interpretar el pedido, probá de nuevo en un rato.", false
	}

	action, err := staffactions.Decode(raw)
	if err != nil {
		var unsupported *staffactions.UnsupportedError
		if errors.As(err, &unsupported) {
			return unsupported.Reason, false
		}
		s.log.Error("staff action decode failed", "error", err, "raw", string(raw))
		return "No pude interpretar el pedido, probá de nuevo en un rato.", false
	}

	result := s.executor.Execute(ctx, project, action)
	return result.Reply, result.SendTemplate
}
