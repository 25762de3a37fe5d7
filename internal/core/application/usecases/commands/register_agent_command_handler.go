package commands

import (
	"context"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/services"
)

// RegisterAgentCommandHandler creates agent profiles. Admin only.
//
// Example:
//
//	handler := NewRegisterAgentCommandHandler(uowFactory)
//	cmd, _ := NewRegisterAgentCommand(admin, userID, "Karim")
//	a, err := handler.Handle(ctx, cmd)
type RegisterAgentCommandHandler struct {
	uowFactory AgentUoWFactory
	access     services.AccessGuard
}

func NewRegisterAgentCommandHandler(uowFactory AgentUoWFactory) RegisterAgentCommandHandler {
	return RegisterAgentCommandHandler{
		uowFactory: uowFactory,
		access:     services.NewAccessGuard(),
	}
}

// Handle stores the new agent. An already registered ID is a Conflict.
func (h RegisterAgentCommandHandler) Handle(ctx context.Context, cmd RegisterAgentCommand) (*agent.Agent, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.access.RequireRole(cmd.Caller(), "register agent", identity.RoleAdmin); err != nil {
		return nil, err
	}

	a, err := agent.NewAgent(cmd.AgentID(), cmd.Name())
	if err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.AgentRepository().Add(ctx, a); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return a, nil
}
