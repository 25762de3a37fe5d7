package commands

import (
	"context"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/services"
)

// SetAgentActiveCommandHandler toggles an agent's active flag. Parcels the agent
// already holds are not affected.
type SetAgentActiveCommandHandler struct {
	uowFactory AgentUoWFactory
	access     services.AccessGuard
}

func NewSetAgentActiveCommandHandler(uowFactory AgentUoWFactory) SetAgentActiveCommandHandler {
	return SetAgentActiveCommandHandler{
		uowFactory: uowFactory,
		access:     services.NewAccessGuard(),
	}
}

func (h SetAgentActiveCommandHandler) Handle(ctx context.Context, cmd SetAgentActiveCommand) (*agent.Agent, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if err := h.access.RequireRole(cmd.Caller(), "change agent status", identity.RoleAdmin); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	agentRepo := uow.AgentRepository()

	a, err := agentRepo.GetForUpdate(ctx, cmd.AgentID())
	if err != nil {
		return nil, err
	}

	if cmd.Active() {
		a.Activate()
	} else {
		a.Deactivate()
	}

	if err = agentRepo.Update(ctx, a); err != nil {
		return nil, err
	}

	if err = uow.Commit(ctx); err != nil {
		return nil, err
	}

	return a, nil
}
