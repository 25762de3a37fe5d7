package commands

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

// AssignAgentCommandHandler orchestrates parcel assignment.
// Updates the parcel and both agents' lists within a single transaction.
//
// Example:
//
//	handler := NewAssignAgentCommandHandler(uowFactory, sideEffects)
//	result, err := handler.Handle(ctx, cmd)
//	switch errs.KindOf(err) {
//	case errs.KindNotFound:
//	    // parcel or agent does not exist
//	case errs.KindInvalidState:
//	    // agent is inactive
//	case errs.KindInvalidTransition:
//	    // parcel already picked up or finished
//	}
type AssignAgentCommandHandler struct {
	uowFactory UoWFactory
	effects    SideEffects
	access     services.AccessGuard
	machine    services.StatusMachine
}

// NewAssignAgentCommandHandler creates a handler for assignment operations.
func NewAssignAgentCommandHandler(uowFactory UoWFactory, effects SideEffects) AssignAgentCommandHandler {
	return AssignAgentCommandHandler{
		uowFactory: uowFactory,
		effects:    effects,
		access:     services.NewAccessGuard(),
		machine:    services.NewStatusMachine(),
	}
}

// Handle assigns the parcel. Admin only; the admin check runs before the parcel is
// loaded so other roles learn nothing about which parcels exist.
func (h AssignAgentCommandHandler) Handle(ctx context.Context, cmd AssignAgentCommand) (ParcelResult, error) {
	if err := cmd.Validate(); err != nil {
		return ParcelResult{}, err
	}
	if err := h.access.RequireRole(cmd.Caller(), "assign", identity.RoleAdmin); err != nil {
		return ParcelResult{}, err
	}

	now := time.Now()
	ctx = context.WithoutCancel(ctx)

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return ParcelResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	parcelRepo := uow.ParcelRepository()
	agentRepo := uow.AgentRepository()

	p, err := parcelRepo.GetForUpdate(ctx, cmd.ParcelID())
	if err != nil {
		return ParcelResult{}, err
	}
	if err = h.access.Authorize(p, cmd.Caller(), services.CapabilityAssign); err != nil {
		return ParcelResult{}, err
	}

	var previousID *kernel.UUID
	if current := p.AgentID(); current != nil && !current.IsEqual(cmd.AgentID()) {
		previousID = current
	}
	next, previous, err := lockAgents(ctx, agentRepo, cmd.AgentID(), previousID)
	if err != nil {
		return ParcelResult{}, err
	}

	meta := services.TransitionMetadata{Notes: cmd.Notes(), At: now}
	if err = h.machine.Assign(p, next, previous, cmd.Caller(), meta); err != nil {
		return ParcelResult{}, err
	}

	if err = parcelRepo.Update(ctx, p); err != nil {
		return ParcelResult{}, err
	}
	if err = agentRepo.Update(ctx, next); err != nil {
		return ParcelResult{}, err
	}
	if previous != nil {
		if err = agentRepo.Update(ctx, previous); err != nil {
			return ParcelResult{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return ParcelResult{}, err
	}

	warnings := h.effects.Notify(ctx, p, events.NewParcelAssigned(p, previousID, now), assignedMail(p, next.Name()))
	return ParcelResult{Parcel: p, Warnings: warnings}, nil
}

// lockAgents locks the next agent and, on reassignment, the previous one. Rows are
// always locked in ascending ID order so opposite reassignments cannot deadlock.
func lockAgents(
	ctx context.Context,
	repo ports.AgentRepository,
	nextID kernel.UUID,
	previousID *kernel.UUID,
) (next, previous *agent.Agent, err error) {
	if previousID == nil {
		next, err = repo.GetForUpdate(ctx, nextID)
		return next, nil, err
	}

	if nextID.Compare(*previousID) < 0 {
		if next, err = repo.GetForUpdate(ctx, nextID); err != nil {
			return nil, nil, err
		}
		if previous, err = repo.GetForUpdate(ctx, *previousID); err != nil {
			return nil, nil, err
		}
		return next, previous, nil
	}

	if previous, err = repo.GetForUpdate(ctx, *previousID); err != nil {
		return nil, nil, err
	}
	if next, err = repo.GetForUpdate(ctx, nextID); err != nil {
		return nil, nil, err
	}
	return next, previous, nil
}
