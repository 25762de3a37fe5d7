package commands

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/pkg/errs"
)

// UpdateStatusCommandHandler applies agent-driven transitions. Delivered and Failed
// also update the agent's counters and list in the same transaction.
//
// Example:
//
//	handler := NewUpdateStatusCommandHandler(uowFactory, sideEffects)
//	result, err := handler.Handle(ctx, cmd)
//	if errs.KindOf(err) == errs.KindInvalidTransition {
//	    // e.g. PickedUp -> Delivered
//	}
type UpdateStatusCommandHandler struct {
	uowFactory UoWFactory
	effects    SideEffects
	access     services.AccessGuard
	machine    services.StatusMachine
}

// NewUpdateStatusCommandHandler creates a handler for status updates.
func NewUpdateStatusCommandHandler(uowFactory UoWFactory, effects SideEffects) UpdateStatusCommandHandler {
	return UpdateStatusCommandHandler{
		uowFactory: uowFactory,
		effects:    effects,
		access:     services.NewAccessGuard(),
		machine:    services.NewStatusMachine(),
	}
}

// Handle applies cmd. Only the assigned agent may update; assignment and
// cancellation targets are refused as invalid transitions.
func (h UpdateStatusCommandHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (ParcelResult, error) {
	if err := cmd.Validate(); err != nil {
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
	if err = h.access.Authorize(p, cmd.Caller(), services.CapabilityUpdateStatus); err != nil {
		return ParcelResult{}, err
	}
	if !cmd.Target().IsAgentDriven() {
		return ParcelResult{}, errs.NewInvalidTransitionError(p.Status(), cmd.Target())
	}

	var holder *agent.Agent
	finishes := cmd.Target() == parcel.Delivered || cmd.Target() == parcel.Failed
	if finishes && p.Status().CanTransitionTo(cmd.Target()) {
		holder, err = agentRepo.GetForUpdate(ctx, *p.AgentID())
		if err != nil {
			return ParcelResult{}, err
		}
	}

	meta := services.TransitionMetadata{Notes: cmd.Notes(), Reason: cmd.Reason(), At: now}
	if err = h.machine.Transition(p, holder, cmd.Target(), cmd.Caller(), meta); err != nil {
		return ParcelResult{}, err
	}

	if err = parcelRepo.Update(ctx, p); err != nil {
		return ParcelResult{}, err
	}
	if holder != nil {
		if err = agentRepo.Update(ctx, holder); err != nil {
			return ParcelResult{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return ParcelResult{}, err
	}

	warnings := h.effects.Notify(ctx, p, events.NewParcelStatusChanged(p, now), statusMail(p))
	return ParcelResult{Parcel: p, Warnings: warnings}, nil
}
