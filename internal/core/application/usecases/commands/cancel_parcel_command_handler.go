package commands

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/domain/services"
)

// CancelParcelCommandHandler moves Pending parcels to Cancelled on behalf of the
// owning customer or an admin.
type CancelParcelCommandHandler struct {
	uowFactory ParcelUoWFactory
	effects    SideEffects
	access     services.AccessGuard
	machine    services.StatusMachine
}

func NewCancelParcelCommandHandler(uowFactory ParcelUoWFactory, effects SideEffects) CancelParcelCommandHandler {
	return CancelParcelCommandHandler{
		uowFactory: uowFactory,
		effects:    effects,
		access:     services.NewAccessGuard(),
		machine:    services.NewStatusMachine(),
	}
}

// Handle cancels the parcel. Anything past Pending is an invalid transition.
func (h CancelParcelCommandHandler) Handle(ctx context.Context, cmd CancelParcelCommand) (ParcelResult, error) {
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

	p, err := parcelRepo.GetForUpdate(ctx, cmd.ParcelID())
	if err != nil {
		return ParcelResult{}, err
	}
	if err = h.access.Authorize(p, cmd.Caller(), services.CapabilityCancel); err != nil {
		return ParcelResult{}, err
	}

	meta := services.TransitionMetadata{Notes: cmd.Notes(), At: now}
	if err = h.machine.Transition(p, nil, parcel.Cancelled, cmd.Caller(), meta); err != nil {
		return ParcelResult{}, err
	}

	if err = parcelRepo.Update(ctx, p); err != nil {
		return ParcelResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ParcelResult{}, err
	}

	warnings := h.effects.Notify(ctx, p, events.NewParcelCancelled(p, now), statusMail(p))
	return ParcelResult{Parcel: p, Warnings: warnings}, nil
}
