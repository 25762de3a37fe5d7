package commands

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/services"
)

// ReportLocationCommandHandler stores the latest agent position of an en-route
// parcel and broadcasts it to the parcel's watchers.
type ReportLocationCommandHandler struct {
	uowFactory ParcelUoWFactory
	effects    SideEffects
	access     services.AccessGuard
	tracker    services.LocationTracker
}

func NewReportLocationCommandHandler(uowFactory ParcelUoWFactory, effects SideEffects) ReportLocationCommandHandler {
	return ReportLocationCommandHandler{
		uowFactory: uowFactory,
		effects:    effects,
		access:     services.NewAccessGuard(),
		tracker:    services.NewLocationTracker(),
	}
}

// Handle records the sample.
//
// Returns:
//   - NotFound when the parcel does not exist
//   - Forbidden unless the caller is the assigned agent
//   - InvalidState unless the parcel is PickedUp or InTransit
//   - ValidationError for bad coordinates or accuracy
func (h ReportLocationCommandHandler) Handle(ctx context.Context, cmd ReportLocationCommand) (ParcelResult, error) {
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
	if err = h.access.Authorize(p, cmd.Caller(), services.CapabilityReportLocation); err != nil {
		return ParcelResult{}, err
	}

	report := services.LocationReport{
		AgentID:    cmd.Caller().UserID(),
		Lat:        cmd.Lat(),
		Lng:        cmd.Lng(),
		Accuracy:   cmd.Accuracy(),
		RecordedAt: cmd.RecordedAt(),
	}

	if _, err = h.tracker.Record(p, report, now); err != nil {
		return ParcelResult{}, err
	}

	if err = parcelRepo.Update(ctx, p); err != nil {
		return ParcelResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return ParcelResult{}, err
	}

	warnings := h.effects.Notify(ctx, p, events.NewLocationChanged(p, now), nil)
	return ParcelResult{Parcel: p, Warnings: warnings}, nil
}
