package commands

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/events"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/domain/services"
)

// BookParcelCommandHandler creates parcels for customers.
//
// Workflow:
//   - Customer role check
//   - Replay of an earlier booking made with the same idempotency key
//   - Parcel creation (Pending, one history entry, QR payload)
//   - Commit, then confirmation e-mail and parcel.created event
//
// Example:
//
//	handler := NewBookParcelCommandHandler(uowFactory, sideEffects)
//	result, err := handler.Handle(ctx, cmd)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result.Parcel.TrackingNumber(), len(result.Warnings))
type BookParcelCommandHandler struct {
	uowFactory BookingUoWFactory
	effects    SideEffects
	access     services.AccessGuard
}

// NewBookParcelCommandHandler creates a handler for parcel bookings.
func NewBookParcelCommandHandler(uowFactory BookingUoWFactory, effects SideEffects) BookParcelCommandHandler {
	return BookParcelCommandHandler{
		uowFactory: uowFactory,
		effects:    effects,
		access:     services.NewAccessGuard(),
	}
}

// Handle books the parcel described by cmd.
func (h BookParcelCommandHandler) Handle(ctx context.Context, cmd BookParcelCommand) (ParcelResult, error) {
	if err := cmd.Validate(); err != nil {
		return ParcelResult{}, err
	}
	if err := h.access.RequireRole(cmd.Caller(), "book parcel", identity.RoleCustomer); err != nil {
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
	customerID := cmd.Caller().UserID()

	if key := cmd.IdempotencyKey(); key != "" {
		existingID, err := uow.IdempotencyRepository().Find(ctx, customerID, key)
		if err != nil {
			return ParcelResult{}, err
		}
		if existingID != nil {
			existing, err := parcelRepo.Get(ctx, *existingID)
			if err != nil {
				return ParcelResult{}, err
			}
			return ParcelResult{Parcel: existing, Replayed: true}, nil
		}
	}

	tn, err := parcel.NewTrackingNumber(now)
	if err != nil {
		return ParcelResult{}, err
	}

	p, err := parcel.NewParcel(
		kernel.NewUUID(),
		tn,
		cmd.Caller(),
		cmd.Pickup(),
		cmd.Delivery(),
		cmd.Item(),
		cmd.Payment(),
		now,
	)
	if err != nil {
		return ParcelResult{}, err
	}

	if err = parcelRepo.Add(ctx, p); err != nil {
		return ParcelResult{}, err
	}

	if key := cmd.IdempotencyKey(); key != "" {
		if err = uow.IdempotencyRepository().Save(ctx, customerID, key, p.ID(), now); err != nil {
			return ParcelResult{}, err
		}
	}

	if err = uow.Commit(ctx); err != nil {
		return ParcelResult{}, err
	}

	warnings := h.effects.Notify(ctx, p, events.NewParcelCreated(p, now), bookingMail(p))
	return ParcelResult{Parcel: p, Warnings: warnings}, nil
}
