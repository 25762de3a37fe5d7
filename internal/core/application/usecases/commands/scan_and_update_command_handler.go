package commands

import (
	"context"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

// StatusUpdater applies an UpdateStatusCommand; UpdateStatusCommandHandler implements it.
type StatusUpdater interface {
	Handle(ctx context.Context, cmd UpdateStatusCommand) (ParcelResult, error)
}

// ScanAndUpdateCommandHandler resolves a scanned QR payload to its parcel and then
// behaves exactly like a status update on that parcel.
type ScanAndUpdateCommandHandler struct {
	parcels ports.ParcelReader
	updater StatusUpdater
	access  services.AccessGuard
}

func NewScanAndUpdateCommandHandler(parcels ports.ParcelReader, updater StatusUpdater) ScanAndUpdateCommandHandler {
	return ScanAndUpdateCommandHandler{parcels: parcels, updater: updater, access: services.NewAccessGuard()}
}

// Handle decodes the payload, checks it against the stored tracking number and
// delegates to the status updater. Only agents scan; other roles are refused before
// the payload is looked up.
//
// Returns:
//   - Forbidden for callers that are not agents
//   - ValidationError for undecodable payloads or a tracking number mismatch
//   - NotFound when the encoded parcel does not exist
//   - any error of UpdateStatusCommandHandler.Handle
func (h ScanAndUpdateCommandHandler) Handle(ctx context.Context, cmd ScanAndUpdateCommand) (ParcelResult, error) {
	if err := cmd.Validate(); err != nil {
		return ParcelResult{}, err
	}
	if err := h.access.RequireRole(cmd.Caller(), "scan qr code", identity.RoleAgent); err != nil {
		return ParcelResult{}, err
	}

	content, err := parcel.DecodeQRPayload(cmd.Payload())
	if err != nil {
		return ParcelResult{}, err
	}

	p, err := h.parcels.Get(ctx, content.ParcelID)
	if err != nil {
		return ParcelResult{}, err
	}
	if !content.Matches(p) {
		return ParcelResult{}, parcel.ErrQRPayloadMismatch
	}

	update, err := NewUpdateStatusCommand(cmd.Caller(), p.ID(), cmd.Target(), cmd.Notes(), cmd.Reason())
	if err != nil {
		return ParcelResult{}, err
	}

	return h.updater.Handle(ctx, update)
}
