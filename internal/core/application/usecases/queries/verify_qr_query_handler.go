package queries

import (
	"context"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

type VerifyQRQueryHandler struct {
	parcels ports.ParcelReader
	access  services.AccessGuard
}

func NewVerifyQRQueryHandler(parcels ports.ParcelReader) VerifyQRQueryHandler {
	return VerifyQRQueryHandler{parcels: parcels, access: services.NewAccessGuard()}
}

// Handle resolves the payload to its parcel. Only agents and admins scan labels;
// an agent must also be allowed to view the parcel, i.e. hold it.
func (h VerifyQRQueryHandler) Handle(ctx context.Context, query VerifyQRQuery) (*parcel.Parcel, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	if err := h.access.RequireRole(query.Caller(), "verify qr code", identity.RoleAgent, identity.RoleAdmin); err != nil {
		return nil, err
	}

	content, err := parcel.DecodeQRPayload(query.Payload())
	if err != nil {
		return nil, err
	}

	p, err := h.parcels.Get(ctx, content.ParcelID)
	if err != nil {
		return nil, err
	}
	if !content.Matches(p) {
		return nil, parcel.ErrQRPayloadMismatch
	}
	if err = h.access.Authorize(p, query.Caller(), services.CapabilityView); err != nil {
		return nil, err
	}

	return p, nil
}
