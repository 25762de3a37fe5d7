package queries

import (
	"context"

	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

// GetParcelLocationQueryHandler serves the location snapshot and the QR payload of a
// parcel; both need view access only.
type GetParcelLocationQueryHandler struct {
	parcels ports.ParcelReader
	access  services.AccessGuard
}

func NewGetParcelLocationQueryHandler(parcels ports.ParcelReader) GetParcelLocationQueryHandler {
	return GetParcelLocationQueryHandler{parcels: parcels, access: services.NewAccessGuard()}
}

// Handle returns the snapshot. The location stays readable after the parcel reached
// a terminal status.
func (h GetParcelLocationQueryHandler) Handle(
	ctx context.Context,
	query GetParcelLocationQuery,
) (GetParcelLocationQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetParcelLocationQueryResponse{}, err
	}

	p, err := h.parcels.Get(ctx, query.ParcelID())
	if err != nil {
		return GetParcelLocationQueryResponse{}, err
	}
	if err = h.access.Authorize(p, query.Caller(), services.CapabilityView); err != nil {
		return GetParcelLocationQueryResponse{}, err
	}

	loc := p.AgentLocation()
	return GetParcelLocationQueryResponse{
		ParcelID:       p.ID(),
		TrackingNumber: p.TrackingNumber().String(),
		Status:         p.Status(),
		Available:      loc != nil,
		Location:       loc,
	}, nil
}

// HandleQRCode returns the label payload.
func (h GetParcelLocationQueryHandler) HandleQRCode(
	ctx context.Context,
	query GetParcelQRCodeQuery,
) (GetParcelQRCodeQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetParcelQRCodeQueryResponse{}, err
	}

	p, err := h.parcels.Get(ctx, query.ParcelID())
	if err != nil {
		return GetParcelQRCodeQueryResponse{}, err
	}
	if err = h.access.Authorize(p, query.Caller(), services.CapabilityView); err != nil {
		return GetParcelQRCodeQueryResponse{}, err
	}

	return GetParcelQRCodeQueryResponse{
		ParcelID:       p.ID(),
		TrackingNumber: p.TrackingNumber().String(),
		Payload:        p.QRPayload(),
	}, nil
}
