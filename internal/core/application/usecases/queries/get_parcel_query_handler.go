package queries

import (
	"context"

	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

// GetParcelQueryHandler loads a parcel and checks view access.
//
// Example:
//
//	handler := NewGetParcelQueryHandler(parcelReader)
//	response, err := handler.Handle(ctx, query)
//	switch errs.KindOf(err) {
//	case errs.KindNotFound:
//	    // unknown parcel
//	case errs.KindForbidden:
//	    // not the owner, the assigned agent or an admin
//	}
type GetParcelQueryHandler struct {
	parcels ports.ParcelReader
	access  services.AccessGuard
}

func NewGetParcelQueryHandler(parcels ports.ParcelReader) GetParcelQueryHandler {
	return GetParcelQueryHandler{parcels: parcels, access: services.NewAccessGuard()}
}

func (h GetParcelQueryHandler) Handle(ctx context.Context, query GetParcelQuery) (GetParcelQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetParcelQueryResponse{}, err
	}

	p, err := h.parcels.Get(ctx, query.ParcelID())
	if err != nil {
		return GetParcelQueryResponse{}, err
	}
	if err = h.access.Authorize(p, query.Caller(), services.CapabilityView); err != nil {
		return GetParcelQueryResponse{}, err
	}

	return GetParcelQueryResponse{Parcel: p, DistanceKm: p.DeliveryDistanceKm()}, nil
}
