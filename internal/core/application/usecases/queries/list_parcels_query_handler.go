package queries

import (
	"context"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

// ListParcelsQueryHandler serves the three parcel listings: the admin search, a
// customer's bookings and an agent's work list. Each runs one Search against the
// reader with criteria pinned to the caller where the role requires it.
type ListParcelsQueryHandler struct {
	parcels ports.ParcelReader
	access  services.AccessGuard
}

func NewListParcelsQueryHandler(parcels ports.ParcelReader) ListParcelsQueryHandler {
	return ListParcelsQueryHandler{parcels: parcels, access: services.NewAccessGuard()}
}

// Handle runs the admin listing.
func (h ListParcelsQueryHandler) Handle(ctx context.Context, query ListParcelsQuery) (ports.Page, error) {
	if err := query.Validate(); err != nil {
		return ports.Page{}, err
	}
	if err := h.access.RequireRole(query.Caller(), "list parcels", identity.RoleAdmin); err != nil {
		return ports.Page{}, err
	}
	return h.parcels.Search(ctx, query.Criteria())
}

// HandleMine lists the calling customer's bookings.
func (h ListParcelsQueryHandler) HandleMine(ctx context.Context, query GetMyParcelsQuery) (ports.Page, error) {
	if err := query.Validate(); err != nil {
		return ports.Page{}, err
	}
	if err := h.access.RequireRole(query.Caller(), "list own parcels", identity.RoleCustomer); err != nil {
		return ports.Page{}, err
	}
	return h.parcels.Search(ctx, query.Criteria())
}

// HandleAssigned lists the parcels of the calling agent.
func (h ListParcelsQueryHandler) HandleAssigned(ctx context.Context, query GetAgentParcelsQuery) (ports.Page, error) {
	if err := query.Validate(); err != nil {
		return ports.Page{}, err
	}
	if err := h.access.RequireRole(query.Caller(), "list assigned parcels", identity.RoleAgent); err != nil {
		return ports.Page{}, err
	}
	return h.parcels.Search(ctx, query.Criteria())
}
