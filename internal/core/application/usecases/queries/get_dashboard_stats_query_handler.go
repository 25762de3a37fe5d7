package queries

import (
	"context"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/services"
	"parceltrack/internal/core/ports"
)

type GetDashboardStatsQueryHandler struct {
	parcels ports.ParcelReader
	access  services.AccessGuard
}

func NewGetDashboardStatsQueryHandler(parcels ports.ParcelReader) GetDashboardStatsQueryHandler {
	return GetDashboardStatsQueryHandler{parcels: parcels, access: services.NewAccessGuard()}
}

func (h GetDashboardStatsQueryHandler) Handle(ctx context.Context, query GetDashboardStatsQuery) (ports.ParcelStats, error) {
	if err := query.Validate(); err != nil {
		return ports.ParcelStats{}, err
	}
	if err := h.access.RequireRole(query.Caller(), "view dashboard", identity.RoleAdmin); err != nil {
		return ports.ParcelStats{}, err
	}
	return h.parcels.Stats(ctx, query.DayStart())
}
