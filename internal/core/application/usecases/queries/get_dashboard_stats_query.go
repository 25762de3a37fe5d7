package queries

import (
	"errors"
	"time"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/pkg/guard"
)

var (
	ErrGetDashboardStatsQueryIsNotConstructed = errors.New(
		"GetDashboardStatsQuery must be created via NewGetDashboardStatsQuery constructor",
	)
)

// GetDashboardStatsQuery reads the admin dashboard counters. "Today" starts at
// midnight UTC of now.
type GetDashboardStatsQuery struct {
	caller   identity.Identity
	dayStart time.Time

	guard guard.ConstructorGuard
}

func NewGetDashboardStatsQuery(caller identity.Identity, now time.Time) (GetDashboardStatsQuery, error) {
	if err := caller.Validate(); err != nil {
		return GetDashboardStatsQuery{}, err
	}
	return GetDashboardStatsQuery{
		caller:   caller,
		dayStart: now.UTC().Truncate(24 * time.Hour),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetDashboardStatsQuery) Validate() error {
	return q.guard.Validate(ErrGetDashboardStatsQueryIsNotConstructed)
}

func (q GetDashboardStatsQuery) Caller() identity.Identity {
	return q.caller
}

func (q GetDashboardStatsQuery) DayStart() time.Time {
	return q.dayStart
}
