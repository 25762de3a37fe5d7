// Package ports defines the contracts between the dispatch core and its
// infrastructure: parcel and agent stores, the unit of work, and the outbound
// notification sinks.
package ports

import (
	"context"
	"time"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/core/domain/model/parcel"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
	// MaxPage bounds the offset arithmetic; deeper pages are always empty.
	MaxPage = 1_000_000
)

// ProximityFilter keeps parcels whose pickup or delivery point lies within RadiusKm of Center.
type ProximityFilter struct {
	Center   kernel.Location
	RadiusKm float64
}

// SearchCriteria filters a parcel listing. Zero fields do not filter.
//
// Example:
//
//	criteria := ports.SearchCriteria{CustomerID: &caller, Statuses: []parcel.Status{parcel.Pending}}
//	page, err := repo.Search(ctx, criteria.Normalize())
type SearchCriteria struct {
	CustomerID  *kernel.UUID
	AgentID     *kernel.UUID
	Statuses    []parcel.Status
	// Text matches tracking number, pickup city or delivery city, case-insensitively.
	Text        string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Near        *ProximityFilter
	Page        int
	Limit       int
}

// Normalize applies page defaults: page 1, limit DefaultPageLimit, capped at MaxPageLimit.
// Page is capped at MaxPage.
func (c SearchCriteria) Normalize() SearchCriteria {
	if c.Page < 1 {
		c.Page = 1
	}
	if c.Page > MaxPage {
		c.Page = MaxPage
	}
	if c.Limit < 1 {
		c.Limit = DefaultPageLimit
	}
	if c.Limit > MaxPageLimit {
		c.Limit = MaxPageLimit
	}
	return c
}

// Offset is the number of rows skipped before the page.
func (c SearchCriteria) Offset() int {
	return (c.Page - 1) * c.Limit
}

// Page is one slice of a listing ordered by created_at DESC, id DESC.
type Page struct {
	Items []*parcel.Parcel
	Total int64
	Page  int
	Limit int
}

// ParcelStats feeds the admin dashboard.
type ParcelStats struct {
	Total          int64
	BookedToday    int64
	Pending        int64
	InFlight       int64
	DeliveredToday int64
	Failed         int64
	// CODCollected sums the cash-on-delivery amounts of delivered parcels.
	CODCollected   float64
}

// ParcelReader is the read side of the parcel store. Query handlers use it outside
// any unit of work.
type ParcelReader interface {
	// Get returns the parcel or an *errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error)

	// GetByTrackingNumber returns the parcel or an *errs.ObjectNotFoundError.
	GetByTrackingNumber(ctx context.Context, tn parcel.TrackingNumber) (*parcel.Parcel, error)

	// Search returns one page of parcels matching criteria, newest first.
	// Callers pass normalized criteria.
	Search(ctx context.Context, criteria SearchCriteria) (Page, error)

	// Stats aggregates the dashboard counters; "today" starts at dayStart.
	Stats(ctx context.Context, dayStart time.Time) (ParcelStats, error)
}

// ParcelRepository is the transactional parcel store used by command handlers.
type ParcelRepository interface {
	ParcelReader

	// Add persists a freshly booked parcel. A duplicate tracking number is a Conflict.
	Add(ctx context.Context, p *parcel.Parcel) error

	// Update writes p if the stored version still equals p.Version(), then advances
	// the version. A lost race returns an *errs.ConflictError and writes nothing.
	Update(ctx context.Context, p *parcel.Parcel) error

	// GetForUpdate loads the parcel and serializes concurrent writers on it for the
	// rest of the unit of work.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*parcel.Parcel, error)
}
