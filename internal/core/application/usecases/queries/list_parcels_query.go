package queries

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/core/ports"
	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

var (
	ErrListParcelsQueryIsNotConstructed = errors.New(
		"ListParcelsQuery must be created via NewListParcelsQuery constructor",
	)
	ErrGetMyParcelsQueryIsNotConstructed = errors.New(
		"GetMyParcelsQuery must be created via NewGetMyParcelsQuery constructor",
	)
	ErrGetAgentParcelsQueryIsNotConstructed = errors.New(
		"GetAgentParcelsQuery must be created via NewGetAgentParcelsQuery constructor",
	)
)

// ListParcelsQuery is the admin listing with the full filter set.
//
// Example:
//
//	query, err := NewListParcelsQuery(admin, ports.SearchCriteria{Text: "dhaka", Page: 2})
type ListParcelsQuery struct {
	caller   identity.Identity
	criteria ports.SearchCriteria

	guard guard.ConstructorGuard
}

func NewListParcelsQuery(caller identity.Identity, criteria ports.SearchCriteria) (ListParcelsQuery, error) {
	if err := errors.Join(caller.Validate(), validateCriteria(criteria)); err != nil {
		return ListParcelsQuery{}, err
	}
	return ListParcelsQuery{
		caller:   caller,
		criteria: criteria.Normalize(),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q ListParcelsQuery) Validate() error {
	return q.guard.Validate(ErrListParcelsQueryIsNotConstructed)
}

func (q ListParcelsQuery) Caller() identity.Identity {
	return q.caller
}

func (q ListParcelsQuery) Criteria() ports.SearchCriteria {
	return q.criteria
}

// GetMyParcelsQuery lists the caller's own bookings.
type GetMyParcelsQuery struct {
	caller   identity.Identity
	statuses []parcel.Status
	page     int
	limit    int

	guard guard.ConstructorGuard
}

func NewGetMyParcelsQuery(caller identity.Identity, statuses []parcel.Status, page, limit int) (GetMyParcelsQuery, error) {
	if err := errors.Join(caller.Validate(), validateStatuses(statuses)); err != nil {
		return GetMyParcelsQuery{}, err
	}
	return GetMyParcelsQuery{
		caller:   caller,
		statuses: statuses,
		page:     page,
		limit:    limit,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetMyParcelsQuery) Validate() error {
	return q.guard.Validate(ErrGetMyParcelsQueryIsNotConstructed)
}

func (q GetMyParcelsQuery) Caller() identity.Identity {
	return q.caller
}

func (q GetMyParcelsQuery) Criteria() ports.SearchCriteria {
	customerID := q.caller.UserID()
	return ports.SearchCriteria{
		CustomerID: &customerID,
		Statuses:   q.statuses,
		Page:       q.page,
		Limit:      q.limit,
	}.Normalize()
}

// GetAgentParcelsQuery lists the parcels assigned to the calling agent. Without an
// explicit status filter only work in progress (Assigned, PickedUp, InTransit) is listed.
type GetAgentParcelsQuery struct {
	caller   identity.Identity
	statuses []parcel.Status
	page     int
	limit    int

	guard guard.ConstructorGuard
}

func NewGetAgentParcelsQuery(caller identity.Identity, statuses []parcel.Status, page, limit int) (GetAgentParcelsQuery, error) {
	if err := errors.Join(caller.Validate(), validateStatuses(statuses)); err != nil {
		return GetAgentParcelsQuery{}, err
	}
	if len(statuses) == 0 {
		statuses = []parcel.Status{parcel.Assigned, parcel.PickedUp, parcel.InTransit}
	}
	return GetAgentParcelsQuery{
		caller:   caller,
		statuses: statuses,
		page:     page,
		limit:    limit,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetAgentParcelsQuery) Validate() error {
	return q.guard.Validate(ErrGetAgentParcelsQueryIsNotConstructed)
}

func (q GetAgentParcelsQuery) Caller() identity.Identity {
	return q.caller
}

func (q GetAgentParcelsQuery) Criteria() ports.SearchCriteria {
	agentID := q.caller.UserID()
	return ports.SearchCriteria{
		AgentID:  &agentID,
		Statuses: q.statuses,
		Page:     q.page,
		Limit:    q.limit,
	}.Normalize()
}

func validateStatuses(statuses []parcel.Status) error {
	for _, s := range statuses {
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func validateCriteria(c ports.SearchCriteria) error {
	var errList []error
	errList = append(errList, validateStatuses(c.Statuses))
	if c.CreatedFrom != nil && c.CreatedTo != nil && c.CreatedTo.Before(*c.CreatedFrom) {
		errList = append(errList, errs.NewValueIsInvalidError("to"))
	}
	if c.Near != nil {
		errList = append(errList, c.Near.Center.Validate())
		if c.Near.RadiusKm <= 0 {
			errList = append(errList, errs.NewValueIsOutOfRangeError("radiusKm", c.Near.RadiusKm, 0, "unbounded"))
		}
	}
	return errors.Join(errList...)
}
