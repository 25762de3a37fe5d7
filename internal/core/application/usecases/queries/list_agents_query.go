package queries

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/guard"
)

var (
	ErrListAgentsQueryIsNotConstructed = errors.New(
		"ListAgentsQuery must be created via NewListAgentsQuery constructor",
	)
)

// ListAgentsQuery lists agent profiles for the dispatch screen.
type ListAgentsQuery struct {
	caller     identity.Identity
	activeOnly bool

	guard guard.ConstructorGuard
}

func NewListAgentsQuery(caller identity.Identity, activeOnly bool) (ListAgentsQuery, error) {
	if err := caller.Validate(); err != nil {
		return ListAgentsQuery{}, err
	}
	return ListAgentsQuery{caller: caller, activeOnly: activeOnly, guard: guard.NewConstructorGuard()}, nil
}

func (q ListAgentsQuery) Validate() error {
	return q.guard.Validate(ErrListAgentsQueryIsNotConstructed)
}

func (q ListAgentsQuery) Caller() identity.Identity {
	return q.caller
}

func (q ListAgentsQuery) ActiveOnly() bool {
	return q.activeOnly
}

// ListAgentsQueryResponse is the agent read model, sorted by name.
type ListAgentsQueryResponse struct {
	ID                   kernel.UUID
	Name                 string
	Active               bool
	TotalDeliveries      int
	SuccessfulDeliveries int
	FailedDeliveries     int
	AssignedParcels      int
}
