package agent

import (
	"errors"
	"slices"
	"strings"

	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/errs"
	"parceltrack/internal/pkg/guard"
)

// Domain errors for agent operations.
var (
	// ErrNameIsRequired is returned when attempting to register an agent without a name.
	ErrNameIsRequired = errs.NewValueIsRequiredError("name")
	// ErrAgentIsNotConstructed is returned when using an improperly initialized Agent.
	ErrAgentIsNotConstructed = errors.New("Agent must be created via NewAgent or RestoreAgent constructor")
	// ErrParcelNotHeld is returned when releasing a parcel the agent does not hold.
	ErrParcelNotHeld = errors.New("parcel is not held by the agent")
)

// Stats are the delivery counters of an agent.
type Stats struct {
	Total      int
	Successful int
	Failed     int
}

// Agent represents a delivery agent known to the dispatch core.
//
// Business rules:
//   - Agent must have a valid UUID and a non-empty name
//   - Inactive agents keep their current parcels but cannot take new ones
//   - Counters only grow; Total == Successful + Failed for finished parcels
//
// Example usage:
//
//	a, err := agent.NewAgent(userID, "Karim")
//	if err != nil {
//	    return err
//	}
//	err = a.TakeParcel(parcelID)
type Agent struct {
	id      kernel.UUID
	name    string
	active  bool
	stats   Stats
	parcels []kernel.UUID
	version int64
	guard   guard.ConstructorGuard
}

// NewAgent registers a new active agent with empty counters.
func NewAgent(id kernel.UUID, name string) (*Agent, error) {
	a := &Agent{
		active: true,
		guard:  guard.NewConstructorGuard(),
	}

	if err := errors.Join(a.setID(id), a.setName(name)); err != nil {
		return nil, err
	}

	return a, nil
}

// RestoreAgent reconstructs an Agent from persistent storage.
//
// Parameters:
//   - id, name: profile
//   - active: whether the agent accepts new parcels
//   - stats: delivery counters
//   - parcels: IDs of the parcels the agent currently holds
//   - version: optimistic concurrency token
//
// Returns:
//   - *Agent: restored aggregate
//   - error: validation error for invalid profile data, negative counters or duplicate parcels
func RestoreAgent(
	id kernel.UUID,
	name string,
	active bool,
	stats Stats,
	parcels []kernel.UUID,
	version int64,
) (*Agent, error) {
	a := &Agent{
		active:  active,
		version: version,
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		a.setID(id),
		a.setName(name),
		a.setStats(stats),
		a.setParcels(parcels),
	); err != nil {
		return nil, err
	}

	return a, nil
}

// Validate ensures the Agent instance was properly constructed.
func (a *Agent) Validate() error {
	if a == nil {
		return ErrAgentIsNotConstructed
	}
	return a.guard.Validate(ErrAgentIsNotConstructed)
}

func (a *Agent) ID() kernel.UUID {
	return a.id
}

func (a *Agent) Name() string {
	return a.name
}

func (a *Agent) IsActive() bool {
	return a.active
}

func (a *Agent) Stats() Stats {
	return a.stats
}

// Parcels returns a copy of the IDs of the parcels the agent currently holds.
func (a *Agent) Parcels() []kernel.UUID {
	return slices.Clone(a.parcels)
}

func (a *Agent) Version() int64 {
	return a.version
}

// MarkPersisted records the version the store assigned after a successful write.
func (a *Agent) MarkPersisted(version int64) {
	a.version = version
}

// HasParcel reports whether parcelID is in the agent's list.
func (a *Agent) HasParcel(parcelID kernel.UUID) bool {
	return slices.ContainsFunc(a.parcels, parcelID.IsEqual)
}

// TakeParcel adds parcelID to the agent's list.
//
// Returns:
//   - InvalidState when the agent is inactive
//   - nil when the parcel is already held
func (a *Agent) TakeParcel(parcelID kernel.UUID) error {
	if err := parcelID.Validate(); err != nil {
		return err
	}
	if !a.active {
		return errs.NewInvalidStateError("take parcel", "agent is inactive")
	}
	if a.HasParcel(parcelID) {
		return nil
	}
	a.parcels = append(a.parcels, parcelID)
	return nil
}

// ReleaseParcel removes parcelID from the agent's list without touching counters;
// used on reassignment.
func (a *Agent) ReleaseParcel(parcelID kernel.UUID) error {
	idx := slices.IndexFunc(a.parcels, parcelID.IsEqual)
	if idx < 0 {
		return ErrParcelNotHeld
	}
	a.parcels = slices.Delete(a.parcels, idx, idx+1)
	return nil
}

// RecordDelivered releases parcelID and counts a successful delivery.
func (a *Agent) RecordDelivered(parcelID kernel.UUID) {
	_ = a.ReleaseParcel(parcelID)
	a.stats.Total++
	a.stats.Successful++
}

// RecordFailed releases parcelID and counts a failed delivery.
func (a *Agent) RecordFailed(parcelID kernel.UUID) {
	_ = a.ReleaseParcel(parcelID)
	a.stats.Total++
	a.stats.Failed++
}

// Activate allows the agent to take new parcels again.
func (a *Agent) Activate() {
	a.active = true
}

// Deactivate stops new assignments; held parcels stay with the agent.
func (a *Agent) Deactivate() {
	a.active = false
}

func (a *Agent) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	a.id = id
	return nil
}

func (a *Agent) setName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrNameIsRequired
	}
	a.name = name
	return nil
}

func (a *Agent) setStats(stats Stats) error {
	if stats.Total < 0 || stats.Successful < 0 || stats.Failed < 0 {
		return errs.NewValueIsInvalidError("stats")
	}
	a.stats = stats
	return nil
}

func (a *Agent) setParcels(parcels []kernel.UUID) error {
	held := make([]kernel.UUID, 0, len(parcels))
	for _, id := range parcels {
		if err := id.Validate(); err != nil {
			return err
		}
		if slices.ContainsFunc(held, id.IsEqual) {
			return errs.NewValueIsInvalidError("parcels")
		}
		held = append(held, id)
	}
	a.parcels = held
	return nil
}
