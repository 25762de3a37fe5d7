package services

import (
	"errors"
	"time"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/parcel"
	"parceltrack/internal/pkg/errs"
)

// ErrAgentMismatch is returned when the agent profile handed to the status machine
// is not the one the parcel is assigned to.
var ErrAgentMismatch = errs.NewInvalidStateError("change parcel agent", "agent does not hold the parcel")

// TransitionMetadata carries the optional data of a transition request.
type TransitionMetadata struct {
	// Notes is free text stored on the history entry.
	Notes  string
	// Reason is required when the target is Failed.
	Reason string
	// At is the acceptance time of the transition.
	At     time.Time
}

// StatusMachine applies status changes to a parcel and keeps the agent profile in step.
//
// Key responsibilities:
//   - Rejecting unreachable targets before anything is mutated
//   - Moving the parcel between agents' lists on (re)assignment
//   - Updating agent counters when a parcel is delivered or fails
//
// Example usage:
//
//	sm := services.NewStatusMachine()
//	err := sm.Transition(p, holder, parcel.Delivered, caller, services.TransitionMetadata{At: now})
type StatusMachine struct{}

func NewStatusMachine() StatusMachine {
	return StatusMachine{}
}

// Assign moves p to Assigned for next. On reassignment previous, when provided,
// must be the agent currently holding p and gets the parcel removed from its list.
//
// Returns:
//   - InvalidState when next is inactive or already holds p
//   - ErrAgentMismatch when previous is not p's agent or its list lacks p
//   - InvalidTransition when p is not Pending or Assigned
func (StatusMachine) Assign(
	p *parcel.Parcel,
	next *agent.Agent,
	previous *agent.Agent,
	actor identity.Identity,
	meta TransitionMetadata,
) error {
	if err := errors.Join(p.Validate(), next.Validate()); err != nil {
		return err
	}
	if !next.IsActive() {
		return errs.NewInvalidStateError("assign parcel", "agent is inactive")
	}
	if previous != nil && (!p.IsAssignedTo(previous.ID()) || !previous.HasParcel(p.ID())) {
		return ErrAgentMismatch
	}

	if _, err := p.Assign(next.ID(), actor, meta.At, meta.Notes); err != nil {
		return err
	}

	if previous != nil {
		if err := previous.ReleaseParcel(p.ID()); err != nil {
			return err
		}
	}
	return next.TakeParcel(p.ID())
}

// Transition applies a non-assignment transition. holder is the assigned agent's
// profile and may be nil only for cancellation.
//
// Business rules:
//   - target must be reachable from the current status (InvalidTransition otherwise)
//   - Failed requires meta.Reason (ValidationError otherwise)
//   - Delivered and Failed release the parcel from holder and bump its counters
func (StatusMachine) Transition(
	p *parcel.Parcel,
	holder *agent.Agent,
	target parcel.Status,
	actor identity.Identity,
	meta TransitionMetadata,
) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !p.Status().CanTransitionTo(target) {
		return errs.NewInvalidTransitionError(p.Status(), target)
	}

	finishes := target == parcel.Delivered || target == parcel.Failed
	if finishes {
		if err := holder.Validate(); err != nil {
			return err
		}
		if !p.IsAssignedTo(holder.ID()) {
			return ErrAgentMismatch
		}
	}

	if err := p.Advance(target, actor, meta.At, meta.Notes, meta.Reason); err != nil {
		return err
	}

	switch target { //nolint:exhaustive // only finishing transitions touch the agent
	case parcel.Delivered:
		holder.RecordDelivered(p.ID())
	case parcel.Failed:
		holder.RecordFailed(p.ID())
	}
	return nil
}
