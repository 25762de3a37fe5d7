package parcel

import (
	"fmt"
	"strings"

	"parceltrack/internal/pkg/errs"
)

// Status represents the lifecycle state of a parcel.
// It is the sole authority on which status changes are legal.
//
// State transitions:
//
//	Pending ──assign──> Assigned ──pickup──> PickedUp ──transit──> InTransit ──deliver──> Delivered
//	   │                  │  ▲                   │                      │
//	   │                  └──┘ (reassign)        └───────fail───────────┴──────> Failed
//	   └──cancel──> Cancelled
//
// Delivered, Failed and Cancelled are terminal: no transition leaves them.
type Status int

const (
	// Unknown represents an invalid or undefined status.
	// This value (0) helps catch uninitialized Status values.
	Unknown Status = iota

	// Pending is the initial status of a freshly booked parcel.
	Pending

	// Assigned means an agent is responsible for the pickup.
	Assigned

	// PickedUp means the agent has collected the parcel.
	PickedUp

	// InTransit means the parcel is on its way to the delivery address.
	InTransit

	// Delivered is terminal: the parcel reached the recipient.
	Delivered

	// Failed is terminal: the delivery attempt failed and a reason was recorded.
	Failed

	// Cancelled is terminal: the booking was withdrawn before assignment.
	Cancelled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:   "Unknown",
		Pending:   "Pending",
		Assigned:  "Assigned",
		PickedUp:  "PickedUp",
		InTransit: "InTransit",
		Delivered: "Delivered",
		Failed:    "Failed",
		Cancelled: "Cancelled",
	}
}

// getTransitions lists, per status, the statuses reachable in one step.
func getTransitions() map[Status][]Status {
	//nolint:exhaustive // terminal statuses have no outgoing edges
	return map[Status][]Status{
		Pending:   {Assigned, Cancelled},
		Assigned:  {Assigned, PickedUp},
		PickedUp:  {InTransit, Failed},
		InTransit: {Delivered, Failed},
	}
}

// AllStatuses returns every valid status in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Assigned, PickedUp, InTransit, Delivered, Failed, Cancelled}
}

// ParseStatus converts the persisted/wire name of a status (case-insensitive) into a Status.
//
// Example:
//
//	s, err := parcel.ParseStatus("InTransit")
func ParseStatus(s string) (Status, error) {
	needle := strings.TrimSpace(s)
	for status, name := range getStatusStrings() {
		if status != Unknown && strings.EqualFold(name, needle) {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate checks if the Status value is one of the seven lifecycle states.
func (s Status) Validate() error {
	if s <= Unknown || s > Cancelled {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// String returns the human-readable name of the status, "Unknown" for invalid values.
func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "Unknown"
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return s == Delivered || s == Failed || s == Cancelled
}

// IsEnRoute reports whether the assigned agent is physically carrying the parcel,
// the only statuses in which location reports are accepted.
func (s Status) IsEnRoute() bool {
	return s == PickedUp || s == InTransit
}

// CanTransitionTo reports whether target is reachable from s in one step.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range getTransitions()[s] {
		if next == target {
			return true
		}
	}
	return false
}

// Transition validates the move from s to target without side effects.
//
// Returns:
//   - target if the move is legal
//   - an *errs.InvalidTransitionError otherwise
//
// Example:
//
//	next, err := parcel.PickedUp.Transition(parcel.Delivered)
//	// err: invalid transition: PickedUp -> Delivered
func (s Status) Transition(target Status) (Status, error) {
	if err := target.Validate(); err != nil {
		return s, err
	}
	if !s.CanTransitionTo(target) {
		return s, errs.NewInvalidTransitionError(s, target)
	}
	return target, nil
}

// IsAgentDriven reports whether the assigned agent may request target through a
// status update. Assignment and cancellation have dedicated operations.
func (s Status) IsAgentDriven() bool {
	return s == PickedUp || s == InTransit || s == Delivered || s == Failed
}

// ValidateCanHaveAgent checks consistency between the status and the presence of an
// assigned agent: Pending and Cancelled parcels never carry one, every other
// status does.
func (s Status) ValidateCanHaveAgent(hasAgent bool) error {
	needsAgent := s != Pending && s != Cancelled
	if hasAgent != needsAgent {
		return errs.NewValueIsInvalidErrorWithCause(
			"agent",
			fmt.Errorf("%s parcel with agent assigned=%t", s, hasAgent),
		)
	}
	return nil
}
