package commands

import (
	"errors"
	"strings"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/guard"
)

var ErrAssignAgentCommandIsNotConstructed = errors.New(
	"AssignAgentCommand must be created via NewAssignAgentCommand constructor",
)

// AssignAgentCommand hands a parcel to a delivery agent, or moves an Assigned parcel
// to another agent.
//
// Example:
//
//	cmd, err := NewAssignAgentCommand(admin, parcelID, agentID, "closest to pickup")
//	if err != nil {
//	    return err
//	}
//	result, err := handler.Handle(ctx, cmd)
type AssignAgentCommand struct { //nolint:recvcheck //using for validation
	caller   identity.Identity
	parcelID kernel.UUID
	agentID  kernel.UUID
	notes    string

	guard guard.ConstructorGuard
}

// NewAssignAgentCommand creates an assignment request.
func NewAssignAgentCommand(caller identity.Identity, parcelID, agentID kernel.UUID, notes string) (AssignAgentCommand, error) {
	if err := errors.Join(
		caller.Validate(),
		parcelID.Validate(),
		wrapRequired("agentId", agentID.Validate()),
	); err != nil {
		return AssignAgentCommand{}, err
	}

	return AssignAgentCommand{
		caller:   caller,
		parcelID: parcelID,
		agentID:  agentID,
		notes:    strings.TrimSpace(notes),
		guard:    guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c AssignAgentCommand) Validate() error {
	return c.guard.Validate(ErrAssignAgentCommandIsNotConstructed)
}

func (c AssignAgentCommand) Caller() identity.Identity {
	return c.caller
}

func (c AssignAgentCommand) ParcelID() kernel.UUID {
	return c.parcelID
}

func (c AssignAgentCommand) AgentID() kernel.UUID {
	return c.agentID
}

func (c AssignAgentCommand) Notes() string {
	return c.notes
}
