package commands

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/guard"
)

var ErrSetAgentActiveCommandIsNotConstructed = errors.New(
	"SetAgentActiveCommand must be created via NewSetAgentActiveCommand constructor",
)

// SetAgentActiveCommand enables or disables new assignments for an agent.
type SetAgentActiveCommand struct { //nolint:recvcheck //using for validation
	caller  identity.Identity
	agentID kernel.UUID
	active  bool

	guard guard.ConstructorGuard
}

func NewSetAgentActiveCommand(caller identity.Identity, agentID kernel.UUID, active bool) (SetAgentActiveCommand, error) {
	if err := errors.Join(caller.Validate(), agentID.Validate()); err != nil {
		return SetAgentActiveCommand{}, err
	}

	return SetAgentActiveCommand{
		caller:  caller,
		agentID: agentID,
		active:  active,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c SetAgentActiveCommand) Validate() error {
	return c.guard.Validate(ErrSetAgentActiveCommandIsNotConstructed)
}

func (c SetAgentActiveCommand) Caller() identity.Identity {
	return c.caller
}

func (c SetAgentActiveCommand) AgentID() kernel.UUID {
	return c.agentID
}

func (c SetAgentActiveCommand) Active() bool {
	return c.active
}
