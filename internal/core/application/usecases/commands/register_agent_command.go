package commands

import (
	"errors"

	"parceltrack/internal/core/domain/model/identity"
	"parceltrack/internal/core/domain/model/kernel"
	"parceltrack/internal/pkg/guard"
)

var ErrRegisterAgentCommandIsNotConstructed = errors.New(
	"RegisterAgentCommand must be created via NewRegisterAgentCommand constructor",
)

// RegisterAgentCommand creates the dispatch profile of a delivery agent. agentID is
// the user ID the agent authenticates with.
type RegisterAgentCommand struct { //nolint:recvcheck //using for validation
	caller  identity.Identity
	agentID kernel.UUID
	name    string

	guard guard.ConstructorGuard
}

func NewRegisterAgentCommand(caller identity.Identity, agentID kernel.UUID, name string) (RegisterAgentCommand, error) {
	if err := errors.Join(caller.Validate(), wrapRequired("agentId", agentID.Validate())); err != nil {
		return RegisterAgentCommand{}, err
	}

	return RegisterAgentCommand{
		caller:  caller,
		agentID: agentID,
		name:    name,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c RegisterAgentCommand) Validate() error {
	return c.guard.Validate(ErrRegisterAgentCommandIsNotConstructed)
}

func (c RegisterAgentCommand) Caller() identity.Identity {
	return c.caller
}

func (c RegisterAgentCommand) AgentID() kernel.UUID {
	return c.agentID
}

func (c RegisterAgentCommand) Name() string {
	return c.name
}
