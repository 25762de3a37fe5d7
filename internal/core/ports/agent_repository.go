package ports

import (
	"context"

	"parceltrack/internal/core/domain/model/agent"
	"parceltrack/internal/core/domain/model/kernel"
)

// AgentReader is the read side of the agent store.
type AgentReader interface {
	// Get returns the agent or an *errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*agent.Agent, error)

	// List returns agents ordered by name; activeOnly hides deactivated profiles.
	List(ctx context.Context, activeOnly bool) ([]*agent.Agent, error)
}

// AgentRepository is the transactional agent store.
type AgentRepository interface {
	AgentReader

	// Add persists a new agent. An existing ID is a Conflict.
	Add(ctx context.Context, a *agent.Agent) error

	// Update compares and swaps on the agent version, like ParcelRepository.Update.
	Update(ctx context.Context, a *agent.Agent) error

	// GetForUpdate loads the agent and serializes concurrent writers on it for the
	// rest of the unit of work.
	GetForUpdate(ctx context.Context, id kernel.UUID) (*agent.Agent, error)
}
