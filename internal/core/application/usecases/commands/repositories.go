// Package commands contains business operations that modify system state.
// Implements the Command pattern for write operations in the CQRS architecture.
// All commands follow a consistent pattern: authorization, validation, transaction
// management, persistence, and best-effort notification after commit.
package commands

import (
	"context"

	"parceltrack/internal/core/ports"
)

// Unit of Work interfaces provide transaction management for command handlers.
// These abstractions ensure data consistency across aggregate boundaries.
type (
	// TxManager handles transaction lifecycle.
	// Ensures atomic operations across multiple repository calls.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// ParcelRepoFactory provides access to the parcel repository within a transaction.
	ParcelRepoFactory interface {
		ParcelRepository() ports.ParcelRepository
	}

	// AgentRepoFactory provides access to the agent repository within a transaction.
	AgentRepoFactory interface {
		AgentRepository() ports.AgentRepository
	}

	// IdempotencyRepoFactory provides access to the idempotency keys within a transaction.
	IdempotencyRepoFactory interface {
		IdempotencyRepository() ports.IdempotencyRepository
	}

	// ParcelUoW manages transactions for parcel-only operations
	// (cancellation, location reports).
	ParcelUoW interface {
		TxManager
		ParcelRepoFactory
	}

	// ParcelUoWFactory creates new parcel unit of work instances.
	ParcelUoWFactory interface {
		Create() ParcelUoW
	}

	// AgentUoW manages transactions for agent-only operations.
	AgentUoW interface {
		TxManager
		AgentRepoFactory
	}

	// AgentUoWFactory creates new agent unit of work instances.
	AgentUoWFactory interface {
		Create() AgentUoW
	}

	// BookingUoW stores a new parcel together with its idempotency key.
	BookingUoW interface {
		TxManager
		ParcelRepoFactory
		IdempotencyRepoFactory
	}

	// BookingUoWFactory creates new booking unit of work instances.
	BookingUoWFactory interface {
		Create() BookingUoW
	}

	// IdempotencyUoW manages transactions for idempotency key maintenance.
	IdempotencyUoW interface {
		TxManager
		IdempotencyRepoFactory
	}

	// IdempotencyUoWFactory creates new idempotency unit of work instances.
	IdempotencyUoWFactory interface {
		Create() IdempotencyUoW
	}

	// UoW manages transactions across both parcel and agent aggregates.
	// Used for commands that move parcels between agents or update agent counters.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   parcelRepo := uow.ParcelRepository()
	//   agentRepo := uow.AgentRepository()
	//   // ... perform operations
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		ParcelRepoFactory
		AgentRepoFactory
	}

	// UoWFactory creates new unit of work instances for cross-aggregate operations.
	UoWFactory interface {
		Create() UoW
	}
)
