package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
// This ensures proper isolation between concurrent operations.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork represents a business transaction boundary.
// Writes made through its repositories become visible together on Commit, or not at all.
// Client code must explicitly manage transaction lifecycle.
type UnitOfWork interface {
	// Begin starts a new transaction.
	Begin(ctx context.Context) error

	// Commit commits the current transaction.
	// Returns error if no active transaction or commit fails.
	Commit(ctx context.Context) error

	// Rollback rolls back the current transaction.
	// Returns error if no active transaction or rollback fails.
	Rollback(ctx context.Context) error

	// ParcelRepository returns a ParcelRepository bound to the current transaction.
	ParcelRepository() ParcelRepository

	// AgentRepository returns an AgentRepository bound to the current transaction.
	AgentRepository() AgentRepository

	// IdempotencyRepository returns an IdempotencyRepository bound to the current transaction.
	IdempotencyRepository() IdempotencyRepository
}
