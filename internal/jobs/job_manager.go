package jobs

import (
	"fmt"
	"log/slog"
	"time"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	idempotencyPurgeJob *IdempotencyPurgeJob
}

// NewJobManager creates a new job manager with all required jobs.
// Takes command handlers as dependencies to wire up the job execution.
func NewJobManager(
	purgeHandler IdempotencyPurger,
	idempotencyTTL time.Duration,
	purgeSchedule string,
	logger *slog.Logger,
) *JobManager {
	return &JobManager{
		idempotencyPurgeJob: NewIdempotencyPurgeJob(purgeHandler, idempotencyTTL, purgeSchedule, logger),
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.idempotencyPurgeJob.Start(); err != nil {
		return fmt.Errorf("failed to start idempotency purge job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.idempotencyPurgeJob.Stop()
}
