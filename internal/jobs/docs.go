// Package jobs provides scheduled background tasks for the dispatch core.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3.
//
// # Available Jobs
//
// IdempotencyPurgeJob - removes booking idempotency keys once they are older than
// the configured TTL (IDEMPOTENCY_TTL, default 24h). A replayed booking request
// arriving after its key was purged creates a new parcel.
//
// # Usage
//
//	jobManager := jobs.NewJobManager(purgeHandler, 24*time.Hour, "0 0 * * * *", logger)
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//	defer jobManager.StopAll()
//
// # Scheduling
//
// Schedules use the six-field cron format with a leading seconds field. The
// default runs the purge once an hour.
//
// # Error Handling
//
// Purge failures are logged and retried on the next tick.
package jobs
