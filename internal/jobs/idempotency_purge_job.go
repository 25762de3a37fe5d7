package jobs

import (
	"context"
	"log/slog"
	"time"

	"parceltrack/internal/core/application/usecases/commands"

	"github.com/robfig/cron/v3"
)

// DefaultPurgeSchedule runs the purge every hour at minute zero.
const DefaultPurgeSchedule = "0 0 * * * *"

// IdempotencyPurger is satisfied by commands.PurgeIdempotencyKeysCommandHandler.
type IdempotencyPurger interface {
	Handle(ctx context.Context, cmd commands.PurgeIdempotencyKeysCommand) (int64, error)
}

// IdempotencyPurgeJob removes booking idempotency keys older than the TTL.
type IdempotencyPurgeJob struct {
	handler  IdempotencyPurger
	ttl      time.Duration
	schedule string
	now      func() time.Time
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewIdempotencyPurgeJob creates the job. Schedule uses the six-field cron format
// with seconds; an empty schedule falls back to DefaultPurgeSchedule.
func NewIdempotencyPurgeJob(handler IdempotencyPurger, ttl time.Duration, schedule string, logger *slog.Logger) *IdempotencyPurgeJob {
	if schedule == "" {
		schedule = DefaultPurgeSchedule
	}
	return &IdempotencyPurgeJob{
		handler:  handler,
		ttl:      ttl,
		schedule: schedule,
		now:      time.Now,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "idempotency_purge_job"),
	}
}

// Start registers the purge on the schedule and starts the scheduler.
func (j *IdempotencyPurgeJob) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, func() { j.RunOnce(context.Background()) }); err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Idempotency purge job started",
		"schedule", j.schedule, "ttl", j.ttl)
	return nil
}

// RunOnce purges keys created before now minus the TTL.
func (j *IdempotencyPurgeJob) RunOnce(ctx context.Context) {
	cmd, err := commands.NewPurgeIdempotencyKeysCommand(j.now().Add(-j.ttl))
	if err != nil {
		j.logger.ErrorContext(ctx, "Idempotency purge job failed", "error", err)
		return
	}

	removed, err := j.handler.Handle(ctx, cmd)
	if err != nil {
		j.logger.ErrorContext(ctx, "Idempotency purge job failed", "error", err)
		return
	}
	if removed > 0 {
		j.logger.InfoContext(ctx, "Expired idempotency keys removed", "count", removed)
	}
}

// Stop stops the scheduler and waits for a running purge to finish.
func (j *IdempotencyPurgeJob) Stop() {
	<-j.cron.Stop().Done()
	j.logger.InfoContext(context.Background(), "Idempotency purge job stopped")
}
