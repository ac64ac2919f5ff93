package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/fishda/fishda/internal/jobs"
)

// SignupCleanupJob removes accounts that never verified their email.
type SignupCleanupJob struct {
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSignupCleanupJob initialises the cleanup handler.
func NewSignupCleanupJob(pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *SignupCleanupJob {
	return &SignupCleanupJob{
		Pool:    pool,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the cleanup. Only unverified, still-disabled accounts past
// the age limit are removed; anything an admin touched keeps its row.
func (j *SignupCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Pool == nil {
		return errors.New("signup cleanup: handler not configured")
	}
	var payload SignupCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.MaxAgeHours <= 0 {
		payload.MaxAgeHours = 48
	}

	tracker := j.metrics().Track(TaskSignupCleanup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().Add(-time.Duration(payload.MaxAgeHours) * time.Hour)
	tag, err := j.Pool.Exec(ctx, `
		DELETE FROM users
		WHERE email_verified = false AND status = 'disabled' AND created_at < $1`, cutoff)
	if err != nil {
		resultErr = err
		j.logger().Error("cleanup failed", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("signup cleanup completed",
		slog.Int64("removed", tag.RowsAffected()),
		slog.Time("cutoff", cutoff),
	)
	return resultErr
}

func (j *SignupCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSignupCleanup))
	}
	return slog.Default().With(slog.String("job", TaskSignupCleanup))
}

func (j *SignupCleanupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SignupCleanupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
