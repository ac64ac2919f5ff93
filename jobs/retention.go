package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fishda/fishda/internal/jobs"
)

// ReadingTrimmer deletes readings past a cutoff. The sensors repository
// satisfies this.
type ReadingTrimmer interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// SensorRetentionJob enforces the reading retention horizon.
type SensorRetentionJob struct {
	Trimmer ReadingTrimmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewSensorRetentionJob initialises the retention handler.
func NewSensorRetentionJob(trimmer ReadingTrimmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *SensorRetentionJob {
	return &SensorRetentionJob{
		Trimmer: trimmer,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the retention sweep.
func (j *SensorRetentionJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Trimmer == nil {
		return errors.New("sensor retention: handler not configured")
	}
	var payload SensorRetentionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.RetentionDays <= 0 {
		payload.RetentionDays = 90
	}

	tracker := j.metrics().Track(TaskSensorRetention)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	cutoff := j.now().AddDate(0, 0, -payload.RetentionDays)
	removed, err := j.Trimmer.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		resultErr = err
		j.logger().Error("retention sweep failed", slog.Any("error", err))
		return resultErr
	}
	j.logger().Info("retention sweep completed",
		slog.Int64("removed", removed),
		slog.Time("cutoff", cutoff),
	)
	return resultErr
}

func (j *SensorRetentionJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskSensorRetention))
	}
	return slog.Default().With(slog.String("job", TaskSensorRetention))
}

func (j *SensorRetentionJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *SensorRetentionJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
