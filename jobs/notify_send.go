package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fishda/fishda/internal/jobs"
)

// NotifyDispatchJob delivers queued alert notifications. Delivery is a log
// line today; the SMS/email channel plugs in here once provisioned.
type NotifyDispatchJob struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewNotifyDispatchJob initialises the dispatch handler.
func NewNotifyDispatchJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *NotifyDispatchJob {
	return &NotifyDispatchJob{Logger: logger, Metrics: metrics}
}

// Handle processes TaskAlertNotify tasks.
func (j *NotifyDispatchJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload AlertNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics().Track(TaskAlertNotify)
	j.logger().Warn("alert notification dispatched",
		slog.String("id", payload.ID),
		slog.String("parameter", payload.Parameter),
		slog.String("severity", payload.Severity),
		slog.String("message", payload.Message),
	)
	j.metrics().AddAlerts(payload.Severity, 1)
	return tracker.End(nil)
}

func (j *NotifyDispatchJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAlertNotify))
	}
	return slog.Default().With(slog.String("job", TaskAlertNotify))
}

func (j *NotifyDispatchJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

// HandleVerifyEmailTask processes TaskVerifyEmail tasks. The message is
// logged until an SMTP relay is configured.
func HandleVerifyEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload VerifyEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	slog.Default().Info("verification mail queued for delivery",
		slog.String("email", payload.Email),
	)
	return nil
}
