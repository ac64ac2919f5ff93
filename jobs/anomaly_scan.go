package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"time"

	"github.com/hibiken/asynq"
	"gonum.org/v1/gonum/stat"

	jobmetrics "github.com/fishda/fishda/internal/jobs"
	"github.com/fishda/fishda/internal/thresholds"
)

// SeriesSource supplies chronological values for one parameter. The sensors
// repository satisfies this.
type SeriesSource interface {
	Series(ctx context.Context, parameter string, from, to time.Time) ([]float64, []time.Time, error)
}

// AnomalyScanJob sweeps recent readings for samples far from the window
// mean. It complements the threshold engine: a value can be statistically
// abnormal while still inside its configured band.
type AnomalyScanJob struct {
	Source  SeriesSource
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewAnomalyScanJob initialises the anomaly scan handler.
func NewAnomalyScanJob(source SeriesSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *AnomalyScanJob {
	return &AnomalyScanJob{
		Source:  source,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the anomaly scan logic.
func (j *AnomalyScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Source == nil {
		return errors.New("anomaly scan: handler not configured")
	}
	var payload AnomalyScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.WindowHours <= 0 {
		payload.WindowHours = 72
	}
	if payload.Z <= 0 {
		payload.Z = 2.5
	}

	tracker := j.metrics().Track(TaskAnomalyScan)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	start := j.now()
	logger := j.logger().With(
		slog.Int("window_hours", payload.WindowHours),
		slog.Float64("z_threshold", payload.Z),
	)
	logger.Info("starting anomaly scan")

	from := start.Add(-time.Duration(payload.WindowHours) * time.Hour)
	total := 0
	for _, parameter := range thresholds.Parameters() {
		values, times, err := j.Source.Series(ctx, parameter, from, start)
		if err != nil {
			resultErr = err
			logger.Error("scan failed", slog.String("parameter", parameter), slog.Any("error", err))
			return resultErr
		}
		found := j.scanSeries(logger, parameter, payload.Z, values, times)
		if found > 0 {
			j.metrics().AddAnomalies(parameter, found)
			total += found
		}
	}

	logger.Info("completed anomaly scan",
		slog.Int("anomalies", total),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *AnomalyScanJob) scanSeries(logger *slog.Logger, parameter string, z float64, values []float64, times []time.Time) int {
	if len(values) < 3 {
		return 0
	}
	mean := stat.Mean(values, nil)
	stddev := stat.StdDev(values, nil)
	if stddev == 0 {
		return 0
	}
	found := 0
	for i, v := range values {
		zscore := math.Abs((v - mean) / stddev)
		severity := ""
		switch {
		case zscore >= z:
			severity = "HIGH"
		case zscore >= z*0.6:
			severity = "MEDIUM"
		default:
			continue
		}
		logger.Warn("water-quality anomaly detected",
			slog.String("parameter", parameter),
			slog.String("severity", severity),
			slog.Float64("value", v),
			slog.Float64("z_score", zscore),
			slog.Time("recorded_at", times[i]),
		)
		found++
	}
	return found
}

func (j *AnomalyScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnomalyScan))
	}
	return slog.Default().With(slog.String("job", TaskAnomalyScan))
}

func (j *AnomalyScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *AnomalyScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
