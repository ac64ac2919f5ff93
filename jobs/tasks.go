// Package jobs defines the background task types and the Asynq worker,
// scheduler and client wrappers around them.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fishda/fishda/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAlertNotify dispatches one alert notification out of band.
	TaskAlertNotify = "alerts:notify"
	// TaskVerifyEmail sends a signup verification message.
	TaskVerifyEmail = "mail:verify"
	// TaskSignupCleanup removes stale unverified accounts.
	TaskSignupCleanup = "accounts:signup_cleanup"
	// TaskSensorRetention trims sensor readings past the retention horizon.
	TaskSensorRetention = "sensors:retention"
	// TaskAnomalyScan sweeps recent readings for statistical outliers.
	TaskAnomalyScan = "sensors:anomaly_scan"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// AlertNotifyPayload carries one alert to the notification dispatcher.
type AlertNotifyPayload struct {
	ID         string    `json:"id"`
	Parameter  string    `json:"parameter"`
	Severity   string    `json:"severity"`
	Message    string    `json:"message"`
	DetectedAt time.Time `json:"detectedAt"`
}

// NewAlertNotifyTask constructs an alert notification task.
func NewAlertNotifyTask(payload AlertNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertNotify, data), nil
}

// VerifyEmailPayload carries a signup verification message.
type VerifyEmailPayload struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// NewVerifyEmailTask constructs a verification mail task.
func NewVerifyEmailTask(payload VerifyEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskVerifyEmail, data), nil
}

// SignupCleanupPayload bounds the unverified-account sweep.
type SignupCleanupPayload struct {
	MaxAgeHours int `json:"maxAgeHours"`
}

// NewSignupCleanupTask constructs a signup cleanup task.
func NewSignupCleanupTask(payload SignupCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSignupCleanup, data), nil
}

// SensorRetentionPayload bounds the reading retention sweep.
type SensorRetentionPayload struct {
	RetentionDays int `json:"retentionDays"`
}

// NewSensorRetentionTask constructs a retention task.
func NewSensorRetentionTask(payload SensorRetentionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSensorRetention, data), nil
}

// AnomalyScanPayload controls the statistical sweep window and cutoff.
type AnomalyScanPayload struct {
	WindowHours int     `json:"windowHours"`
	Z           float64 `json:"z"`
}

// NewAnomalyScanTask constructs an anomaly scan task.
func NewAnomalyScanTask(payload AnomalyScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAnomalyScan, data), nil
}
