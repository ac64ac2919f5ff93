// Package alerts implements threshold classification and the active/history
// alert lifecycle for monitored water parameters.
package alerts

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/fishda/fishda/internal/platform/httpx"
	"github.com/fishda/fishda/internal/thresholds"
)

// Severity grades an out-of-band reading.
type Severity string

const (
	// SeverityWarning means the value left the safe band but is still tolerable.
	SeverityWarning Severity = "warning"
	// SeverityCritical means the value left the tolerable band entirely.
	SeverityCritical Severity = "critical"
)

// State is the derived classification of one parameter value. It is never
// persisted; it drives whether an alert exists.
type State string

const (
	// StateSafe means the value sits inside the safe band.
	StateSafe State = "safe"
	// StateWarning means the value sits in the tolerable band outside the safe band.
	StateWarning State = "warning"
	// StateCritical means the value sits outside the tolerable band.
	StateCritical State = "critical"
)

// Alert represents one parameter currently outside its safe band. At most
// one active alert exists per parameter.
type Alert struct {
	ID         string    `json:"id"`
	Parameter  string    `json:"parameter"`
	Value      float64   `json:"value"`
	Severity   Severity  `json:"severity"`
	Threshold  string    `json:"threshold"`
	Message    string    `json:"message"`
	DetectedAt time.Time `json:"detectedAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HistoryRecord is a terminal, immutable record of a resolved alert.
type HistoryRecord struct {
	Alert
	Acknowledged      bool       `json:"acknowledged"`
	AcknowledgedAt    *time.Time `json:"acknowledgedAt,omitempty"`
	Dismissed         bool       `json:"dismissed"`
	DismissedAt       *time.Time `json:"dismissedAt,omitempty"`
	AutoResolved      bool       `json:"autoResolved"`
	ResolvedAt        time.Time  `json:"resolvedAt"`
	ResolvedBy        string     `json:"resolvedBy,omitempty"`
	ResolutionMessage string     `json:"resolutionMessage,omitempty"`
}

// ErrAlertNotFound occurs when the named active alert does not exist. It
// wraps the httpx sentinel so handlers can delegate the response mapping.
var ErrAlertNotFound = fmt.Errorf("alerts: no such active alert: %w", httpx.ErrNotFound)

var titleCaser = cases.Title(language.English)

// ParameterTitle renders a parameter name for humans, e.g.
// "dissolved_oxygen" becomes "Dissolved Oxygen".
func ParameterTitle(parameter string) string {
	out := make([]byte, len(parameter))
	copy(out, parameter)
	for i := range out {
		if out[i] == '_' {
			out[i] = ' '
		}
	}
	return titleCaser.String(string(out))
}

// ThresholdDescription summarizes the band an alert was judged against.
func ThresholdDescription(t thresholds.Record) string {
	return fmt.Sprintf("safe %g-%g, tolerable %g-%g %s", t.SafeMin, t.SafeMax, t.WarnMin, t.WarnMax, t.Unit)
}

// AlertMessage builds the human-readable text for an out-of-band value.
func AlertMessage(parameter string, value float64, severity Severity, t thresholds.Record) string {
	direction := "high"
	switch severity {
	case SeverityCritical:
		if value < t.WarnMin {
			direction = "low"
		}
		return fmt.Sprintf("%s critically %s: %.2f %s (%s)", ParameterTitle(parameter), direction, value, t.Unit, ThresholdDescription(t))
	default:
		if value < t.SafeMin {
			direction = "low"
		}
		return fmt.Sprintf("%s %s: %.2f %s (%s)", ParameterTitle(parameter), direction, value, t.Unit, ThresholdDescription(t))
	}
}
