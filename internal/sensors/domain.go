// Package sensors handles reading ingest, history access and the realtime
// change feed consumed by dashboards and the alert engine.
package sensors

import (
	"errors"
	"time"

	"github.com/fishda/fishda/internal/thresholds"
)

// Reading is one sample across all monitored parameters.
type Reading struct {
	ID              int64     `json:"id,omitempty"`
	Temperature     float64   `json:"temperature"`
	PH              float64   `json:"ph"`
	Salinity        float64   `json:"salinity"`
	Turbidity       float64   `json:"turbidity"`
	DissolvedOxygen float64   `json:"dissolved_oxygen"`
	RecordedAt      time.Time `json:"recordedAt"`
}

// ErrNoReadings occurs when the store holds no samples yet.
var ErrNoReadings = errors.New("sensors: no readings")

// Value returns the sample for the named parameter.
func (r Reading) Value(parameter string) (float64, bool) {
	switch parameter {
	case thresholds.ParamTemperature:
		return r.Temperature, true
	case thresholds.ParamPH:
		return r.PH, true
	case thresholds.ParamSalinity:
		return r.Salinity, true
	case thresholds.ParamTurbidity:
		return r.Turbidity, true
	case thresholds.ParamDissolvedOxygen:
		return r.DissolvedOxygen, true
	default:
		return 0, false
	}
}

// HistoryFilter bounds a history query.
type HistoryFilter struct {
	From  time.Time
	To    time.Time
	Limit int
}
