// Package thresholds holds the safe/warning band configuration for each
// monitored water parameter.
package thresholds

import (
	"errors"
	"fmt"
	"time"
)

// Monitored parameter names. These double as record keys and as field names
// in sensor readings.
const (
	ParamTemperature     = "temperature"
	ParamPH              = "ph"
	ParamSalinity        = "salinity"
	ParamTurbidity       = "turbidity"
	ParamDissolvedOxygen = "dissolved_oxygen"
)

// Parameters returns the monitored parameters in display order.
func Parameters() []string {
	return []string{ParamTemperature, ParamPH, ParamSalinity, ParamTurbidity, ParamDissolvedOxygen}
}

// Record defines the four boundaries for one parameter. The safe band
// [SafeMin, SafeMax] sits inside the tolerable band [WarnMin, WarnMax]:
// WarnMin <= SafeMin <= SafeMax <= WarnMax.
type Record struct {
	Parameter string    `json:"parameter"`
	SafeMin   float64   `json:"safeMin"`
	SafeMax   float64   `json:"safeMax"`
	WarnMin   float64   `json:"warnMin"`
	WarnMax   float64   `json:"warnMax"`
	Unit      string    `json:"unit"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ErrUnknownParameter occurs when a record names a parameter outside the
// monitored set.
var ErrUnknownParameter = errors.New("thresholds: unknown parameter")

// Validate enforces the ordering invariant before persistence. Equal bounds
// are rejected; the error names the parameter and the failed comparison.
func (r Record) Validate() error {
	known := false
	for _, p := range Parameters() {
		if p == r.Parameter {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("%w: %q", ErrUnknownParameter, r.Parameter)
	}
	if !(r.SafeMin < r.SafeMax) {
		return fmt.Errorf("thresholds: %s: safeMin (%g) must be less than safeMax (%g)", r.Parameter, r.SafeMin, r.SafeMax)
	}
	if !(r.WarnMin < r.WarnMax) {
		return fmt.Errorf("thresholds: %s: warnMin (%g) must be less than warnMax (%g)", r.Parameter, r.WarnMin, r.WarnMax)
	}
	if r.WarnMin > r.SafeMin {
		return fmt.Errorf("thresholds: %s: warnMin (%g) must not exceed safeMin (%g)", r.Parameter, r.WarnMin, r.SafeMin)
	}
	if r.SafeMax > r.WarnMax {
		return fmt.Errorf("thresholds: %s: safeMax (%g) must not exceed warnMax (%g)", r.Parameter, r.SafeMax, r.WarnMax)
	}
	return nil
}

// Defaults returns the seed configuration for a tropical fish pond.
func Defaults() []Record {
	return []Record{
		{Parameter: ParamTemperature, SafeMin: 26, SafeMax: 32, WarnMin: 24, WarnMax: 34, Unit: "°C"},
		{Parameter: ParamPH, SafeMin: 6.5, SafeMax: 8.5, WarnMin: 6.0, WarnMax: 9.0, Unit: "pH"},
		{Parameter: ParamSalinity, SafeMin: 0, SafeMax: 5, WarnMin: 0, WarnMax: 10, Unit: "ppt"},
		{Parameter: ParamTurbidity, SafeMin: 0, SafeMax: 50, WarnMin: 0, WarnMax: 100, Unit: "NTU"},
		{Parameter: ParamDissolvedOxygen, SafeMin: 5, SafeMax: 12, WarnMin: 3, WarnMax: 15, Unit: "mg/L"},
	}
}
