// Package analytics computes descriptive statistics, trends, correlations
// and anomaly candidates over stored sensor readings.
package analytics

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// zScoreCutoff marks a sample as anomalous when it sits this many standard
// deviations from the window mean.
const zScoreCutoff = 2.5

// stableSlopeEpsilon is the per-hour slope magnitude below which a trend is
// reported as stable rather than rising or falling.
const stableSlopeEpsilon = 0.01

// Summary describes one parameter over a window.
type Summary struct {
	Parameter string  `json:"parameter"`
	Count     int     `json:"count"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Mean      float64 `json:"mean"`
	StdDev    float64 `json:"stdDev"`
	Latest    float64 `json:"latest"`
}

// ForecastPoint is one projected value on a fitted trend line.
type ForecastPoint struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// Trend is a least-squares line fitted to one parameter's series.
type Trend struct {
	Parameter    string          `json:"parameter"`
	SlopePerHour float64         `json:"slopePerHour"`
	Intercept    float64         `json:"intercept"`
	Direction    string          `json:"direction"`
	Forecast     []ForecastPoint `json:"forecast"`
}

// AnomalyPoint is a sample whose z-score exceeds the cutoff.
type AnomalyPoint struct {
	At     time.Time `json:"at"`
	Value  float64   `json:"value"`
	ZScore float64   `json:"zScore"`
}

// Summarize computes descriptive statistics for one chronological series.
// Empty series yield a zero Summary with Count 0.
func Summarize(parameter string, values []float64) Summary {
	s := Summary{Parameter: parameter, Count: len(values)}
	if len(values) == 0 {
		return s
	}
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	s.Mean = stat.Mean(values, nil)
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	s.Latest = values[len(values)-1]
	return s
}

// FitTrend fits a least-squares line through the series, expressing the
// slope per hour, and projects it forward. At least two samples are needed;
// smaller series return a flat stable trend anchored on the single value.
func FitTrend(parameter string, values []float64, times []time.Time, forecastHours int) Trend {
	trend := Trend{Parameter: parameter, Direction: "stable"}
	if len(values) == 0 || len(values) != len(times) {
		return trend
	}
	if len(values) == 1 {
		trend.Intercept = values[0]
		return trend
	}

	origin := times[0]
	xs := make([]float64, len(times))
	for i, at := range times {
		xs[i] = at.Sub(origin).Hours()
	}

	alpha, beta := stat.LinearRegression(xs, values, nil, false)
	trend.Intercept = alpha
	trend.SlopePerHour = beta
	switch {
	case beta > stableSlopeEpsilon:
		trend.Direction = "rising"
	case beta < -stableSlopeEpsilon:
		trend.Direction = "falling"
	}

	last := times[len(times)-1]
	for h := 1; h <= forecastHours; h++ {
		at := last.Add(time.Duration(h) * time.Hour)
		trend.Forecast = append(trend.Forecast, ForecastPoint{
			At:    at,
			Value: alpha + beta*at.Sub(origin).Hours(),
		})
	}
	return trend
}

// Correlate returns the Pearson correlation of two equally sampled series,
// and false when either series is too short or constant.
func Correlate(a, b []float64) (float64, bool) {
	if len(a) < 2 || len(a) != len(b) {
		return 0, false
	}
	if stat.StdDev(a, nil) == 0 || stat.StdDev(b, nil) == 0 {
		return 0, false
	}
	return stat.Correlation(a, b, nil), true
}

// DetectAnomalies flags samples whose z-score against the window mean
// exceeds the cutoff. Series shorter than three samples or with zero
// variance produce no anomalies.
func DetectAnomalies(values []float64, times []time.Time) []AnomalyPoint {
	if len(values) < 3 || len(values) != len(times) {
		return nil
	}
	mean := stat.Mean(values, nil)
	sd := stat.StdDev(values, nil)
	if sd == 0 {
		return nil
	}
	var out []AnomalyPoint
	for i, v := range values {
		z := (v - mean) / sd
		if z >= zScoreCutoff || z <= -zScoreCutoff {
			out = append(out, AnomalyPoint{At: times[i], Value: v, ZScore: z})
		}
	}
	return out
}
