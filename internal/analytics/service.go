package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fishda/fishda/internal/thresholds"
)

// SeriesSource supplies chronological values for one parameter.
type SeriesSource interface {
	Series(ctx context.Context, parameter string, from, to time.Time) ([]float64, []time.Time, error)
}

// Service computes analytics over stored readings, caching results under
// the global cache version.
type Service struct {
	source SeriesSource
	cache  *Cache
	logger *slog.Logger
	clock  func() time.Time
}

// NewService constructs a Service. cache may be nil; results are then
// computed on every call.
func NewService(source SeriesSource, cache *Cache, logger *slog.Logger) *Service {
	return &Service{
		source: source,
		cache:  cache,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Window bounds an analytics query. Hours is clamped to [1, 720] with a
// 24 hour default, and the end snaps to the current minute so repeated
// requests within a minute share a cache key.
type Window struct {
	From time.Time
	To   time.Time
}

// WindowOverHours builds a window ending now.
func (s *Service) WindowOverHours(hours int) Window {
	if hours < 1 || hours > 720 {
		hours = 24
	}
	to := s.clock().Truncate(time.Minute)
	return Window{From: to.Add(-time.Duration(hours) * time.Hour), To: to}
}

// Overview returns one summary per monitored parameter.
func (s *Service) Overview(ctx context.Context, w Window) ([]Summary, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		out := make([]Summary, 0, len(thresholds.Parameters()))
		for _, parameter := range thresholds.Parameters() {
			values, _, err := s.source.Series(ctx, parameter, w.From, w.To)
			if err != nil {
				return nil, fmt.Errorf("overview %s: %w", parameter, err)
			}
			out = append(out, Summarize(parameter, values))
		}
		return out, nil
	}

	key, err := s.cache.BuildKey(ctx, keyOverview(w.From, w.To))
	if err != nil {
		return nil, err
	}
	var summaries []Summary
	if err := s.cache.FetchJSON(ctx, key, &summaries, loader); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Trend fits and projects the trend line for one parameter.
func (s *Service) Trend(ctx context.Context, parameter string, w Window, forecastHours int) (Trend, error) {
	if err := validParameter(parameter); err != nil {
		return Trend{}, err
	}
	if forecastHours < 1 || forecastHours > 48 {
		forecastHours = 6
	}
	loader := func(ctx context.Context) (interface{}, error) {
		values, times, err := s.source.Series(ctx, parameter, w.From, w.To)
		if err != nil {
			return nil, fmt.Errorf("trend %s: %w", parameter, err)
		}
		return FitTrend(parameter, values, times, forecastHours), nil
	}

	key, err := s.cache.BuildKey(ctx, keyTrend(parameter, w.From, w.To))
	if err != nil {
		return Trend{}, err
	}
	var trend Trend
	if err := s.cache.FetchJSON(ctx, key, &trend, loader); err != nil {
		return Trend{}, err
	}
	return trend, nil
}

// CorrelationPair is the Pearson correlation between two parameters.
type CorrelationPair struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	Coefficient float64 `json:"coefficient"`
}

// Correlations computes pairwise correlations across all parameters. Pairs
// with insufficient or constant data are omitted.
func (s *Service) Correlations(ctx context.Context, w Window) ([]CorrelationPair, error) {
	loader := func(ctx context.Context) (interface{}, error) {
		params := thresholds.Parameters()
		series := make(map[string][]float64, len(params))
		for _, parameter := range params {
			values, _, err := s.source.Series(ctx, parameter, w.From, w.To)
			if err != nil {
				return nil, fmt.Errorf("correlations %s: %w", parameter, err)
			}
			series[parameter] = values
		}
		var out []CorrelationPair
		for i := 0; i < len(params); i++ {
			for j := i + 1; j < len(params); j++ {
				coeff, ok := Correlate(series[params[i]], series[params[j]])
				if !ok {
					continue
				}
				out = append(out, CorrelationPair{A: params[i], B: params[j], Coefficient: coeff})
			}
		}
		return out, nil
	}

	key, err := s.cache.BuildKey(ctx, keyCorrelations(w.From, w.To))
	if err != nil {
		return nil, err
	}
	var pairs []CorrelationPair
	if err := s.cache.FetchJSON(ctx, key, &pairs, loader); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Anomalies returns z-score outliers for one parameter.
func (s *Service) Anomalies(ctx context.Context, parameter string, w Window) ([]AnomalyPoint, error) {
	if err := validParameter(parameter); err != nil {
		return nil, err
	}
	loader := func(ctx context.Context) (interface{}, error) {
		values, times, err := s.source.Series(ctx, parameter, w.From, w.To)
		if err != nil {
			return nil, fmt.Errorf("anomalies %s: %w", parameter, err)
		}
		return DetectAnomalies(values, times), nil
	}

	key, err := s.cache.BuildKey(ctx, keyAnomalies(parameter, w.From, w.To))
	if err != nil {
		return nil, err
	}
	var points []AnomalyPoint
	if err := s.cache.FetchJSON(ctx, key, &points, loader); err != nil {
		return nil, err
	}
	return points, nil
}

func validParameter(parameter string) error {
	for _, p := range thresholds.Parameters() {
		if p == parameter {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", thresholds.ErrUnknownParameter, parameter)
}
