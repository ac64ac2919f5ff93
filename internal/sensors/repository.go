package sensors

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const readingColumns = `id, temperature, ph, salinity, turbidity, dissolved_oxygen, recorded_at`

// Insert persists one reading and fills in its assigned ID.
func (r *Repository) Insert(ctx context.Context, reading *Reading) error {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sensor_readings (temperature, ph, salinity, turbidity, dissolved_oxygen, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		reading.Temperature, reading.PH, reading.Salinity, reading.Turbidity,
		reading.DissolvedOxygen, reading.RecordedAt)
	return row.Scan(&reading.ID)
}

// Latest returns the most recent reading.
func (r *Repository) Latest(ctx context.Context) (Reading, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+readingColumns+` FROM sensor_readings ORDER BY recorded_at DESC LIMIT 1`)
	var reading Reading
	if err := row.Scan(&reading.ID, &reading.Temperature, &reading.PH, &reading.Salinity,
		&reading.Turbidity, &reading.DissolvedOxygen, &reading.RecordedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Reading{}, ErrNoReadings
		}
		return Reading{}, err
	}
	return reading, nil
}

// History returns readings within the filter window, newest first.
func (r *Repository) History(ctx context.Context, filter HistoryFilter) ([]Reading, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 5000 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at DESC
		LIMIT $3`, filter.From, filter.To, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var readings []Reading
	for rows.Next() {
		var reading Reading
		if err := rows.Scan(&reading.ID, &reading.Temperature, &reading.PH, &reading.Salinity,
			&reading.Turbidity, &reading.DissolvedOxygen, &reading.RecordedAt); err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return readings, nil
}

// Series returns the chronological values of one column within a window.
// Used by analytics; parameter names are validated by the caller.
func (r *Repository) Series(ctx context.Context, parameter string, from, to time.Time) ([]float64, []time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+readingColumns+`
		FROM sensor_readings
		WHERE recorded_at >= $1 AND recorded_at <= $2
		ORDER BY recorded_at ASC`, from, to)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var values []float64
	var times []time.Time
	for rows.Next() {
		var reading Reading
		if err := rows.Scan(&reading.ID, &reading.Temperature, &reading.PH, &reading.Salinity,
			&reading.Turbidity, &reading.DissolvedOxygen, &reading.RecordedAt); err != nil {
			return nil, nil, err
		}
		v, ok := reading.Value(parameter)
		if !ok {
			continue
		}
		values = append(values, v)
		times = append(times, reading.RecordedAt)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return values, times, nil
}

// DeleteOlderThan trims readings past the retention horizon and reports how
// many rows were removed.
func (r *Repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sensor_readings WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
