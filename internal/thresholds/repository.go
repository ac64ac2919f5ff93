package thresholds

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

// List returns all threshold records keyed by parameter.
func (r *Repository) List(ctx context.Context) (map[string]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT parameter, safe_min, safe_max, warn_min, warn_max, unit, updated_at
		FROM thresholds`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := make(map[string]Record)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.Parameter, &rec.SafeMin, &rec.SafeMax, &rec.WarnMin, &rec.WarnMax, &rec.Unit, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		records[rec.Parameter] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Get returns one threshold record.
func (r *Repository) Get(ctx context.Context, parameter string) (Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT parameter, safe_min, safe_max, warn_min, warn_max, unit, updated_at
		FROM thresholds WHERE parameter = $1`, parameter)
	var rec Record
	if err := row.Scan(&rec.Parameter, &rec.SafeMin, &rec.SafeMax, &rec.WarnMin, &rec.WarnMax, &rec.Unit, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrUnknownParameter
		}
		return Record{}, err
	}
	return rec, nil
}

// Upsert writes a threshold record, inserting or replacing by parameter.
func (r *Repository) Upsert(ctx context.Context, rec Record, at time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO thresholds (parameter, safe_min, safe_max, warn_min, warn_max, unit, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (parameter) DO UPDATE SET
			safe_min = EXCLUDED.safe_min,
			safe_max = EXCLUDED.safe_max,
			warn_min = EXCLUDED.warn_min,
			warn_max = EXCLUDED.warn_max,
			unit = EXCLUDED.unit,
			updated_at = EXCLUDED.updated_at`,
		rec.Parameter, rec.SafeMin, rec.SafeMax, rec.WarnMin, rec.WarnMax, rec.Unit, at)
	return err
}
