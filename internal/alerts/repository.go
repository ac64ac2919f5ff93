package alerts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const activeColumns = `id, parameter, value, severity, threshold_desc, message, detected_at, updated_at`

const historyColumns = `id, parameter, value, severity, threshold_desc, message, detected_at, updated_at,
	acknowledged, acknowledged_at, dismissed, dismissed_at, auto_resolved, resolved_at, resolved_by, resolution_message`

// Repository persists active alerts and the append-only history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActive returns all active alerts ordered by detection time, newest first.
func (r *Repository) ListActive(ctx context.Context) ([]Alert, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+activeColumns+` FROM alerts_active ORDER BY detected_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list active alerts: %w", err)
	}
	defer rows.Close()

	var out []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.Parameter, &a.Value, &a.Severity, &a.Threshold, &a.Message, &a.DetectedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan active alert: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetActive returns one active alert by id.
func (r *Repository) GetActive(ctx context.Context, id string) (Alert, error) {
	var a Alert
	err := r.pool.QueryRow(ctx, `SELECT `+activeColumns+` FROM alerts_active WHERE id = $1`, id).
		Scan(&a.ID, &a.Parameter, &a.Value, &a.Severity, &a.Threshold, &a.Message, &a.DetectedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Alert{}, ErrAlertNotFound
		}
		return Alert{}, fmt.Errorf("get active alert: %w", err)
	}
	return a, nil
}

// InsertActive stores a newly created alert. The parameter column carries a
// unique constraint, enforcing one active alert per parameter.
func (r *Repository) InsertActive(ctx context.Context, a Alert) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alerts_active (`+activeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Parameter, a.Value, a.Severity, a.Threshold, a.Message, a.DetectedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert active alert: %w", err)
	}
	return nil
}

// UpdateActive refreshes an existing alert in place, keeping its identity
// and detection time.
func (r *Repository) UpdateActive(ctx context.Context, a Alert) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE alerts_active
		SET value = $2, severity = $3, threshold_desc = $4, message = $5, updated_at = $6
		WHERE id = $1`,
		a.ID, a.Value, a.Severity, a.Threshold, a.Message, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update active alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// DeleteActive removes one active alert by id.
func (r *Repository) DeleteActive(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM alerts_active WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete active alert: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// InsertHistory appends a terminal record. History rows are never updated.
func (r *Repository) InsertHistory(ctx context.Context, h HistoryRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO alerts_history (`+historyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		h.ID, h.Parameter, h.Value, h.Severity, h.Threshold, h.Message, h.DetectedAt, h.UpdatedAt,
		h.Acknowledged, h.AcknowledgedAt, h.Dismissed, h.DismissedAt, h.AutoResolved, h.ResolvedAt,
		nullableText(h.ResolvedBy), nullableText(h.ResolutionMessage))
	if err != nil {
		return fmt.Errorf("insert history alert: %w", err)
	}
	return nil
}

// ListHistory returns resolved alerts, newest resolution first.
func (r *Repository) ListHistory(ctx context.Context, limit int) ([]HistoryRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+historyColumns+` FROM alerts_history ORDER BY resolved_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list history alerts: %w", err)
	}
	defer rows.Close()

	var out []HistoryRecord
	for rows.Next() {
		var h HistoryRecord
		var resolvedBy, resolution *string
		if err := rows.Scan(&h.ID, &h.Parameter, &h.Value, &h.Severity, &h.Threshold, &h.Message, &h.DetectedAt, &h.UpdatedAt,
			&h.Acknowledged, &h.AcknowledgedAt, &h.Dismissed, &h.DismissedAt, &h.AutoResolved, &h.ResolvedAt,
			&resolvedBy, &resolution); err != nil {
			return nil, fmt.Errorf("scan history alert: %w", err)
		}
		if resolvedBy != nil {
			h.ResolvedBy = *resolvedBy
		}
		if resolution != nil {
			h.ResolutionMessage = *resolution
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func nullableText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
