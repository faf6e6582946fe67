package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

const (
	windowColumns   = `id, day_of_week, start_time, end_time, active, created_at, updated_at`
	blackoutColumns = `id, start_at, end_at, reason, created_at`
)

// AvailabilityRepository reads and maintains weekly windows and blackouts.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository creates a new instance of AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListWindows returns weekly windows ordered by weekday and start time.
func (r *AvailabilityRepository) ListWindows(ctx context.Context, activeOnly bool) ([]models.AvailabilityWindow, error) {
	query := `SELECT ` + windowColumns + ` FROM availability_windows`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY day_of_week ASC, start_time ASC`

	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, query); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}
	return windows, nil
}

// FindWindowByID returns a single window.
func (r *AvailabilityRepository) FindWindowByID(ctx context.Context, id string) (*models.AvailabilityWindow, error) {
	const query = `SELECT ` + windowColumns + ` FROM availability_windows WHERE id = $1 LIMIT 1`
	var w models.AvailabilityWindow
	if err := r.db.GetContext(ctx, &w, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find availability window: %w", err)
	}
	return &w, nil
}

// CreateWindow inserts a weekly window.
func (r *AvailabilityRepository) CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now

	const query = `INSERT INTO availability_windows (id, day_of_week, start_time, end_time, active, created_at, updated_at) VALUES (:id, :day_of_week, :start_time, :end_time, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, w); err != nil {
		return fmt.Errorf("create availability window: %w", translatePQ(err))
	}
	return nil
}

// UpdateWindow replaces the mutable fields of a window.
func (r *AvailabilityRepository) UpdateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	w.UpdatedAt = time.Now().UTC()
	const query = `UPDATE availability_windows SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, active = :active, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, w)
	if err != nil {
		return fmt.Errorf("update availability window: %w", translatePQ(err))
	}
	return requireAffected(res)
}

// DeleteWindow removes a window.
func (r *AvailabilityRepository) DeleteWindow(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM availability_windows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	return requireAffected(res)
}

// ListBlackouts returns blackouts intersecting [from, to). Nil bounds are open.
func (r *AvailabilityRepository) ListBlackouts(ctx context.Context, filter models.BlackoutFilter) ([]models.Blackout, error) {
	query := `SELECT ` + blackoutColumns + ` FROM blackouts`
	var conditions []string
	var args []interface{}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("start_at < $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("end_at > $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY start_at ASC`

	var blackouts []models.Blackout
	if err := r.db.SelectContext(ctx, &blackouts, query, args...); err != nil {
		return nil, fmt.Errorf("list blackouts: %w", err)
	}
	return blackouts, nil
}

// FindBlackoutByID returns a single blackout.
func (r *AvailabilityRepository) FindBlackoutByID(ctx context.Context, id string) (*models.Blackout, error) {
	const query = `SELECT ` + blackoutColumns + ` FROM blackouts WHERE id = $1 LIMIT 1`
	var b models.Blackout
	if err := r.db.GetContext(ctx, &b, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find blackout: %w", err)
	}
	return &b, nil
}

// CreateBlackout inserts a blackout interval.
func (r *AvailabilityRepository) CreateBlackout(ctx context.Context, b *models.Blackout) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO blackouts (id, start_at, end_at, reason, created_at) VALUES (:id, :start_at, :end_at, :reason, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, b); err != nil {
		return fmt.Errorf("create blackout: %w", err)
	}
	return nil
}

// DeleteBlackout removes a blackout interval.
func (r *AvailabilityRepository) DeleteBlackout(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blackouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blackout: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
