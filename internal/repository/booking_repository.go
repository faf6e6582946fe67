package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

const bookingColumns = `id, patient_id, service_id, start_at, end_at, status, cancel_reason, notes, created_at, updated_at`

const bookingDetailSelect = `SELECT b.id, b.patient_id, b.service_id, b.start_at, b.end_at, b.status, b.cancel_reason, b.notes, b.created_at, b.updated_at,
u.full_name AS patient_name, u.email AS patient_email, COALESCE(u.phone, '') AS patient_phone, s.name AS service_name
FROM bookings b
JOIN users u ON u.id = b.patient_id
JOIN services s ON s.id = b.service_id`

// blockingStatusList is the SQL literal list of statuses that occupy time.
var blockingStatusList = func() string {
	quoted := make([]string, 0, len(models.BlockingStatuses))
	for _, s := range models.BlockingStatuses {
		quoted = append(quoted, "'"+string(s)+"'")
	}
	return "(" + strings.Join(quoted, ", ") + ")"
}()

// AgendaLockKey is the advisory lock key guarding writes to one calendar day.
func AgendaLockKey(day string) string {
	return "agenda:" + day
}

// BookingTx is the set of booking operations available inside a transaction.
type BookingTx interface {
	// LockDays takes the per-day advisory locks in a deterministic order.
	LockDays(ctx context.Context, days ...string) error
	FindForUpdate(ctx context.Context, id string) (*models.Booking, error)
	// FindOverlapping returns blocking bookings intersecting [start, end), skipping excludeID.
	FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]models.Booking, error)
	FindOverlappingBlackouts(ctx context.Context, start, end time.Time) ([]models.Blackout, error)
	Insert(ctx context.Context, booking *models.Booking) error
	Update(ctx context.Context, booking *models.Booking) error
}

// BookingRepository provides database access for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new instance of BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// RunInTx executes fn inside a transaction, committing when it returns nil.
func (r *BookingRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, tx BookingTx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin booking transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, &bookingTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit booking transaction: %w", translatePQ(err))
	}
	return nil
}

// FindByID returns a booking by identifier.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 LIMIT 1`
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking: %w", err)
	}
	return &booking, nil
}

// FindDetailByID returns a booking joined with patient and service names.
func (r *BookingRepository) FindDetailByID(ctx context.Context, id string) (*models.BookingDetail, error) {
	query := bookingDetailSelect + ` WHERE b.id = $1 LIMIT 1`
	var detail models.BookingDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find booking detail: %w", err)
	}
	return &detail, nil
}

// ListBlockingBetween returns blocking bookings intersecting [from, to).
func (r *BookingRepository) ListBlockingBetween(ctx context.Context, from, to time.Time) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status IN ` + blockingStatusList + ` AND start_at < $2 AND end_at > $1 ORDER BY start_at ASC`
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, from, to); err != nil {
		return nil, fmt.Errorf("list blocking bookings: %w", err)
	}
	return bookings, nil
}

// List returns bookings with patient and service names plus the total count.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, int, error) {
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("b.start_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("b.start_at < $%d", len(args)))
	}
	if filter.PatientID != "" {
		args = append(args, filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("b.patient_id = $%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		args = append(args, pq.Array(statuses))
		conditions = append(conditions, fmt.Sprintf("b.status = ANY($%d)", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("%s%s ORDER BY b.start_at %s LIMIT %d OFFSET %d", bookingDetailSelect, where, sortOrder, pageSize, offset)
	var bookings []models.BookingDetail
	if err := r.db.SelectContext(ctx, &bookings, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM bookings b" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}
	return bookings, total, nil
}

type bookingTx struct {
	tx *sqlx.Tx
}

func (t *bookingTx) LockDays(ctx context.Context, days ...string) error {
	unique := make(map[string]struct{}, len(days))
	ordered := make([]string, 0, len(days))
	for _, d := range days {
		if _, seen := unique[d]; seen || d == "" {
			continue
		}
		unique[d] = struct{}{}
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)

	for _, d := range ordered {
		if _, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, AgendaLockKey(d)); err != nil {
			return fmt.Errorf("lock agenda day %s: %w", d, err)
		}
	}
	return nil
}

func (t *bookingTx) FindForUpdate(ctx context.Context, id string) (*models.Booking, error) {
	const query = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`
	var booking models.Booking
	if err := t.tx.GetContext(ctx, &booking, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	return &booking, nil
}

func (t *bookingTx) FindOverlapping(ctx context.Context, start, end time.Time, excludeID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status IN ` + blockingStatusList + ` AND start_at < $2 AND end_at > $1 AND id <> $3 ORDER BY start_at ASC`
	var bookings []models.Booking
	if err := t.tx.SelectContext(ctx, &bookings, query, start, end, excludeID); err != nil {
		return nil, fmt.Errorf("find overlapping bookings: %w", err)
	}
	return bookings, nil
}

func (t *bookingTx) FindOverlappingBlackouts(ctx context.Context, start, end time.Time) ([]models.Blackout, error) {
	const query = `SELECT ` + blackoutColumns + ` FROM blackouts WHERE start_at < $2 AND end_at > $1 ORDER BY start_at ASC`
	var blackouts []models.Blackout
	if err := t.tx.SelectContext(ctx, &blackouts, query, start, end); err != nil {
		return nil, fmt.Errorf("find overlapping blackouts: %w", err)
	}
	return blackouts, nil
}

func (t *bookingTx) Insert(ctx context.Context, booking *models.Booking) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	const query = `INSERT INTO bookings (id, patient_id, service_id, start_at, end_at, status, cancel_reason, notes, created_at, updated_at) VALUES (:id, :patient_id, :service_id, :start_at, :end_at, :status, :cancel_reason, :notes, :created_at, :updated_at)`
	if _, err := t.tx.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("insert booking: %w", translatePQ(err))
	}
	return nil
}

func (t *bookingTx) Update(ctx context.Context, booking *models.Booking) error {
	booking.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bookings SET start_at = :start_at, end_at = :end_at, status = :status, cancel_reason = :cancel_reason, notes = :notes, updated_at = :updated_at WHERE id = :id`
	if _, err := t.tx.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("update booking: %w", translatePQ(err))
	}
	return nil
}
