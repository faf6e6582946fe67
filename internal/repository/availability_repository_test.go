package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/portal-agenda-api/internal/models"
)

func TestListActiveWindows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "day_of_week", "start_time", "end_time", "active", "created_at", "updated_at"}).
		AddRow("w-1", 1, "09:00", "12:00", true, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + windowColumns + " FROM availability_windows WHERE active = TRUE ORDER BY day_of_week ASC, start_time ASC")).
		WillReturnRows(rows)

	windows, err := repo.ListWindows(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, windows, 1)
	assert.Equal(t, 1, windows[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWindowDuplicateWeekday(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO availability_windows").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "availability_windows_active_day"})

	err := repo.CreateWindow(context.Background(), &models.AvailabilityWindow{DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00", Active: true})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteWindowNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM availability_windows WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteWindow(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBlackoutsInRange(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	from := time.Date(2024, 6, 10, 3, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "start_at", "end_at", "reason", "created_at"}).
		AddRow("x", from.Add(14*time.Hour), from.Add(15*time.Hour), "Feriado", from)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT "+blackoutColumns+" FROM blackouts WHERE start_at < $1 AND end_at > $2 ORDER BY start_at ASC")).
		WithArgs(to, from).
		WillReturnRows(rows)

	blackouts, err := repo.ListBlackouts(context.Background(), models.BlackoutFilter{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, blackouts, 1)
	assert.Equal(t, "Feriado", blackouts[0].Reason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBlackout(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAvailabilityRepository(db)

	mock.ExpectExec("INSERT INTO blackouts").WillReturnResult(sqlmock.NewResult(1, 1))

	b := &models.Blackout{StartAt: time.Now(), EndAt: time.Now().Add(time.Hour), Reason: "Reforma"}
	require.NoError(t, repo.CreateBlackout(context.Background(), b))
	assert.NotEmpty(t, b.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
