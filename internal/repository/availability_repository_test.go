package repository

import (
	"context"
	"testing"
	"time"

	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityRepository_ListRange(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	repo := NewAvailabilityRepository(pool, 5)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	pool.ExpectQuery("SELECT date, total_spots - booked_spots").
		WithArgs(7, from, to).
		WillReturnRows(pgxmock.NewRows([]string{"date", "available_spots", "closed"}).
			AddRow(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 12, false).
			AddRow(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), 3, false).
			AddRow(time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), 0, false).
			AddRow(time.Date(2025, 3, 13, 0, 0, 0, 0, time.UTC), 20, true))

	days, err := repo.ListRange(context.Background(), 7, from, to)
	require.NoError(t, err)
	require.Len(t, days, 4)

	assert.Equal(t, model.DayStatusAvailable, days[0].Status)
	assert.Equal(t, 12, days[0].AvailableSpots)
	assert.Equal(t, model.DayStatusLimited, days[1].Status)
	assert.Equal(t, model.DayStatusFull, days[2].Status)
	assert.Equal(t, model.DayStatusUnavailable, days[3].Status)

	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestAvailabilityRepository_ReserveSpots(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	repo := NewAvailabilityRepository(pool, 5)
	ctx := context.Background()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		pool.ExpectBegin()
		pool.ExpectExec("UPDATE tour_availability").
			WithArgs(2, pgxmock.AnyArg(), 7, date).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		pool.ExpectRollback()

		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		assert.NoError(t, repo.ReserveSpots(ctx, tx, 7, date, 2))
		require.NoError(t, tx.Rollback(ctx))
	})

	t.Run("Failed - insufficient spots", func(t *testing.T) {
		pool.ExpectBegin()
		pool.ExpectExec("UPDATE tour_availability").
			WithArgs(9, pgxmock.AnyArg(), 7, date).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		pool.ExpectRollback()

		tx, err := pool.Begin(ctx)
		require.NoError(t, err)
		err = repo.ReserveSpots(ctx, tx, 7, date, 9)
		assert.ErrorIs(t, err, apperrors.ErrInsufficientSpots)
		require.NoError(t, tx.Rollback(ctx))
	})

	assert.NoError(t, pool.ExpectationsWereMet())
}
