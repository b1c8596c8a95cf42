package repository

import (
	"context"
	"testing"
	"time"

	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingColumnNames = []string{
	"id", "reference", "tour_id", "booking_date", "participant_ages",
	"contact_name", "contact_email", "contact_phone", "emergency_contact",
	"special_requests", "payment_method", "total_amount", "currency", "status",
	"created_at", "updated_at",
}

func bookingRow(id int, status model.BookingStatus) *pgxmock.Rows {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(bookingColumnNames).AddRow(
		id, "TB-7F3A9C", 7, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), []int32{30, 8},
		"Amina Hassan", "amina@example.com", "0712345678", "",
		"", model.PaymentMethodMpesa, 46400.0, "KES", status,
		now, now,
	)
}

func TestBookingRepository_Create(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	repo := NewBookingRepository(pool)
	ctx := context.Background()

	booking := &model.Booking{
		Reference:     "TB-7F3A9C",
		TourID:        7,
		BookingDate:   time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
		Participants:  model.ParticipantsFromAges([]int{30, 8}),
		Contact:       model.Contact{Name: "Amina Hassan", Email: "amina@example.com", Phone: "0712345678"},
		PaymentMethod: model.PaymentMethodMpesa,
		TotalAmount:   46400,
		Currency:      "KES",
		Status:        model.BookingStatusPendingPayment,
	}

	pool.ExpectBegin()
	pool.ExpectQuery("INSERT INTO bookings").
		WithArgs(
			"TB-7F3A9C", 7, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), []int32{30, 8},
			"Amina Hassan", "amina@example.com", "0712345678", "",
			"", model.PaymentMethodMpesa, 46400.0, "KES", model.BookingStatusPendingPayment,
		).
		WillReturnRows(bookingRow(11, model.BookingStatusPendingPayment))

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	created, err := repo.Create(ctx, tx, booking)
	require.NoError(t, err)
	assert.Equal(t, 11, created.ID)
	assert.Equal(t, []int{30, 8}, model.Ages(created.Participants))
	assert.Equal(t, model.CategoryChild, created.Participants[1].Category())
	assert.Equal(t, model.BookingStatusPendingPayment, created.Status)

	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestBookingRepository_FindByID(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	repo := NewBookingRepository(pool)

	t.Run("Success", func(t *testing.T) {
		pool.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
			WithArgs(11).
			WillReturnRows(bookingRow(11, model.BookingStatusConfirmed))

		booking, err := repo.FindByID(context.Background(), 11)
		require.NoError(t, err)
		assert.Equal(t, "TB-7F3A9C", booking.Reference)
		assert.Equal(t, model.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, "Amina Hassan", booking.Contact.Name)
	})

	t.Run("Failed - not found", func(t *testing.T) {
		pool.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1").
			WithArgs(404).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(context.Background(), 404)
		assert.ErrorIs(t, err, apperrors.ErrBookingNotFound)
	})

	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestBookingRepository_UpdateStatus(t *testing.T) {
	pool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer pool.Close()

	repo := NewBookingRepository(pool)
	ctx := context.Background()

	pool.ExpectBegin()
	pool.ExpectQuery("SELECT (.+) FROM bookings WHERE id = \\$1 FOR UPDATE").
		WithArgs(11).
		WillReturnRows(bookingRow(11, model.BookingStatusPendingPayment))
	pool.ExpectQuery("UPDATE bookings").
		WithArgs(model.BookingStatusCancelled, pgxmock.AnyArg(), 11).
		WillReturnRows(bookingRow(11, model.BookingStatusCancelled))
	pool.ExpectCommit()

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	locked, err := repo.FindByIDWithLock(ctx, tx, 11)
	require.NoError(t, err)
	require.True(t, locked.Status.CanTransitionTo(model.BookingStatusCancelled))

	updated, err := repo.UpdateStatus(ctx, tx, 11, model.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, updated.Status)
	require.NoError(t, tx.Commit(ctx))

	assert.NoError(t, pool.ExpectationsWereMet())
}
