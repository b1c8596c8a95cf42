package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour-booking/internal/database"
	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
)

type BookingRepository interface {
	FindByID(ctx context.Context, id int) (*model.Booking, error)
	FindByReference(ctx context.Context, reference string) (*model.Booking, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error)
	FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.BookingStatus) (*model.Booking, error)
}

type BookingRepositoryImpl struct {
	pool database.Pool
}

func NewBookingRepository(pool database.Pool) BookingRepository {
	return &BookingRepositoryImpl{
		pool: pool,
	}
}

const bookingColumns = `id, reference, tour_id, booking_date, participant_ages,
		contact_name, contact_email, contact_phone, emergency_contact,
		special_requests, payment_method, total_amount, currency, status,
		created_at, updated_at`

// participant_ages 以 int[] 存放，讀出時轉回 Participant
func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		booking model.Booking
		ages    []int32
	)
	err := row.Scan(
		&booking.ID,
		&booking.Reference,
		&booking.TourID,
		&booking.BookingDate,
		&ages,
		&booking.Contact.Name,
		&booking.Contact.Email,
		&booking.Contact.Phone,
		&booking.Contact.EmergencyContact,
		&booking.SpecialRequests,
		&booking.PaymentMethod,
		&booking.TotalAmount,
		&booking.Currency,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.BookingDate = model.DateOf(booking.BookingDate)
	booking.Participants = make([]model.Participant, len(ages))
	for i, age := range ages {
		booking.Participants[i] = model.Participant{Age: int(age)}
	}
	return &booking, nil
}

func participantAges(participants []model.Participant) []int32 {
	ages := make([]int32, len(participants))
	for i, p := range participants {
		ages[i] = int32(p.Age)
	}
	return ages
}

func (r *BookingRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	query := `
		INSERT INTO bookings (
			reference, tour_id, booking_date, participant_ages,
			contact_name, contact_email, contact_phone, emergency_contact,
			special_requests, payment_method, total_amount, currency, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + bookingColumns

	created, err := scanBooking(tx.QueryRow(ctx, query,
		booking.Reference,
		booking.TourID,
		model.DateOf(booking.BookingDate),
		participantAges(booking.Participants),
		booking.Contact.Name,
		booking.Contact.Email,
		booking.Contact.Phone,
		booking.Contact.EmergencyContact,
		booking.SpecialRequests,
		booking.PaymentMethod,
		booking.TotalAmount,
		booking.Currency,
		booking.Status,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return created, nil
}

func (r *BookingRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = $1`

	booking, err := scanBooking(r.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

// FindByIDWithLock SELECT ... FOR UPDATE，鎖到交易結束
func (r *BookingRepositoryImpl) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 FOR UPDATE`

	booking, err := scanBooking(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, err
	}

	return booking, nil
}

func (r *BookingRepositoryImpl) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.BookingStatus) (*model.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + bookingColumns

	booking, err := scanBooking(tx.QueryRow(ctx, query, status, time.Now().UTC(), id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	return booking, nil
}
