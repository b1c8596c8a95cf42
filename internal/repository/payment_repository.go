package repository

import (
	"context"
	"fmt"

	"tour-booking/internal/database"
	"tour-booking/internal/model"

	"github.com/jackc/pgx/v5"
)

type PaymentRepository interface {
	ListByBookingID(ctx context.Context, bookingID int) ([]*model.Payment, error)

	// Transaction methods
	Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error)
}

type PaymentRepositoryImpl struct {
	pool database.Pool
}

func NewPaymentRepository(pool database.Pool) PaymentRepository {
	return &PaymentRepositoryImpl{
		pool: pool,
	}
}

func (r *PaymentRepositoryImpl) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	query := `
		INSERT INTO payments (booking_id, amount, method, status, provider_ref)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, booking_id, amount, method, status, provider_ref, created_at
	`

	var created model.Payment
	err := tx.QueryRow(ctx, query,
		payment.BookingID, payment.Amount, payment.Method, payment.Status, payment.ProviderRef,
	).Scan(
		&created.ID,
		&created.BookingID,
		&created.Amount,
		&created.Method,
		&created.Status,
		&created.ProviderRef,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	return &created, nil
}

func (r *PaymentRepositoryImpl) ListByBookingID(ctx context.Context, bookingID int) ([]*model.Payment, error) {
	query := `
		SELECT id, booking_id, amount, method, status, provider_ref, created_at
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at
	`

	rows, err := r.pool.Query(ctx, query, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		var payment model.Payment
		err := rows.Scan(
			&payment.ID,
			&payment.BookingID,
			&payment.Amount,
			&payment.Method,
			&payment.Status,
			&payment.ProviderRef,
			&payment.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		payments = append(payments, &payment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
