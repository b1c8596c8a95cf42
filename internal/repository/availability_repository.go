package repository

import (
	"context"
	"fmt"
	"time"

	"tour-booking/internal/availability"
	"tour-booking/internal/database"
	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
)

type AvailabilityRepository interface {
	// 區間內有資料的日期，[from, to] 皆含
	ListRange(ctx context.Context, tourID int, from, to time.Time) ([]model.AvailabilityDay, error)

	// Transaction methods
	ReserveSpots(ctx context.Context, tx pgx.Tx, tourID int, date time.Time, quantity int) error
	ReleaseSpots(ctx context.Context, tx pgx.Tx, tourID int, date time.Time, quantity int) error
}

type AvailabilityRepositoryImpl struct {
	pool             database.Pool
	limitedThreshold int
}

func NewAvailabilityRepository(pool database.Pool, limitedThreshold int) AvailabilityRepository {
	return &AvailabilityRepositoryImpl{
		pool:             pool,
		limitedThreshold: limitedThreshold,
	}
}

func (r *AvailabilityRepositoryImpl) ListRange(ctx context.Context, tourID int, from, to time.Time) ([]model.AvailabilityDay, error) {
	query := `
		SELECT date, total_spots - booked_spots AS available_spots, closed
		FROM tour_availability
		WHERE tour_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date
	`

	rows, err := r.pool.Query(ctx, query, tourID, model.DateOf(from), model.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list availability: %w", err)
	}
	defer rows.Close()

	var days []model.AvailabilityDay
	for rows.Next() {
		var (
			date   time.Time
			spots  int
			closed bool
		)
		if err := rows.Scan(&date, &spots, &closed); err != nil {
			return nil, err
		}

		day := model.AvailabilityDay{
			Date:           model.DateOf(date),
			AvailableSpots: max(spots, 0),
		}
		if closed {
			day.Status = model.DayStatusUnavailable
		} else {
			day.Status = availability.StatusFromSpots(day.AvailableSpots, r.limitedThreshold)
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return days, nil
}

// ReserveSpots 條件式扣減，名額不足或當天未開放時不更新任何資料
func (r *AvailabilityRepositoryImpl) ReserveSpots(ctx context.Context, tx pgx.Tx, tourID int, date time.Time, quantity int) error {
	query := `
		UPDATE tour_availability
		SET booked_spots = booked_spots + $1, updated_at = $2
		WHERE tour_id = $3 AND date = $4
		  AND closed = FALSE
		  AND total_spots - booked_spots >= $1
	`

	result, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), tourID, model.DateOf(date))
	if err != nil {
		return fmt.Errorf("failed to reserve spots: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.ErrInsufficientSpots
	}

	return nil
}

func (r *AvailabilityRepositoryImpl) ReleaseSpots(ctx context.Context, tx pgx.Tx, tourID int, date time.Time, quantity int) error {
	query := `
		UPDATE tour_availability
		SET booked_spots = GREATEST(booked_spots - $1, 0), updated_at = $2
		WHERE tour_id = $3 AND date = $4
	`

	_, err := tx.Exec(ctx, query, quantity, time.Now().UTC(), tourID, model.DateOf(date))
	if err != nil {
		return fmt.Errorf("failed to release spots: %w", err)
	}

	return nil
}
