package repository

import (
	"context"
	"errors"
	"fmt"

	"tour-booking/internal/database"
	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"

	"github.com/jackc/pgx/v5"
)

type TourRepository interface {
	FindByID(ctx context.Context, id int) (*model.Tour, error)
	List(ctx context.Context) ([]*model.Tour, error)
}

type TourRepositoryImpl struct {
	pool database.Pool
}

func NewTourRepository(pool database.Pool) TourRepository {
	return &TourRepositoryImpl{
		pool: pool,
	}
}

func (r *TourRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Tour, error) {
	query := `
		SELECT id, name, base_unit_price, max_participants, currency, created_at, updated_at
		FROM tours
		WHERE id = $1
	`

	var tour model.Tour
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&tour.ID,
		&tour.Name,
		&tour.BaseUnitPrice,
		&tour.MaxParticipants,
		&tour.Currency,
		&tour.CreatedAt,
		&tour.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTourNotFound
		}
		return nil, fmt.Errorf("failed to find tour: %w", err)
	}

	return &tour, nil
}

func (r *TourRepositoryImpl) List(ctx context.Context) ([]*model.Tour, error) {
	query := `
		SELECT id, name, base_unit_price, max_participants, currency, created_at, updated_at
		FROM tours
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tours []*model.Tour
	for rows.Next() {
		var tour model.Tour
		err := rows.Scan(
			&tour.ID,
			&tour.Name,
			&tour.BaseUnitPrice,
			&tour.MaxParticipants,
			&tour.Currency,
			&tour.CreatedAt,
			&tour.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		tours = append(tours, &tour)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tours, nil
}
