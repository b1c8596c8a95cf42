package service

import (
	"context"
	"time"

	"tour-booking/internal/gateway"
	"tour-booking/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

type tourRepositoryMock struct {
	mock.Mock
}

func (m *tourRepositoryMock) FindByID(ctx context.Context, id int) (*model.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tour), args.Error(1)
}

func (m *tourRepositoryMock) List(ctx context.Context) ([]*model.Tour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Tour), args.Error(1)
}

type bookingRepositoryMock struct {
	mock.Mock
}

func (m *bookingRepositoryMock) FindByID(ctx context.Context, id int) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *bookingRepositoryMock) FindByReference(ctx context.Context, reference string) (*model.Booking, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *bookingRepositoryMock) Create(ctx context.Context, tx pgx.Tx, booking *model.Booking) (*model.Booking, error) {
	args := m.Called(ctx, tx, booking)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *bookingRepositoryMock) FindByIDWithLock(ctx context.Context, tx pgx.Tx, id int) (*model.Booking, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *bookingRepositoryMock) UpdateStatus(ctx context.Context, tx pgx.Tx, id int, status model.BookingStatus) (*model.Booking, error) {
	args := m.Called(ctx, tx, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

type paymentRepositoryMock struct {
	mock.Mock
}

func (m *paymentRepositoryMock) ListByBookingID(ctx context.Context, bookingID int) ([]*model.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *paymentRepositoryMock) Create(ctx context.Context, tx pgx.Tx, payment *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, tx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

type availabilityRepositoryMock struct {
	mock.Mock
}

func (m *availabilityRepositoryMock) ListRange(ctx context.Context, tourID int, from, to time.Time) ([]model.AvailabilityDay, error) {
	args := m.Called(ctx, tourID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AvailabilityDay), args.Error(1)
}

func (m *availabilityRepositoryMock) ReserveSpots(ctx context.Context, tx pgx.Tx, tourID int, date time.Time, quantity int) error {
	args := m.Called(ctx, tx, tourID, date, quantity)
	return args.Error(0)
}

func (m *availabilityRepositoryMock) ReleaseSpots(ctx context.Context, tx pgx.Tx, tourID int, date time.Time, quantity int) error {
	args := m.Called(ctx, tx, tourID, date, quantity)
	return args.Error(0)
}

type availabilityCacheMock struct {
	mock.Mock
}

func (m *availabilityCacheMock) GetMonth(ctx context.Context, tourID int, year int, month time.Month) ([]model.AvailabilityDay, bool, error) {
	args := m.Called(ctx, tourID, year, month)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]model.AvailabilityDay), args.Bool(1), args.Error(2)
}

func (m *availabilityCacheMock) SetMonth(ctx context.Context, tourID int, year int, month time.Month, days []model.AvailabilityDay) error {
	args := m.Called(ctx, tourID, year, month, days)
	return args.Error(0)
}

func (m *availabilityCacheMock) Invalidate(ctx context.Context, tourID int, date time.Time) error {
	args := m.Called(ctx, tourID, date)
	return args.Error(0)
}

type availabilityProviderMock struct {
	mock.Mock
}

func (m *availabilityProviderMock) GetAvailability(ctx context.Context, tourID int, from, to time.Time) ([]model.AvailabilityDay, error) {
	args := m.Called(ctx, tourID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.AvailabilityDay), args.Error(1)
}

func (m *availabilityProviderMock) Invalidate(ctx context.Context, tourID int, date time.Time) {
	m.Called(ctx, tourID, date)
}

type paymentGatewayMock struct {
	mock.Mock
}

func (m *paymentGatewayMock) Push(ctx context.Context, req gateway.PushRequest) (*gateway.PushResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PushResult), args.Error(1)
}
