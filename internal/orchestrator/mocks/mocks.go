package mocks

import (
	"context"

	"tour-booking/internal/model"
	"tour-booking/internal/orchestrator"

	"github.com/stretchr/testify/mock"
)

type BookingCreatorMock struct {
	mock.Mock
}

func NewBookingCreatorMock() *BookingCreatorMock {
	return &BookingCreatorMock{}
}

func (m *BookingCreatorMock) CreateBooking(ctx context.Context, payload model.CreateBookingPayload) (*model.Booking, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

type PaymentCreatorMock struct {
	mock.Mock
}

func NewPaymentCreatorMock() *PaymentCreatorMock {
	return &PaymentCreatorMock{}
}

func (m *PaymentCreatorMock) CreatePayment(ctx context.Context, payload model.CreatePaymentPayload) (*model.Payment, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

type BookingOrchestratorMock struct {
	mock.Mock
}

func NewBookingOrchestratorMock() *BookingOrchestratorMock {
	return &BookingOrchestratorMock{}
}

func (m *BookingOrchestratorMock) Commit(ctx context.Context, submission orchestrator.Submission) orchestrator.Outcome {
	args := m.Called(ctx, submission)
	return args.Get(0).(orchestrator.Outcome)
}

func (m *BookingOrchestratorMock) RetryPayment(ctx context.Context, booking model.Booking, phone string, method model.PaymentMethod) orchestrator.Outcome {
	args := m.Called(ctx, booking, phone, method)
	return args.Get(0).(orchestrator.Outcome)
}
