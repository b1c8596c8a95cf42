package handler

import (
	"context"
	"time"

	"tour-booking/internal/availability"
	"tour-booking/internal/model"
	"tour-booking/internal/orchestrator"
	"tour-booking/internal/service"
	"tour-booking/internal/wizard"

	"github.com/stretchr/testify/mock"
)

type wizardServiceMock struct {
	mock.Mock
}

var _ service.WizardService = (*wizardServiceMock)(nil)

func (m *wizardServiceMock) view(args mock.Arguments) (*service.WizardView, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WizardView), args.Error(1)
}

func (m *wizardServiceMock) Open(ctx context.Context, tourID int, preselectedDate *time.Time) (*service.WizardView, error) {
	return m.view(m.Called(ctx, tourID, preselectedDate))
}

func (m *wizardServiceMock) Get(ctx context.Context, id string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *wizardServiceMock) Next(ctx context.Context, id string, input wizard.StepInput) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id, input))
}

func (m *wizardServiceMock) SetParticipantCount(ctx context.Context, id string, count int) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id, count))
}

func (m *wizardServiceMock) Back(ctx context.Context, id string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *wizardServiceMock) Submit(ctx context.Context, id string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *wizardServiceMock) Resume(ctx context.Context, id string) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id))
}

func (m *wizardServiceMock) RetryPayment(ctx context.Context, id string, input wizard.RetryPaymentInput) (*service.WizardView, error) {
	return m.view(m.Called(ctx, id, input))
}

func (m *wizardServiceMock) Close(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *wizardServiceMock) Quote(ctx context.Context, tourID int, ages []int) (model.PricingBreakdown, error) {
	args := m.Called(ctx, tourID, ages)
	return args.Get(0).(model.PricingBreakdown), args.Error(1)
}

func (m *wizardServiceMock) Calendar(ctx context.Context, tourID int, year int, month time.Month, selected *time.Time) ([]availability.DayCell, error) {
	args := m.Called(ctx, tourID, year, month, selected)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]availability.DayCell), args.Error(1)
}

func (m *wizardServiceMock) EvictIdle(idle time.Duration) int {
	return m.Called(idle).Int(0)
}

type bookingServiceMock struct {
	mock.Mock
}

var _ service.BookingService = (*bookingServiceMock)(nil)

func (m *bookingServiceMock) CreateBooking(ctx context.Context, payload model.CreateBookingPayload) (*model.Booking, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *bookingServiceMock) CreatePayment(ctx context.Context, payload model.CreatePaymentPayload) (*model.Payment, error) {
	args := m.Called(ctx, payload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *bookingServiceMock) GetBooking(ctx context.Context, id int) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *bookingServiceMock) ListPayments(ctx context.Context, bookingID int) ([]*model.Payment, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *bookingServiceMock) RetryPayment(ctx context.Context, bookingID int, phone string, method model.PaymentMethod) (orchestrator.Outcome, error) {
	args := m.Called(ctx, bookingID, phone, method)
	return args.Get(0).(orchestrator.Outcome), args.Error(1)
}

func (m *bookingServiceMock) ReleaseUnpaid(ctx context.Context, unpaid model.UnpaidBooking) error {
	return m.Called(ctx, unpaid).Error(0)
}
