// Package orchestrator 依序呼叫「建立預約」與（必要時）「建立付款」，並把兩段結果收斂成一個 Outcome。
package orchestrator

import (
	"context"
	"fmt"

	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type BookingCreator interface {
	CreateBooking(ctx context.Context, payload model.CreateBookingPayload) (*model.Booking, error)
}

type PaymentCreator interface {
	CreatePayment(ctx context.Context, payload model.CreatePaymentPayload) (*model.Payment, error)
}

// Submission wizard 送出時的快照：草稿與當下重算的報價
type Submission struct {
	TourID    int
	Draft     model.BookingDraft
	Breakdown model.PricingBreakdown
}

type BookingOrchestrator interface {
	// 建立預約，必要時接著建立付款；每次呼叫恰好一次建立預約、最多一次付款，不重試
	Commit(ctx context.Context, submission Submission) Outcome
	// 對既有預約重新付款，不會建立新的預約
	RetryPayment(ctx context.Context, booking model.Booking, phone string, method model.PaymentMethod) Outcome
}

type BookingOrchestratorImpl struct {
	bookings BookingCreator
	payments PaymentCreator
	tracer   trace.Tracer
}

func NewBookingOrchestrator(bookings BookingCreator, payments PaymentCreator) BookingOrchestrator {
	return &BookingOrchestratorImpl{
		bookings: bookings,
		payments: payments,
		tracer:   otel.Tracer("tour-booking/orchestrator"),
	}
}

func (o *BookingOrchestratorImpl) Commit(ctx context.Context, submission Submission) Outcome {
	ctx, span := o.tracer.Start(ctx, "BookingOrchestrator.Commit", trace.WithAttributes(
		attribute.Int("tour.id", submission.TourID),
		attribute.String("payment.method", string(submission.Draft.PaymentMethod)),
	))
	defer span.End()

	log := logger.WithComponent("orchestrator").With(zap.Int("tour_id", submission.TourID))
	draft := submission.Draft

	if draft.BookingDate == nil {
		err := fmt.Errorf("%w: draft has no booking date", apperrors.ErrValidation)
		span.SetStatus(codes.Error, err.Error())
		log.Error("commit called with incomplete draft", zap.Error(err))
		return bookingCreationFailed(err)
	}

	// 1. 建立預約；失敗就直接結束，不嘗試付款
	booking, err := o.bookings.CreateBooking(ctx, model.CreateBookingPayload{
		TourID:          submission.TourID,
		BookingDate:     *draft.BookingDate,
		Participants:    draft.Participants,
		Contact:         draft.Contact,
		SpecialRequests: draft.SpecialRequests,
		PaymentMethod:   draft.PaymentMethod,
		TotalAmount:     submission.Breakdown.Total,
		Currency:        submission.Breakdown.Currency,
	})
	if err != nil {
		span.SetStatus(codes.Error, "booking creation failed")
		log.Warn("booking creation failed", zap.Error(err))
		return bookingCreationFailed(err)
	}
	span.SetAttributes(attribute.Int("booking.id", booking.ID))
	log = log.With(zap.Int("booking_id", booking.ID))

	// 2. 不需要即時確認的付款方式到此為止
	if !draft.PaymentMethod.RequiresImmediateConfirmation() {
		log.Info("booking committed without immediate payment", zap.String("method", string(draft.PaymentMethod)))
		span.SetStatus(codes.Ok, "committed")
		return committed(booking, nil)
	}

	// 3. 付款失敗時保留已建立的預約（pending payment），不自動取消
	payment, err := o.payments.CreatePayment(ctx, model.CreatePaymentPayload{
		BookingID:   booking.ID,
		Amount:      submission.Breakdown.Total,
		PhoneNumber: draft.Contact.Phone,
		Method:      draft.PaymentMethod,
	})
	if err != nil {
		span.SetStatus(codes.Error, "payment failed")
		log.Warn("payment failed, booking left pending payment", zap.Error(err))
		return paymentFailed(booking, err)
	}

	log.Info("booking committed", zap.Int("payment_id", payment.ID))
	span.SetStatus(codes.Ok, "committed")
	return committed(booking, payment)
}

func (o *BookingOrchestratorImpl) RetryPayment(ctx context.Context, booking model.Booking, phone string, method model.PaymentMethod) Outcome {
	ctx, span := o.tracer.Start(ctx, "BookingOrchestrator.RetryPayment", trace.WithAttributes(
		attribute.Int("booking.id", booking.ID),
		attribute.String("payment.method", string(method)),
	))
	defer span.End()

	log := logger.WithComponent("orchestrator").With(zap.Int("booking_id", booking.ID))

	if !method.RequiresImmediateConfirmation() {
		err := fmt.Errorf("%w: %s cannot be used to retry a payment", apperrors.ErrValidation, method)
		span.SetStatus(codes.Error, "offline method")
		log.Warn("payment retry rejected", zap.Error(err))
		return paymentFailed(&booking, err)
	}

	payment, err := o.payments.CreatePayment(ctx, model.CreatePaymentPayload{
		BookingID:   booking.ID,
		Amount:      booking.TotalAmount,
		PhoneNumber: phone,
		Method:      method,
	})
	if err != nil {
		span.SetStatus(codes.Error, "payment retry failed")
		log.Warn("payment retry failed", zap.Error(err))
		return paymentFailed(&booking, err)
	}

	log.Info("payment retry succeeded", zap.Int("payment_id", payment.ID))
	span.SetStatus(codes.Ok, "committed")
	return committed(&booking, payment)
}
