package orchestrator

import (
	"errors"

	"tour-booking/internal/model"
	apperrors "tour-booking/pkg/app_errors"
)

// OutcomeKind commit 的綜合結果類型
type OutcomeKind string

const (
	OutcomeCommitted             OutcomeKind = "committed"
	OutcomeBookingCreationFailed OutcomeKind = "booking_creation_failed"
	OutcomePaymentFailed         OutcomeKind = "payment_failed"
)

// CauseKind 遠端失敗原因分類
type CauseKind string

const (
	CauseNone               CauseKind = ""
	CauseValidation         CauseKind = "validation"
	CauseServiceUnavailable CauseKind = "service_unavailable"
	CausePaymentDeclined    CauseKind = "payment_declined"
	CauseUnknown            CauseKind = "unknown"
)

func ClassifyCause(err error) CauseKind {
	switch {
	case err == nil:
		return CauseNone
	case errors.Is(err, apperrors.ErrValidation):
		return CauseValidation
	case errors.Is(err, apperrors.ErrPaymentDeclined):
		return CausePaymentDeclined
	case errors.Is(err, apperrors.ErrServiceUnavailable):
		return CauseServiceUnavailable
	default:
		return CauseUnknown
	}
}

// Outcome 一次 commit 的結果，同時描述預約與付款兩段。
// PaymentFailed 時 Booking 仍有值：預約已建立但未付款，不會自動回滾。
type Outcome struct {
	Kind      OutcomeKind    `json:"kind"`
	Booking   *model.Booking `json:"booking,omitempty"`
	Payment   *model.Payment `json:"payment,omitempty"`
	CauseKind CauseKind      `json:"cause_kind,omitempty"`
	Cause     error          `json:"-"`
}

func (o Outcome) IsCommitted() bool {
	return o.Kind == OutcomeCommitted
}

func committed(booking *model.Booking, payment *model.Payment) Outcome {
	return Outcome{Kind: OutcomeCommitted, Booking: booking, Payment: payment}
}

func bookingCreationFailed(err error) Outcome {
	return Outcome{Kind: OutcomeBookingCreationFailed, CauseKind: ClassifyCause(err), Cause: err}
}

func paymentFailed(booking *model.Booking, err error) Outcome {
	return Outcome{Kind: OutcomePaymentFailed, Booking: booking, CauseKind: ClassifyCause(err), Cause: err}
}
