package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusDeclined  PaymentStatus = "declined"
)

type Payment struct {
	ID          int           `json:"id" db:"id"`
	BookingID   int           `json:"booking_id" db:"booking_id"`
	Amount      float64       `json:"amount" db:"amount"`
	Method      PaymentMethod `json:"method" db:"method"`
	Status      PaymentStatus `json:"status" db:"status"`
	ProviderRef string        `json:"provider_ref,omitempty" db:"provider_ref"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

// CreatePaymentPayload 推播付款的請求內容
type CreatePaymentPayload struct {
	BookingID   int           `json:"booking_id"`
	Amount      float64       `json:"amount"`
	PhoneNumber string        `json:"phone_number"`
	Method      PaymentMethod `json:"method"`
}
