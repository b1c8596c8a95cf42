package model

import "time"

// BookingStatus 預約狀態類型
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusCancelled      BookingStatus = "cancelled"
)

// IsValid 驗證狀態是否有效
func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPendingPayment, BookingStatusConfirmed, BookingStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo 檢查是否可以轉換到目標狀態
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	transitions := map[BookingStatus][]BookingStatus{
		BookingStatusPendingPayment: {BookingStatusConfirmed, BookingStatusCancelled},
		BookingStatusConfirmed:      {BookingStatusCancelled},
		BookingStatusCancelled:      {}, // 不能轉換到任何狀態
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == target {
			return true
		}
	}
	return false
}

// Booking 已建立的預約，由 booking store 持有
type Booking struct {
	ID              int           `json:"id" db:"id"`
	Reference       string        `json:"reference" db:"reference"`
	TourID          int           `json:"tour_id" db:"tour_id"`
	BookingDate     time.Time     `json:"booking_date" db:"booking_date"`
	Participants    []Participant `json:"participants" db:"participants"`
	Contact         Contact       `json:"contact" db:"contact"`
	SpecialRequests string        `json:"special_requests,omitempty" db:"special_requests"`
	PaymentMethod   PaymentMethod `json:"payment_method" db:"payment_method"`
	TotalAmount     float64       `json:"total_amount" db:"total_amount"`
	Currency        string        `json:"currency" db:"currency"`
	Status          BookingStatus `json:"status" db:"status"`
	CreatedAt       time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" db:"updated_at"`
}

// CreateBookingPayload 建立預約的請求內容
type CreateBookingPayload struct {
	TourID          int           `json:"tour_id"`
	BookingDate     time.Time     `json:"booking_date"`
	Participants    []Participant `json:"participants"`
	Contact         Contact       `json:"contact"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	TotalAmount     float64       `json:"total_amount"`
	Currency        string        `json:"currency"`
}

// UnpaidBooking 付款失敗後待釋放的預約訊息
type UnpaidBooking struct {
	BookingID   int       `json:"booking_id"`
	TourID      int       `json:"tour_id"`
	BookingDate time.Time `json:"booking_date"`
	CreatedAt   time.Time `json:"created_at"`
}
