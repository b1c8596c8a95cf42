package model

import "time"

// PaymentMethod 付款方式
type PaymentMethod string

const (
	PaymentMethodMpesa        PaymentMethod = "mpesa"
	PaymentMethodAirtelMoney  PaymentMethod = "airtel_money"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodPayOnArrival PaymentMethod = "pay_on_arrival"
)

var PaymentMethods = []PaymentMethod{
	PaymentMethodMpesa,
	PaymentMethodAirtelMoney,
	PaymentMethodBankTransfer,
	PaymentMethodPayOnArrival,
}

// IsValid 驗證付款方式是否有效
func (m PaymentMethod) IsValid() bool {
	for _, method := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}

// RequiresImmediateConfirmation 行動支付需在建立預約後立即推播付款
func (m PaymentMethod) RequiresImmediateConfirmation() bool {
	return m == PaymentMethodMpesa || m == PaymentMethodAirtelMoney
}

type Contact struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone,omitempty"`
	EmergencyContact string `json:"emergency_contact,omitempty"`
}

// BookingDraft wizard 累積中的預約資料，由單一 wizard 獨佔
type BookingDraft struct {
	BookingDate      *time.Time    `json:"booking_date,omitempty"`
	ParticipantCount int           `json:"participant_count"`
	Participants     []Participant `json:"participants"`
	Contact          Contact       `json:"contact"`
	SpecialRequests  string        `json:"special_requests,omitempty"`
	PaymentMethod    PaymentMethod `json:"payment_method,omitempty"`
	TermsAccepted    bool          `json:"terms_accepted"`
}

// Clone 深拷貝，送出時交給 orchestrator 的是快照
func (d BookingDraft) Clone() BookingDraft {
	clone := d
	if d.BookingDate != nil {
		date := *d.BookingDate
		clone.BookingDate = &date
	}
	if d.Participants != nil {
		clone.Participants = append([]Participant(nil), d.Participants...)
	}
	return clone
}
