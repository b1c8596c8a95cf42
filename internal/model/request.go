package model

type OpenWizardRequest struct {
	BookingDate string `json:"booking_date" binding:"omitempty,datetime=2006-01-02"`
}

type SelectDateRequest struct {
	BookingDate string `json:"booking_date" binding:"required,datetime=2006-01-02"`
}

// ParticipantsRequest 只帶 count 時只調整人數，帶 ages 時送出 step2
type ParticipantsRequest struct {
	Count int   `json:"count" binding:"min=0,max=100"`
	Ages  []int `json:"ages"`
}

type ContactRequest struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	Phone            string `json:"phone"`
	EmergencyContact string `json:"emergency_contact"`
	SpecialRequests  string `json:"special_requests"`
}

type PaymentRequest struct {
	Method        PaymentMethod `json:"method"`
	TermsAccepted bool          `json:"terms_accepted"`
}

type RetryPaymentRequest struct {
	Phone  string        `json:"phone"`
	Method PaymentMethod `json:"method"`
}

type QuoteRequest struct {
	Ages []int `json:"ages" binding:"required,dive,min=0,max=120"`
}

type CalendarQuery struct {
	Year     int    `form:"year" binding:"required,min=2000,max=2100"`
	Month    int    `form:"month" binding:"required,min=1,max=12"`
	Selected string `form:"selected" binding:"omitempty,datetime=2006-01-02"`
}

type IDUri struct {
	ID int `uri:"id" binding:"required,min=1"`
}

type WizardUri struct {
	ID string `uri:"id" binding:"required,uuid"`
}
