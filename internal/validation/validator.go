// Package validation 各步驟的欄位驗證，只在往前進時執行，結果以欄位錯誤回傳而不是 error。
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"tour-booking/internal/availability"
	"tour-booking/internal/model"

	"github.com/go-playground/validator/v10"
)

const (
	MinAge = 1
	MaxAge = 120
	// DefaultParticipantAge 人數增加時新參加者的預設年齡（成人）
	DefaultParticipantAge = 18

	MaxNameLength            = 100
	MaxSpecialRequestsLength = 500
)

// 欄位名稱，與 BookingDraft 的 json tag 一致
const (
	FieldBookingDate      = "booking_date"
	FieldParticipantCount = "participant_count"
	FieldParticipants     = "participants"
	FieldContactName      = "contact.name"
	FieldContactEmail     = "contact.email"
	FieldContactPhone     = "contact.phone"
	FieldEmergencyContact = "contact.emergency_contact"
	FieldSpecialRequests  = "special_requests"
	FieldPaymentMethod    = "payment_method"
	FieldTermsAccepted    = "terms_accepted"
)

var validate = validator.New()

// 肯亞手機號碼：07xx / 01xx，可帶 254 或 +254 國碼
var mobilePattern = regexp.MustCompile(`^(?:\+254|254|0)(?:7|1)\d{8}$`)

// IsValidMobile 比對前先移除空白與連字號
func IsValidMobile(phone string) bool {
	normalized := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(phone))
	return mobilePattern.MatchString(normalized)
}

func ParticipantFieldName(index int) string {
	return fmt.Sprintf("participants[%d].age", index)
}

// ResizeAges 調整年齡陣列長度：縮小時截斷，放大時補上預設成人年齡
func ResizeAges(ages []int, count int) []int {
	if count < 0 {
		count = 0
	}
	resized := make([]int, count)
	n := copy(resized, ages)
	for i := n; i < count; i++ {
		resized[i] = DefaultParticipantAge
	}
	return resized
}

type Validator struct {
	maxParticipants int
	calendar        *availability.Calendar
}

func NewValidator(maxParticipants int, calendar *availability.Calendar) *Validator {
	return &Validator{
		maxParticipants: maxParticipants,
		calendar:        calendar,
	}
}

// SetCalendar 更新名額快照，送出前重新驗證會用到最新資料
func (v *Validator) SetCalendar(calendar *availability.Calendar) {
	v.calendar = calendar
}

func (v *Validator) Validate(step Step, draft model.BookingDraft) Result {
	switch step {
	case StepDate:
		return v.validateDate(draft)
	case StepParticipants:
		return v.validateParticipants(draft)
	case StepContact:
		return validateContact(draft)
	case StepPayment:
		return validatePayment(draft)
	}
	return fail(step, map[string]string{"step": fmt.Sprintf("unknown step %d", int(step))})
}

// ValidateThrough 依序驗證 1..step，遇到第一個失敗的步驟即停止
func (v *Validator) ValidateThrough(step Step, draft model.BookingDraft) Result {
	for s := StepDate; s <= step; s++ {
		if result := v.Validate(s, draft); !result.OK {
			return result
		}
	}
	return ok(step)
}

func (v *Validator) validateDate(draft model.BookingDraft) Result {
	errs := map[string]string{}
	switch {
	case draft.BookingDate == nil:
		errs[FieldBookingDate] = "booking date is required"
	case v.calendar == nil:
		errs[FieldBookingDate] = "availability has not been loaded"
	default:
		cell := v.calendar.Day(*draft.BookingDate)
		if !availability.CanSelect(cell) {
			errs[FieldBookingDate] = dateRejection(cell)
		}
	}
	return fail(StepDate, errs)
}

func dateRejection(cell availability.DayCell) string {
	switch {
	case cell.IsPast:
		return "booking date is in the past"
	case cell.Status == model.DayStatusFull:
		return "booking date is fully booked"
	default:
		return "booking date is unavailable"
	}
}

// CheckParticipantCount 只檢查人數範圍，調整年齡陣列前先呼叫，避免依未驗證的人數配置記憶體
func (v *Validator) CheckParticipantCount(count int) Result {
	errs := map[string]string{}
	v.checkCount(count, errs)
	return fail(StepParticipants, errs)
}

func (v *Validator) checkCount(count int, errs map[string]string) {
	if count < 1 || count > v.maxParticipants {
		errs[FieldParticipantCount] = fmt.Sprintf("participant count must be between 1 and %d", v.maxParticipants)
	}
}

func (v *Validator) validateParticipants(draft model.BookingDraft) Result {
	errs := map[string]string{}
	count := draft.ParticipantCount
	v.checkCount(count, errs)
	if len(draft.Participants) != count {
		errs[FieldParticipants] = fmt.Sprintf("expected %d ages, got %d", count, len(draft.Participants))
	}
	for i, p := range draft.Participants {
		if p.Age < MinAge || p.Age > MaxAge {
			errs[ParticipantFieldName(i)] = fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge)
		}
	}
	return fail(StepParticipants, errs)
}

func validateContact(draft model.BookingDraft) Result {
	errs := map[string]string{}
	contact := draft.Contact

	name := strings.TrimSpace(contact.Name)
	switch {
	case name == "":
		errs[FieldContactName] = "name is required"
	case utf8.RuneCountInString(name) > MaxNameLength:
		errs[FieldContactName] = fmt.Sprintf("name must be at most %d characters", MaxNameLength)
	}

	email := strings.TrimSpace(contact.Email)
	if email == "" {
		errs[FieldContactEmail] = "email is required"
	} else if err := validate.Var(email, "email"); err != nil {
		errs[FieldContactEmail] = "email is not valid"
	}

	if strings.TrimSpace(contact.Phone) != "" && !IsValidMobile(contact.Phone) {
		errs[FieldContactPhone] = "phone must be a valid mobile number"
	}
	if strings.TrimSpace(contact.EmergencyContact) != "" && !IsValidMobile(contact.EmergencyContact) {
		errs[FieldEmergencyContact] = "emergency contact must be a valid mobile number"
	}
	if utf8.RuneCountInString(draft.SpecialRequests) > MaxSpecialRequestsLength {
		errs[FieldSpecialRequests] = fmt.Sprintf("special requests must be at most %d characters", MaxSpecialRequestsLength)
	}
	return fail(StepContact, errs)
}

func validatePayment(draft model.BookingDraft) Result {
	errs := map[string]string{}
	switch {
	case draft.PaymentMethod == "":
		errs[FieldPaymentMethod] = "payment method is required"
	case !draft.PaymentMethod.IsValid():
		errs[FieldPaymentMethod] = "payment method is not supported"
	case draft.PaymentMethod.RequiresImmediateConfirmation() && strings.TrimSpace(draft.Contact.Phone) == "":
		errs[FieldContactPhone] = "phone is required for mobile money payments"
	}
	if !draft.TermsAccepted {
		errs[FieldTermsAccepted] = "terms must be accepted"
	}
	return fail(StepPayment, errs)
}
