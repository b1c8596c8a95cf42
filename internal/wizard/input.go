package wizard

import (
	"time"

	"tour-booking/internal/model"
	"tour-booking/internal/validation"
)

// StepInput 單一步驟的表單欄位
type StepInput interface {
	Step() validation.Step
	apply(draft *model.BookingDraft)
}

type DateInput struct {
	BookingDate time.Time
}

func (DateInput) Step() validation.Step { return validation.StepDate }

func (in DateInput) apply(draft *model.BookingDraft) {
	date := model.DateOf(in.BookingDate)
	draft.BookingDate = &date
}

// ParticipantsInput 原樣寫入；人數與年齡數量是否一致交給 validator 判斷
type ParticipantsInput struct {
	Count int
	Ages  []int
}

func (ParticipantsInput) Step() validation.Step { return validation.StepParticipants }

func (in ParticipantsInput) apply(draft *model.BookingDraft) {
	draft.ParticipantCount = in.Count
	draft.Participants = model.ParticipantsFromAges(in.Ages)
}

type ContactInput struct {
	Contact         model.Contact
	SpecialRequests string
}

func (ContactInput) Step() validation.Step { return validation.StepContact }

func (in ContactInput) apply(draft *model.BookingDraft) {
	draft.Contact = in.Contact
	draft.SpecialRequests = in.SpecialRequests
}

type PaymentInput struct {
	Method        model.PaymentMethod
	TermsAccepted bool
}

func (PaymentInput) Step() validation.Step { return validation.StepPayment }

func (in PaymentInput) apply(draft *model.BookingDraft) {
	draft.PaymentMethod = in.Method
	draft.TermsAccepted = in.TermsAccepted
}

// RetryPaymentInput 重新付款時可更換手機號碼或付款方式，空值沿用草稿
type RetryPaymentInput struct {
	Phone  string
	Method model.PaymentMethod
}
