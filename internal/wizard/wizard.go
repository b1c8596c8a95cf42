// Package wizard 四步驟預約精靈的狀態機。
//
// 一個 Wizard 只服務一次預約嘗試，且只由單一使用者操作，因此內部不加鎖；
// 需要同時服務多個使用者的呼叫端（例如 HTTP 層）自行序列化存取，
// 並可改用 BeginSubmit / Resolve 兩段式呼叫，避免在遠端呼叫期間持有鎖。
package wizard

import (
	"context"
	"fmt"
	"time"

	"tour-booking/internal/availability"
	"tour-booking/internal/model"
	"tour-booking/internal/orchestrator"
	"tour-booking/internal/pricing"
	"tour-booking/internal/validation"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"go.uber.org/zap"
)

// FailureKind 回報給 UI 的失敗類型
type FailureKind string

const (
	FailureBookingCreation FailureKind = "booking_creation_failed"
	FailurePayment         FailureKind = "payment_failed"
)

// Handle 提供給外層 UI 的回呼註冊介面
type Handle interface {
	OnSuccess(callback func(booking model.Booking))
	OnFailure(callback func(kind FailureKind, partialBooking *model.Booking))
}

// PaymentRetry 對既有預約重新付款所需的資料
type PaymentRetry struct {
	Booking model.Booking
	Phone   string
	Method  model.PaymentMethod
}

// SubmitResult Submit 的結果；驗證未通過時 Outcome 為 nil
type SubmitResult struct {
	Validation validation.Result
	Outcome    *orchestrator.Outcome
}

type Wizard struct {
	tour         model.Tour
	state        State
	closed       bool
	draft        model.BookingDraft
	calendar     *availability.Calendar
	validator    *validation.Validator
	orchestrator orchestrator.BookingOrchestrator

	breakdown      *model.PricingBreakdown
	outcome        *orchestrator.Outcome
	booking        *model.Booking
	partialBooking *model.Booking

	onSuccess []func(model.Booking)
	onFailure []func(FailureKind, *model.Booking)

	log *zap.Logger
}

var _ Handle = (*Wizard)(nil)

// Open 開啟新的 wizard，停在 step1；preselectedDate 只預填，不驗證
func Open(tour model.Tour, preselectedDate *time.Time, calendar *availability.Calendar, orch orchestrator.BookingOrchestrator) *Wizard {
	w := &Wizard{
		tour:         tour,
		state:        StateStep1,
		calendar:     calendar,
		validator:    validation.NewValidator(tour.MaxParticipants, calendar),
		orchestrator: orch,
		log:          logger.WithComponent("wizard").With(zap.Int("tour_id", tour.ID)),
	}
	if preselectedDate != nil {
		date := model.DateOf(*preselectedDate)
		w.draft.BookingDate = &date
	}
	return w
}

func (w *Wizard) OnSuccess(callback func(booking model.Booking)) {
	w.onSuccess = append(w.onSuccess, callback)
}

func (w *Wizard) OnFailure(callback func(kind FailureKind, partialBooking *model.Booking)) {
	w.onFailure = append(w.onFailure, callback)
}

func (w *Wizard) Tour() model.Tour {
	return w.tour
}

func (w *Wizard) State() State {
	return w.state
}

func (w *Wizard) Closed() bool {
	return w.closed
}

// Draft 回傳草稿副本
func (w *Wizard) Draft() model.BookingDraft {
	return w.draft.Clone()
}

func (w *Wizard) Calendar() *availability.Calendar {
	return w.calendar
}

// Breakdown 最近一次送出時計算的權威報價
func (w *Wizard) Breakdown() *model.PricingBreakdown {
	return w.breakdown
}

func (w *Wizard) Outcome() *orchestrator.Outcome {
	return w.outcome
}

// Booking 成功後的預約
func (w *Wizard) Booking() *model.Booking {
	return w.booking
}

// PartialBooking 付款失敗時已建立但未付款的預約
func (w *Wizard) PartialBooking() *model.Booking {
	return w.partialBooking
}

// CanSubmit submitting 期間為 false，UI 以此停用送出按鈕
func (w *Wizard) CanSubmit() bool {
	return !w.closed && w.state == StateStep4
}

// Quote 依目前草稿試算，僅供畫面顯示；送出時一定重算
func (w *Wizard) Quote() (model.PricingBreakdown, error) {
	return pricing.Quote(w.tour.BaseUnitPrice, w.draft.Participants, w.tour.Currency)
}

// RefreshAvailability 換上新拉取的名額快照
func (w *Wizard) RefreshAvailability(records []model.AvailabilityDay, today time.Time) {
	w.calendar = availability.NewCalendar(records, today)
	w.validator.SetCalendar(w.calendar)
}

func (w *Wizard) transition(target State) error {
	if w.closed {
		return fmt.Errorf("%w: wizard is closed", apperrors.ErrIllegalTransition)
	}
	if !w.state.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", apperrors.ErrIllegalTransition, w.state, target)
	}
	w.log.Debug("wizard transition", zap.String("from", string(w.state)), zap.String("to", string(target)))
	w.state = target
	return nil
}

// Next 將本步驟的欄位寫入草稿並驗證，通過才前進。
// 驗證失敗不是 error，欄位錯誤放在 Result；error 只代表呼叫端用錯狀態。
func (w *Wizard) Next(input StepInput) (validation.Result, error) {
	step, ok := w.state.Step()
	if w.closed || !ok || input.Step() != step {
		return validation.Result{}, fmt.Errorf("%w: %s input in state %s", apperrors.ErrIllegalTransition, input.Step(), w.state)
	}

	input.apply(&w.draft)
	result := w.validator.Validate(step, w.draft)
	if !result.OK || step == validation.StepPayment {
		// step4 之後要走 Submit
		return result, nil
	}

	if err := w.transition(stateForStep(step + 1)); err != nil {
		return result, err
	}
	return result, nil
}

// SetParticipantCount 調整人數，年齡陣列同步截斷或補上預設成人年齡。
// 超出範圍時回傳欄位錯誤，草稿不變。
func (w *Wizard) SetParticipantCount(count int) (validation.Result, error) {
	if w.closed || w.state != StateStep2 {
		return validation.Result{}, fmt.Errorf("%w: participant count can only change in %s", apperrors.ErrIllegalTransition, StateStep2)
	}
	result := w.validator.CheckParticipantCount(count)
	if !result.OK {
		return result, nil
	}
	ages := validation.ResizeAges(model.Ages(w.draft.Participants), count)
	w.draft.ParticipantCount = len(ages)
	w.draft.Participants = model.ParticipantsFromAges(ages)
	return result, nil
}

// Back 無條件回上一步，已輸入的後續步驟資料保留
func (w *Wizard) Back() error {
	step, ok := w.state.Step()
	if !ok || step == validation.StepDate {
		return fmt.Errorf("%w: cannot go back from %s", apperrors.ErrIllegalTransition, w.state)
	}
	return w.transition(stateForStep(step - 1))
}

// Resume 建立預約失敗後回到 step4 修正；已有未付款預約時只能走 RetryPayment
func (w *Wizard) Resume() error {
	if w.state == StateFailed && w.partialBooking != nil {
		return fmt.Errorf("%w: booking %d already exists, retry payment instead", apperrors.ErrIllegalTransition, w.partialBooking.ID)
	}
	return w.transition(StateStep4)
}

// BeginSubmit 只能在 step4 呼叫。依序重新驗證 1..4（名額可能已過期），
// 通過後以目前草稿重算報價並進入 submitting，回傳交給 orchestrator 的快照。
func (w *Wizard) BeginSubmit() (validation.Result, *orchestrator.Submission, error) {
	if w.closed || w.state != StateStep4 {
		return validation.Result{}, nil, fmt.Errorf("%w: submit in state %s", apperrors.ErrIllegalTransition, w.state)
	}

	result := w.validator.ValidateThrough(validation.StepPayment, w.draft)
	if !result.OK {
		w.log.Info("submission rejected by validation", zap.String("step", result.Step.String()))
		return result, nil, nil
	}

	breakdown, err := pricing.Quote(w.tour.BaseUnitPrice, w.draft.Participants, w.tour.Currency)
	if err != nil {
		return result, nil, err
	}

	if err := w.transition(StateSubmitting); err != nil {
		return result, nil, err
	}
	w.breakdown = &breakdown
	w.outcome = nil

	return result, &orchestrator.Submission{
		TourID:    w.tour.ID,
		Draft:     w.draft.Clone(),
		Breakdown: breakdown,
	}, nil
}

// BeginRetryPayment 付款失敗後對同一筆預約重新付款
func (w *Wizard) BeginRetryPayment(input RetryPaymentInput) (validation.Result, *PaymentRetry, error) {
	if w.closed || w.state != StateFailed || w.partialBooking == nil {
		return validation.Result{}, nil, fmt.Errorf("%w: no unpaid booking to retry in state %s", apperrors.ErrIllegalTransition, w.state)
	}

	draft := w.draft.Clone()
	if input.Phone != "" {
		draft.Contact.Phone = input.Phone
	}
	if input.Method != "" {
		draft.PaymentMethod = input.Method
	}
	result := w.validator.Validate(validation.StepContact, draft)
	if result.OK {
		result = w.validator.Validate(validation.StepPayment, draft)
	}
	if result.OK && !draft.PaymentMethod.RequiresImmediateConfirmation() {
		// 預約已在釋放隊列中，改成線下付款不會保住它
		result = validation.Result{
			Step:        validation.StepPayment,
			FieldErrors: map[string]string{validation.FieldPaymentMethod: "only mobile money can be used to retry a payment"},
		}
	}
	if !result.OK {
		return result, nil, nil
	}

	if err := w.transition(StateSubmitting); err != nil {
		return result, nil, err
	}
	w.draft = draft
	w.outcome = nil

	return result, &PaymentRetry{
		Booking: *w.partialBooking,
		Phone:   w.draft.Contact.Phone,
		Method:  w.draft.PaymentMethod,
	}, nil
}

// Resolve 依 orchestrator 結果進入終止狀態：成功清空草稿，失敗保留草稿
func (w *Wizard) Resolve(outcome orchestrator.Outcome) error {
	if w.state != StateSubmitting {
		return fmt.Errorf("%w: resolve in state %s", apperrors.ErrIllegalTransition, w.state)
	}
	w.outcome = &outcome

	if outcome.IsCommitted() {
		if err := w.transition(StateSucceeded); err != nil {
			return err
		}
		w.booking = outcome.Booking
		w.partialBooking = nil
		w.draft = model.BookingDraft{}
		w.log.Info("booking succeeded", zap.Int("booking_id", outcome.Booking.ID))
		for _, cb := range w.onSuccess {
			cb(*outcome.Booking)
		}
		return nil
	}

	if err := w.transition(StateFailed); err != nil {
		return err
	}
	kind := FailureBookingCreation
	if outcome.Kind == orchestrator.OutcomePaymentFailed {
		kind = FailurePayment
		w.partialBooking = outcome.Booking
	}
	w.log.Warn("booking attempt failed",
		zap.String("failure", string(kind)),
		zap.String("cause", string(outcome.CauseKind)),
		zap.Error(outcome.Cause),
	)
	for _, cb := range w.onFailure {
		cb(kind, w.partialBooking)
	}
	return nil
}

// Submit 單執行緒使用時的一次完成版本：BeginSubmit、Commit、Resolve
func (w *Wizard) Submit(ctx context.Context) (SubmitResult, error) {
	result, submission, err := w.BeginSubmit()
	if err != nil || submission == nil {
		return SubmitResult{Validation: result}, err
	}

	outcome := w.orchestrator.Commit(ctx, *submission)
	if err := w.Resolve(outcome); err != nil {
		return SubmitResult{Validation: result}, err
	}
	return SubmitResult{Validation: result, Outcome: &outcome}, nil
}

// RetryPayment BeginRetryPayment、RetryPayment、Resolve
func (w *Wizard) RetryPayment(ctx context.Context, input RetryPaymentInput) (SubmitResult, error) {
	result, retry, err := w.BeginRetryPayment(input)
	if err != nil || retry == nil {
		return SubmitResult{Validation: result}, err
	}

	outcome := w.orchestrator.RetryPayment(ctx, retry.Booking, retry.Phone, retry.Method)
	if err := w.Resolve(outcome); err != nil {
		return SubmitResult{Validation: result}, err
	}
	return SubmitResult{Validation: result, Outcome: &outcome}, nil
}

// Close 關閉 wizard 並丟棄草稿；submitting 中不可關閉，必須等結果回來
func (w *Wizard) Close() error {
	if w.state == StateSubmitting {
		return apperrors.ErrSubmissionInFlight
	}
	w.closed = true
	w.draft = model.BookingDraft{}
	return nil
}
