package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"tour-booking/internal/availability"
	"tour-booking/internal/model"
	"tour-booking/internal/orchestrator"
	"tour-booking/internal/pricing"
	"tour-booking/internal/queue"
	"tour-booking/internal/repository"
	"tour-booking/internal/validation"
	"tour-booking/internal/wizard"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutcomeView Outcome 的對外表示，Cause 只留訊息
type OutcomeView struct {
	Kind      orchestrator.OutcomeKind `json:"kind"`
	CauseKind orchestrator.CauseKind   `json:"cause_kind,omitempty"`
	Error     string                   `json:"error,omitempty"`
	Payment   *model.Payment           `json:"payment,omitempty"`
}

// WizardView 一次操作後 wizard 的完整狀態，直接交給前端渲染
type WizardView struct {
	ID             string                  `json:"id"`
	Tour           model.Tour              `json:"tour"`
	State          wizard.State            `json:"state"`
	Step           int                     `json:"step,omitempty"`
	CanSubmit      bool                    `json:"can_submit"`
	Draft          model.BookingDraft      `json:"draft"`
	Quote          *model.PricingBreakdown `json:"quote,omitempty"`
	Breakdown      *model.PricingBreakdown `json:"breakdown,omitempty"`
	Validation     *validation.Result      `json:"validation,omitempty"`
	Outcome        *OutcomeView            `json:"outcome,omitempty"`
	Booking        *model.Booking          `json:"booking,omitempty"`
	PartialBooking *model.Booking          `json:"partial_booking,omitempty"`
}

type WizardService interface {
	Open(ctx context.Context, tourID int, preselectedDate *time.Time) (*WizardView, error)
	Get(ctx context.Context, id string) (*WizardView, error)
	Next(ctx context.Context, id string, input wizard.StepInput) (*WizardView, error)
	SetParticipantCount(ctx context.Context, id string, count int) (*WizardView, error)
	Back(ctx context.Context, id string) (*WizardView, error)
	Submit(ctx context.Context, id string) (*WizardView, error)
	Resume(ctx context.Context, id string) (*WizardView, error)
	RetryPayment(ctx context.Context, id string, input wizard.RetryPaymentInput) (*WizardView, error)
	Close(ctx context.Context, id string) error

	Quote(ctx context.Context, tourID int, ages []int) (model.PricingBreakdown, error)
	Calendar(ctx context.Context, tourID int, year int, month time.Month, selected *time.Time) ([]availability.DayCell, error)
	// 回收閒置超過 idle 的 wizard，submitting 中的不回收
	EvictIdle(idle time.Duration) int
}

type WizardServiceOptions struct {
	Location   *time.Location // 判斷「今天」使用的時區
	WindowDays int            // 開啟時預先拉取的名額天數
}

type session struct {
	mu       sync.Mutex
	wizard   *wizard.Wizard
	lastSeen time.Time
}

type WizardServiceImpl struct {
	tourRepository repository.TourRepository
	availability   AvailabilityProvider
	orchestrator   orchestrator.BookingOrchestrator
	unpaidQueue    queue.UnpaidBookingQueue
	opts           WizardServiceOptions
	now            func() time.Time
	log            *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewWizardService(
	tourRepository repository.TourRepository,
	availabilityProvider AvailabilityProvider,
	bookingOrchestrator orchestrator.BookingOrchestrator,
	unpaidQueue queue.UnpaidBookingQueue,
	opts WizardServiceOptions,
) WizardService {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = 180
	}
	return &WizardServiceImpl{
		tourRepository: tourRepository,
		availability:   availabilityProvider,
		orchestrator:   bookingOrchestrator,
		unpaidQueue:    unpaidQueue,
		opts:           opts,
		now:            time.Now,
		log:            logger.WithComponent("service"),
		sessions:       make(map[string]*session),
	}
}

func (s *WizardServiceImpl) today() time.Time {
	return model.DateOf(s.now().In(s.opts.Location))
}

// snapshot 拉取從今天起 WindowDays 天的名額
func (s *WizardServiceImpl) snapshot(ctx context.Context, tourID int) ([]model.AvailabilityDay, time.Time, error) {
	today := s.today()
	records, err := s.availability.GetAvailability(ctx, tourID, today, today.AddDate(0, 0, s.opts.WindowDays))
	if err != nil {
		return nil, today, err
	}
	return records, today, nil
}

func (s *WizardServiceImpl) Open(ctx context.Context, tourID int, preselectedDate *time.Time) (*WizardView, error) {
	tour, err := s.tourRepository.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	records, today, err := s.snapshot(ctx, tourID)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	w := wizard.Open(*tour, preselectedDate, availability.NewCalendar(records, today), s.orchestrator)

	sess := &session{wizard: w, lastSeen: s.now()}
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	s.log.Info("wizard opened", zap.String("wizard_id", id), zap.Int("tour_id", tourID))
	return buildView(id, w, nil), nil
}

// publishUnpaid 送出未付款預約給釋放 worker，呼叫時不可持有 session 鎖；
// 失敗只記錄，預約仍可由使用者重新付款
func (s *WizardServiceImpl) publishUnpaid(ctx context.Context, booking *model.Booking) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	err := s.unpaidQueue.PublishUnpaid(ctx, &model.UnpaidBooking{
		BookingID:   booking.ID,
		TourID:      booking.TourID,
		BookingDate: booking.BookingDate,
		CreatedAt:   booking.CreatedAt,
	})
	if err != nil {
		s.log.Error("failed to publish unpaid booking", zap.Int("booking_id", booking.ID), zap.Error(err))
	}
}

func (s *WizardServiceImpl) lookup(id string) (*session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.ErrWizardNotFound
	}
	return sess, nil
}

// withSession 在 session 鎖內執行 fn，並回傳操作後的 view
func (s *WizardServiceImpl) withSession(id string, fn func(w *wizard.Wizard) (*validation.Result, error)) (*WizardView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()

	result, err := fn(sess.wizard)
	if err != nil {
		return nil, err
	}
	return buildView(id, sess.wizard, result), nil
}

func (s *WizardServiceImpl) Get(ctx context.Context, id string) (*WizardView, error) {
	return s.withSession(id, func(w *wizard.Wizard) (*validation.Result, error) {
		return nil, nil
	})
}

func (s *WizardServiceImpl) Next(ctx context.Context, id string, input wizard.StepInput) (*WizardView, error) {
	return s.withSession(id, func(w *wizard.Wizard) (*validation.Result, error) {
		result, err := w.Next(input)
		if err != nil {
			return nil, err
		}
		return &result, nil
	})
}

func (s *WizardServiceImpl) SetParticipantCount(ctx context.Context, id string, count int) (*WizardView, error) {
	return s.withSession(id, func(w *wizard.Wizard) (*validation.Result, error) {
		result, err := w.SetParticipantCount(count)
		if err != nil {
			return nil, err
		}
		return &result, nil
	})
}

func (s *WizardServiceImpl) Back(ctx context.Context, id string) (*WizardView, error) {
	return s.withSession(id, func(w *wizard.Wizard) (*validation.Result, error) {
		return nil, w.Back()
	})
}

func (s *WizardServiceImpl) Resume(ctx context.Context, id string) (*WizardView, error) {
	return s.withSession(id, func(w *wizard.Wizard) (*validation.Result, error) {
		return nil, w.Resume()
	})
}

/*
送出分三段，遠端呼叫期間不持有 session 鎖：
 1. 鎖內：換上最新名額快照、BeginSubmit（進入 submitting）
 2. 鎖外：orchestrator.Commit，使用 WithoutCancel 避免使用者斷線中斷建立預約
 3. 鎖內：Resolve
*/
func (s *WizardServiceImpl) Submit(ctx context.Context, id string) (*WizardView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	records, today, err := s.snapshot(ctx, sess.wizard.Tour().ID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.lastSeen = s.now()
	sess.wizard.RefreshAvailability(records, today)
	result, submission, err := sess.wizard.BeginSubmit()
	if err != nil || submission == nil {
		defer sess.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return buildView(id, sess.wizard, &result), nil
	}
	sess.mu.Unlock()

	outcome := s.orchestrator.Commit(context.WithoutCancel(ctx), *submission)
	view, err := s.resolve(id, sess, outcome, &result)
	if err != nil {
		return nil, err
	}

	// 只有第一次付款失敗才送出；重新付款失敗時同一筆預約已在隊列中
	if outcome.Kind == orchestrator.OutcomePaymentFailed && outcome.Booking != nil {
		s.publishUnpaid(ctx, outcome.Booking)
	}
	return view, nil
}

func (s *WizardServiceImpl) RetryPayment(ctx context.Context, id string, input wizard.RetryPaymentInput) (*WizardView, error) {
	sess, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	sess.lastSeen = s.now()
	result, retry, err := sess.wizard.BeginRetryPayment(input)
	if err != nil || retry == nil {
		defer sess.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return buildView(id, sess.wizard, &result), nil
	}
	sess.mu.Unlock()

	outcome := s.orchestrator.RetryPayment(context.WithoutCancel(ctx), retry.Booking, retry.Phone, retry.Method)
	return s.resolve(id, sess, outcome, &result)
}

func (s *WizardServiceImpl) resolve(id string, sess *session, outcome orchestrator.Outcome, result *validation.Result) (*WizardView, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.lastSeen = s.now()

	if err := sess.wizard.Resolve(outcome); err != nil {
		return nil, err
	}
	return buildView(id, sess.wizard, result), nil
}

func (s *WizardServiceImpl) Close(ctx context.Context, id string) error {
	sess, err := s.lookup(id)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	err = sess.wizard.Close()
	sess.mu.Unlock()
	if err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

func (s *WizardServiceImpl) EvictIdle(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.sessions {
		// 正在操作中的 session 跳過；submitting 中 Close 會失敗，同樣保留
		if !sess.mu.TryLock() {
			continue
		}
		if sess.lastSeen.Before(cutoff) && sess.wizard.Close() == nil {
			delete(s.sessions, id)
			evicted++
		}
		sess.mu.Unlock()
	}
	return evicted
}

func (s *WizardServiceImpl) Quote(ctx context.Context, tourID int, ages []int) (model.PricingBreakdown, error) {
	tour, err := s.tourRepository.FindByID(ctx, tourID)
	if err != nil {
		return model.PricingBreakdown{}, err
	}
	if len(ages) > tour.MaxParticipants {
		return model.PricingBreakdown{}, apperrors.ErrInvalidRoster
	}
	return pricing.ComputeBreakdown(tour.BaseUnitPrice, ages, tour.Currency)
}

func (s *WizardServiceImpl) Calendar(ctx context.Context, tourID int, year int, month time.Month, selected *time.Time) ([]availability.DayCell, error) {
	if _, err := s.tourRepository.FindByID(ctx, tourID); err != nil {
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	records, err := s.availability.GetAvailability(ctx, tourID, first, first.AddDate(0, 1, -1))
	if err != nil {
		return nil, err
	}
	return availability.BuildMonthGrid(year, month, records, s.today(), selected), nil
}

func buildView(id string, w *wizard.Wizard, result *validation.Result) *WizardView {
	view := &WizardView{
		ID:             id,
		Tour:           w.Tour(),
		State:          w.State(),
		CanSubmit:      w.CanSubmit(),
		Draft:          w.Draft(),
		Breakdown:      w.Breakdown(),
		Validation:     result,
		Booking:        w.Booking(),
		PartialBooking: w.PartialBooking(),
	}
	if step, ok := w.State().Step(); ok {
		view.Step = int(step)
	}
	if len(view.Draft.Participants) > 0 {
		if quote, err := w.Quote(); err == nil {
			view.Quote = &quote
		}
	}
	if outcome := w.Outcome(); outcome != nil {
		view.Outcome = NewOutcomeView(*outcome)
	}
	return view
}

func NewOutcomeView(outcome orchestrator.Outcome) *OutcomeView {
	view := &OutcomeView{
		Kind:      outcome.Kind,
		CauseKind: outcome.CauseKind,
		Payment:   outcome.Payment,
	}
	if outcome.Cause != nil {
		view.Error = outcome.Cause.Error()
	}
	return view
}

// IsCallerError wizard 操作順序錯誤，HTTP 層對應 409
func IsCallerError(err error) bool {
	return errors.Is(err, apperrors.ErrIllegalTransition) || errors.Is(err, apperrors.ErrSubmissionInFlight)
}
