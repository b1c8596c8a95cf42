package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"tour-booking/internal/model"
	"tour-booking/internal/orchestrator"
	"tour-booking/internal/orchestrator/mocks"
	"tour-booking/internal/queue"
	"tour-booking/internal/validation"
	"tour-booking/internal/wizard"
	apperrors "tour-booking/pkg/app_errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type wizardServiceFixture struct {
	tours        *tourRepositoryMock
	availability *availabilityProviderMock
	orchestrator *mocks.BookingOrchestratorMock
	queue        queue.UnpaidBookingQueue
	service      *WizardServiceImpl
}

func newWizardServiceFixture(t *testing.T) *wizardServiceFixture {
	t.Helper()

	nairobi, err := time.LoadLocation("Africa/Nairobi")
	require.NoError(t, err)

	f := &wizardServiceFixture{
		tours:        new(tourRepositoryMock),
		availability: new(availabilityProviderMock),
		orchestrator: mocks.NewBookingOrchestratorMock(),
		queue:        queue.NewMemoryUnpaidBookingQueue(8, time.Millisecond),
	}
	f.service = NewWizardService(f.tours, f.availability, f.orchestrator, f.queue, WizardServiceOptions{
		Location:   nairobi,
		WindowDays: 90,
	}).(*WizardServiceImpl)
	// 2025-03-01 23:30 UTC 在奈洛比已是 3/2
	f.service.now = func() time.Time { return time.Date(2025, 3, 1, 23, 30, 0, 0, time.UTC) }

	f.tours.On("FindByID", mock.Anything, 7).Return(testTour(), nil).Maybe()
	f.tours.On("FindByID", mock.Anything, 404).Return(nil, apperrors.ErrTourNotFound).Maybe()
	f.availability.On("GetAvailability", mock.Anything, 7, mock.Anything, mock.Anything).
		Return([]model.AvailabilityDay{
			day("2025-03-01", model.DayStatusAvailable, 10),
			day("2025-03-10", model.DayStatusAvailable, 10),
			day("2025-03-11", model.DayStatusFull, 0),
		}, nil).Maybe()
	return f
}

// fillSteps 以有效資料走到 step4
func fillSteps(t *testing.T, svc WizardService, id string) {
	t.Helper()
	ctx := context.Background()

	view, err := svc.Next(ctx, id, wizard.DateInput{BookingDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	require.True(t, view.Validation.OK)

	_, err = svc.SetParticipantCount(ctx, id, 2)
	require.NoError(t, err)
	view, err = svc.Next(ctx, id, wizard.ParticipantsInput{Count: 2, Ages: []int{30, 32}})
	require.NoError(t, err)
	require.True(t, view.Validation.OK)

	view, err = svc.Next(ctx, id, wizard.ContactInput{Contact: model.Contact{
		Name:  "Otieno Ouma",
		Email: "otieno@example.com",
		Phone: "0712345678",
	}})
	require.NoError(t, err)
	require.True(t, view.Validation.OK)

	view, err = svc.Next(ctx, id, wizard.PaymentInput{Method: model.PaymentMethodMpesa, TermsAccepted: true})
	require.NoError(t, err)
	require.True(t, view.Validation.OK)
	require.Equal(t, wizard.StateStep4, view.State)
	require.True(t, view.CanSubmit)
}

func TestWizardService_Open(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newWizardServiceFixture(t)

		view, err := f.service.Open(context.Background(), 7, nil)
		require.NoError(t, err)
		assert.NotEmpty(t, view.ID)
		assert.Equal(t, wizard.StateStep1, view.State)
		assert.Equal(t, 1, view.Step)
		assert.Equal(t, "Maasai Mara Day Trip", view.Tour.Name)

		f.availability.AssertCalled(t, "GetAvailability", mock.Anything, 7,
			time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC))
	})

	t.Run("Failed - tour not found", func(t *testing.T) {
		f := newWizardServiceFixture(t)

		_, err := f.service.Open(context.Background(), 404, nil)
		assert.ErrorIs(t, err, apperrors.ErrTourNotFound)
	})

	t.Run("Past date is rejected in the tour timezone", func(t *testing.T) {
		f := newWizardServiceFixture(t)
		view, err := f.service.Open(context.Background(), 7, nil)
		require.NoError(t, err)

		view, err = f.service.Next(context.Background(), view.ID, wizard.DateInput{BookingDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		assert.False(t, view.Validation.OK)
		assert.Equal(t, wizard.StateStep1, view.State)
	})
}

func TestWizardService_SubmitPaymentFailedThenRetry(t *testing.T) {
	f := newWizardServiceFixture(t)
	ctx := context.Background()

	view, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)
	id := view.ID
	fillSteps(t, f.service, id)

	partial := &model.Booking{ID: 11, TourID: 7, BookingDate: bookingDate, Status: model.BookingStatusPendingPayment, TotalAmount: 58000}
	f.orchestrator.On("Commit", mock.Anything, mock.Anything).Return(orchestrator.Outcome{
		Kind:      orchestrator.OutcomePaymentFailed,
		Booking:   partial,
		CauseKind: orchestrator.CausePaymentDeclined,
		Cause:     apperrors.ErrPaymentDeclined,
	}).Once()

	view, err = f.service.Submit(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StateFailed, view.State)
	require.NotNil(t, view.Outcome)
	assert.Equal(t, orchestrator.OutcomePaymentFailed, view.Outcome.Kind)
	assert.Equal(t, partial, view.PartialBooking)
	require.NotNil(t, view.Breakdown)
	assert.Equal(t, 58000.0, view.Breakdown.Total)

	// 未付款預約已送往釋放隊列
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	msgs, err := f.queue.SubscribeUnpaid(subCtx)
	require.NoError(t, err)
	select {
	case d := <-msgs:
		assert.Equal(t, 11, d.Data.BookingID)
		d.Ack()
	case <-time.After(time.Second):
		t.Fatal("unpaid booking was not published")
	}

	// 不能重新建立預約，只能重新付款
	_, err = f.service.Resume(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)

	confirmed := *partial
	confirmed.Status = model.BookingStatusConfirmed
	f.orchestrator.On("RetryPayment", mock.Anything, *partial, "0712345678", model.PaymentMethodMpesa).
		Return(orchestrator.Outcome{Kind: orchestrator.OutcomeCommitted, Booking: &confirmed}).Once()

	view, err = f.service.RetryPayment(ctx, id, wizard.RetryPaymentInput{})
	require.NoError(t, err)
	assert.Equal(t, wizard.StateSucceeded, view.State)
	assert.Equal(t, model.BookingStatusConfirmed, view.Booking.Status)

	f.orchestrator.AssertNumberOfCalls(t, "Commit", 1)
	f.orchestrator.AssertExpectations(t)
}

// recordingUnpaidQueue 記錄送出的訊息，以及送出當下 session 鎖是否空閒
type recordingUnpaidQueue struct {
	mu         sync.Mutex
	published  []model.UnpaidBooking
	lockIsFree []bool
	session    func() *session
}

func (q *recordingUnpaidQueue) PublishUnpaid(ctx context.Context, unpaid *model.UnpaidBooking) error {
	free := false
	if sess := q.session(); sess != nil && sess.mu.TryLock() {
		free = true
		sess.mu.Unlock()
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, *unpaid)
	q.lockIsFree = append(q.lockIsFree, free)
	return nil
}

func (q *recordingUnpaidQueue) SubscribeUnpaid(ctx context.Context) (<-chan queue.Delivery, error) {
	return make(chan queue.Delivery), nil
}

func TestWizardService_PublishesUnpaidOnceOutsideSessionLock(t *testing.T) {
	f := newWizardServiceFixture(t)
	ctx := context.Background()

	var id string
	q := &recordingUnpaidQueue{}
	q.session = func() *session {
		f.service.mu.RLock()
		defer f.service.mu.RUnlock()
		return f.service.sessions[id]
	}
	f.service.unpaidQueue = q

	view, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)
	id = view.ID
	fillSteps(t, f.service, id)

	partial := &model.Booking{ID: 21, TourID: 7, BookingDate: bookingDate, Status: model.BookingStatusPendingPayment}
	declined := orchestrator.Outcome{
		Kind:      orchestrator.OutcomePaymentFailed,
		Booking:   partial,
		CauseKind: orchestrator.CausePaymentDeclined,
		Cause:     apperrors.ErrPaymentDeclined,
	}
	f.orchestrator.On("Commit", mock.Anything, mock.Anything).Return(declined).Once()
	f.orchestrator.On("RetryPayment", mock.Anything, *partial, "0712345678", model.PaymentMethodMpesa).Return(declined).Twice()

	view, err = f.service.Submit(ctx, id)
	require.NoError(t, err)
	require.Equal(t, wizard.StateFailed, view.State)

	for i := 0; i < 2; i++ {
		view, err = f.service.RetryPayment(ctx, id, wizard.RetryPaymentInput{})
		require.NoError(t, err)
		require.Equal(t, wizard.StateFailed, view.State)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	require.Len(t, q.published, 1)
	assert.Equal(t, 21, q.published[0].BookingID)
	assert.Equal(t, []bool{true}, q.lockIsFree)
	f.orchestrator.AssertExpectations(t)
}

func TestWizardService_SetParticipantCountOutOfRange(t *testing.T) {
	f := newWizardServiceFixture(t)
	ctx := context.Background()

	view, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)
	id := view.ID
	_, err = f.service.Next(ctx, id, wizard.DateInput{BookingDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)

	view, err = f.service.SetParticipantCount(ctx, id, 1<<60)
	require.NoError(t, err)
	require.NotNil(t, view.Validation)
	assert.False(t, view.Validation.OK)
	assert.Contains(t, view.Validation.FieldErrors, validation.FieldParticipantCount)
	assert.Empty(t, view.Draft.Participants)
}

func TestWizardService_SubmitIsBusyWhileCommitting(t *testing.T) {
	f := newWizardServiceFixture(t)
	ctx := context.Background()

	view, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)
	id := view.ID
	fillSteps(t, f.service, id)

	started := make(chan struct{})
	release := make(chan struct{})
	f.orchestrator.On("Commit", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			close(started)
			<-release
		}).
		Return(orchestrator.Outcome{
			Kind:    orchestrator.OutcomeCommitted,
			Booking: &model.Booking{ID: 12, Status: model.BookingStatusPendingPayment},
		}).Once()

	done := make(chan *WizardView, 1)
	go func() {
		v, err := f.service.Submit(ctx, id)
		assert.NoError(t, err)
		done <- v
	}()
	<-started

	view, err = f.service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, wizard.StateSubmitting, view.State)
	assert.False(t, view.CanSubmit)

	_, err = f.service.Submit(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	assert.True(t, IsCallerError(err))
	assert.ErrorIs(t, f.service.Close(ctx, id), apperrors.ErrSubmissionInFlight)
	assert.Equal(t, 0, f.service.EvictIdle(0))

	close(release)
	select {
	case v := <-done:
		assert.Equal(t, wizard.StateSucceeded, v.State)
		assert.Equal(t, 12, v.Booking.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("submit did not finish")
	}

	f.orchestrator.AssertNumberOfCalls(t, "Commit", 1)
}

func TestWizardService_SubmitValidationFailure(t *testing.T) {
	f := newWizardServiceFixture(t)
	ctx := context.Background()

	view, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)

	view, err = f.service.Next(ctx, view.ID, wizard.DateInput{BookingDate: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)})
	require.NoError(t, err)
	assert.False(t, view.Validation.OK)

	_, err = f.service.Submit(ctx, view.ID)
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
	f.orchestrator.AssertNotCalled(t, "Commit", mock.Anything, mock.Anything)
}

func TestWizardService_CloseAndEvict(t *testing.T) {
	f := newWizardServiceFixture(t)
	ctx := context.Background()

	first, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)
	second, err := f.service.Open(ctx, 7, nil)
	require.NoError(t, err)

	require.NoError(t, f.service.Close(ctx, first.ID))
	_, err = f.service.Get(ctx, first.ID)
	assert.ErrorIs(t, err, apperrors.ErrWizardNotFound)

	assert.Equal(t, 0, f.service.EvictIdle(time.Hour))

	f.service.now = func() time.Time { return time.Date(2025, 3, 2, 3, 0, 0, 0, time.UTC) }
	assert.Equal(t, 1, f.service.EvictIdle(time.Hour))
	_, err = f.service.Get(ctx, second.ID)
	assert.ErrorIs(t, err, apperrors.ErrWizardNotFound)
}

func TestWizardService_Quote(t *testing.T) {
	f := newWizardServiceFixture(t)

	breakdown, err := f.service.Quote(context.Background(), 7, []int{35, 33, 10, 1})
	require.NoError(t, err)
	// 25000 + 25000 + 17500 + 0 = 67500，四人九折
	assert.InDelta(t, 67500, breakdown.Subtotal, 0.001)
	assert.InDelta(t, 0.10, breakdown.DiscountRate, 1e-9)
	assert.Equal(t, 70470.0, breakdown.Total)

	_, err = f.service.Quote(context.Background(), 7, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRoster)

	_, err = f.service.Quote(context.Background(), 7, make([]int, 11))
	assert.ErrorIs(t, err, apperrors.ErrInvalidRoster)
}

func TestWizardService_Calendar(t *testing.T) {
	f := newWizardServiceFixture(t)
	selected := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	cells, err := f.service.Calendar(context.Background(), 7, 2025, time.March, &selected)
	require.NoError(t, err)

	// 2025-03-01 是星期六，前面補 6 格
	require.Len(t, cells, 6+31)
	assert.True(t, cells[0].Blank)

	first := cells[6]
	assert.True(t, first.IsPast)
	assert.False(t, first.Selectable)

	tenth := cells[6+9]
	assert.True(t, tenth.IsSelected)
	assert.True(t, tenth.Selectable)

	eleventh := cells[6+10]
	assert.Equal(t, model.DayStatusFull, eleventh.Status)
	assert.False(t, eleventh.Selectable)

	_, err = f.service.Calendar(context.Background(), 404, 2025, time.March, nil)
	assert.ErrorIs(t, err, apperrors.ErrTourNotFound)
}
