package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tour-booking/internal/database"
	"tour-booking/internal/gateway"
	"tour-booking/internal/model"
	"tour-booking/internal/orchestrator"
	"tour-booking/internal/repository"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingService interface {
	orchestrator.BookingCreator
	orchestrator.PaymentCreator

	GetBooking(ctx context.Context, id int) (*model.Booking, error)
	ListPayments(ctx context.Context, bookingID int) ([]*model.Payment, error)
	// 對 wizard 已關閉的未付款預約重新付款
	RetryPayment(ctx context.Context, bookingID int, phone string, method model.PaymentMethod) (orchestrator.Outcome, error)
	// 保留期過後取消未付款預約並釋放名額；未到期回傳 ErrBookingNotExpired
	ReleaseUnpaid(ctx context.Context, unpaid model.UnpaidBooking) error
}

type BookingServiceImpl struct {
	pool                   database.Pool
	tourRepository         repository.TourRepository
	bookingRepository      repository.BookingRepository
	paymentRepository      repository.PaymentRepository
	availabilityRepository repository.AvailabilityRepository
	availability           AvailabilityProvider
	gateway                gateway.PaymentGateway
	unpaidHoldTTL          time.Duration
	now                    func() time.Time
	log                    *zap.Logger
}

func NewBookingService(
	pool database.Pool,
	tourRepository repository.TourRepository,
	bookingRepository repository.BookingRepository,
	paymentRepository repository.PaymentRepository,
	availabilityRepository repository.AvailabilityRepository,
	availability AvailabilityProvider,
	paymentGateway gateway.PaymentGateway,
	unpaidHoldTTL time.Duration,
) BookingService {
	return &BookingServiceImpl{
		pool:                   pool,
		tourRepository:         tourRepository,
		bookingRepository:      bookingRepository,
		paymentRepository:      paymentRepository,
		availabilityRepository: availabilityRepository,
		availability:           availability,
		gateway:                paymentGateway,
		unpaidHoldTTL:          unpaidHoldTTL,
		now:                    time.Now,
		log:                    logger.WithComponent("service"),
	}
}

// newReference 對外顯示的預約編號
func newReference() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "TB-" + strings.ToUpper(id[:10])
}

// unavailable 非業務錯誤一律視為 booking store 暫時無法服務
func unavailable(err error) error {
	if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", apperrors.ErrServiceUnavailable, err)
}

// CreateBooking 新預約一律為 pending_payment，名額在同一個交易中扣減
func (s *BookingServiceImpl) CreateBooking(ctx context.Context, payload model.CreateBookingPayload) (*model.Booking, error) {
	if len(payload.Participants) == 0 || payload.BookingDate.IsZero() || !payload.PaymentMethod.IsValid() {
		return nil, fmt.Errorf("%w: incomplete booking payload", apperrors.ErrValidation)
	}

	tour, err := s.tourRepository.FindByID(ctx, payload.TourID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTourNotFound) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		return nil, unavailable(err)
	}
	if len(payload.Participants) > tour.MaxParticipants {
		return nil, fmt.Errorf("%w: at most %d participants", apperrors.ErrValidation, tour.MaxParticipants)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, unavailable(err)
	}
	defer tx.Rollback(ctx)

	err = s.availabilityRepository.ReserveSpots(ctx, tx, payload.TourID, payload.BookingDate, len(payload.Participants))
	if err != nil {
		if errors.Is(err, apperrors.ErrInsufficientSpots) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		return nil, unavailable(err)
	}

	currency := payload.Currency
	if currency == "" {
		currency = tour.Currency
	}
	booking, err := s.bookingRepository.Create(ctx, tx, &model.Booking{
		Reference:       newReference(),
		TourID:          payload.TourID,
		BookingDate:     model.DateOf(payload.BookingDate),
		Participants:    payload.Participants,
		Contact:         payload.Contact,
		SpecialRequests: payload.SpecialRequests,
		PaymentMethod:   payload.PaymentMethod,
		TotalAmount:     payload.TotalAmount,
		Currency:        currency,
		Status:          model.BookingStatusPendingPayment,
	})
	if err != nil {
		return nil, unavailable(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, unavailable(err)
	}

	s.availability.Invalidate(ctx, booking.TourID, booking.BookingDate)
	s.log.Info("booking created",
		zap.Int("booking_id", booking.ID),
		zap.String("reference", booking.Reference),
		zap.Int("participants", len(booking.Participants)),
	)
	return booking, nil
}

// CreatePayment 推播行動支付；成功後記錄付款並把預約改為 confirmed
func (s *BookingServiceImpl) CreatePayment(ctx context.Context, payload model.CreatePaymentPayload) (*model.Payment, error) {
	if !payload.Method.RequiresImmediateConfirmation() {
		return nil, fmt.Errorf("%w: %s cannot be paid online", apperrors.ErrValidation, payload.Method)
	}

	booking, err := s.bookingRepository.FindByID(ctx, payload.BookingID)
	if err != nil {
		if errors.Is(err, apperrors.ErrBookingNotFound) {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrValidation, err)
		}
		return nil, unavailable(err)
	}
	if booking.Status != model.BookingStatusPendingPayment {
		return nil, fmt.Errorf("%w: %w: booking is %s", apperrors.ErrValidation, apperrors.ErrInvalidBookingStatus, booking.Status)
	}

	result, pushErr := s.gateway.Push(ctx, gateway.PushRequest{
		IdempotencyKey: uuid.New().String(),
		BookingID:      booking.ID,
		Amount:         payload.Amount,
		Currency:       booking.Currency,
		PhoneNumber:    payload.PhoneNumber,
		Method:         payload.Method,
	})
	if pushErr != nil {
		if errors.Is(pushErr, apperrors.ErrPaymentDeclined) {
			s.recordDeclined(ctx, booking.ID, payload)
		}
		return nil, pushErr
	}

	payment, err := s.settle(ctx, booking.ID, &model.Payment{
		BookingID:   booking.ID,
		Amount:      payload.Amount,
		Method:      payload.Method,
		Status:      model.PaymentStatusCompleted,
		ProviderRef: result.ProviderRef,
	})
	if err != nil {
		// 錢已扣但資料庫沒寫成功，需要人工對帳
		s.log.Error("payment captured but not recorded",
			zap.Int("booking_id", booking.ID),
			zap.String("provider_ref", result.ProviderRef),
			zap.Error(err),
		)
		return nil, unavailable(err)
	}

	s.log.Info("booking confirmed", zap.Int("booking_id", booking.ID), zap.Int("payment_id", payment.ID))
	return payment, nil
}

func (s *BookingServiceImpl) settle(ctx context.Context, bookingID int, payment *model.Payment) (*model.Payment, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	booking, err := s.bookingRepository.FindByIDWithLock(ctx, tx, bookingID)
	if err != nil {
		return nil, err
	}

	created, err := s.paymentRepository.Create(ctx, tx, payment)
	if err != nil {
		return nil, err
	}

	// 付款期間被釋放的預約只記錄付款，不復活
	if booking.Status.CanTransitionTo(model.BookingStatusConfirmed) {
		if _, err := s.bookingRepository.UpdateStatus(ctx, tx, bookingID, model.BookingStatusConfirmed); err != nil {
			return nil, err
		}
	} else {
		s.log.Error("payment received for booking that is no longer payable",
			zap.Int("booking_id", bookingID),
			zap.String("status", string(booking.Status)),
		)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

func (s *BookingServiceImpl) recordDeclined(ctx context.Context, bookingID int, payload model.CreatePaymentPayload) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err == nil {
		defer tx.Rollback(ctx)
		_, err = s.paymentRepository.Create(ctx, tx, &model.Payment{
			BookingID: bookingID,
			Amount:    payload.Amount,
			Method:    payload.Method,
			Status:    model.PaymentStatusDeclined,
		})
		if err == nil {
			err = tx.Commit(ctx)
		}
	}
	if err != nil {
		s.log.Warn("failed to record declined payment", zap.Int("booking_id", bookingID), zap.Error(err))
	}
}

func (s *BookingServiceImpl) GetBooking(ctx context.Context, id int) (*model.Booking, error) {
	return s.bookingRepository.FindByID(ctx, id)
}

func (s *BookingServiceImpl) ListPayments(ctx context.Context, bookingID int) ([]*model.Payment, error) {
	if _, err := s.bookingRepository.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	return s.paymentRepository.ListByBookingID(ctx, bookingID)
}

func (s *BookingServiceImpl) RetryPayment(ctx context.Context, bookingID int, phone string, method model.PaymentMethod) (orchestrator.Outcome, error) {
	booking, err := s.bookingRepository.FindByID(ctx, bookingID)
	if err != nil {
		return orchestrator.Outcome{}, err
	}
	if booking.Status != model.BookingStatusPendingPayment {
		return orchestrator.Outcome{}, apperrors.ErrInvalidBookingStatus
	}
	if method == "" {
		method = booking.PaymentMethod
	}
	if phone == "" {
		phone = booking.Contact.Phone
	}
	if !method.RequiresImmediateConfirmation() {
		return orchestrator.Outcome{}, fmt.Errorf("%w: %s cannot be used to retry a payment", apperrors.ErrValidation, method)
	}

	return orchestrator.NewBookingOrchestrator(s, s).RetryPayment(ctx, *booking, phone, method), nil
}

func (s *BookingServiceImpl) ReleaseUnpaid(ctx context.Context, unpaid model.UnpaidBooking) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	booking, err := s.bookingRepository.FindByIDWithLock(ctx, tx, unpaid.BookingID)
	if err != nil {
		return err
	}

	log := s.log.With(zap.Int("booking_id", booking.ID))

	// 已付款、已取消或線下付款的預約不處理
	if booking.Status != model.BookingStatusPendingPayment || !booking.PaymentMethod.RequiresImmediateConfirmation() {
		log.Debug("unpaid booking no longer releasable", zap.String("status", string(booking.Status)))
		return nil
	}

	if age := s.now().Sub(booking.CreatedAt); age < s.unpaidHoldTTL {
		return fmt.Errorf("%w: held for %s of %s", apperrors.ErrBookingNotExpired, age.Truncate(time.Second), s.unpaidHoldTTL)
	}

	if _, err := s.bookingRepository.UpdateStatus(ctx, tx, booking.ID, model.BookingStatusCancelled); err != nil {
		return err
	}
	err = s.availabilityRepository.ReleaseSpots(ctx, tx, booking.TourID, booking.BookingDate, len(booking.Participants))
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	s.availability.Invalidate(ctx, booking.TourID, booking.BookingDate)
	log.Info("unpaid booking released", zap.Int("spots", len(booking.Participants)))
	return nil
}
