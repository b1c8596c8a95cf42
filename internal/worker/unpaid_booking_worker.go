package worker

import (
	"context"
	"errors"

	"tour-booking/internal/model"
	"tour-booking/internal/queue"
	apperrors "tour-booking/pkg/app_errors"
	"tour-booking/pkg/logger"

	"go.uber.org/zap"
)

type unpaidReleaser interface {
	ReleaseUnpaid(ctx context.Context, unpaid model.UnpaidBooking) error
}

type UnpaidBookingWorker interface {
	// 訂閱待釋放預約隊列
	Start(ctx context.Context) error
}

type UnpaidBookingWorkerImpl struct {
	service unpaidReleaser
	queue   queue.UnpaidBookingQueue
	log     *zap.Logger
}

func NewUnpaidBookingWorker(service unpaidReleaser, queue queue.UnpaidBookingQueue) UnpaidBookingWorker {
	return &UnpaidBookingWorkerImpl{
		service: service,
		queue:   queue,
		log:     logger.WithComponent("worker"),
	}
}

func (w *UnpaidBookingWorkerImpl) Start(ctx context.Context) error {
	msgs, err := w.queue.SubscribeUnpaid(ctx)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			w.handle(ctx, msg)
		}
		w.log.Info("unpaid booking worker stopped")
	}()
	return nil
}

func (w *UnpaidBookingWorkerImpl) handle(ctx context.Context, msg queue.Delivery) {
	log := w.log.With(zap.Int("booking_id", msg.Data.BookingID))

	err := w.service.ReleaseUnpaid(ctx, *msg.Data)
	switch {
	case err == nil:
		msg.Ack()
	case errors.Is(err, apperrors.ErrBookingNotExpired):
		// 保留期未到，稍後重新投遞
		msg.Nack(true)
	case errors.Is(err, apperrors.ErrBookingNotFound):
		log.Warn("unpaid booking no longer exists, dropping message")
		msg.Nack(false)
	default:
		// 資料庫暫時連不上，重試
		log.Error("failed to release unpaid booking", zap.Error(err))
		msg.Nack(true)
	}
}
