package queue

import (
	"context"
	"time"

	"tour-booking/internal/model"
)

type Delivery struct {
	Data *model.UnpaidBooking
	Ack  func()
	Nack func(requeue bool)
}

type UnpaidBookingQueue interface {
	// 發送付款失敗的預約到隊列
	PublishUnpaid(ctx context.Context, unpaid *model.UnpaidBooking) error
	// 訂閱待釋放預約隊列
	SubscribeUnpaid(ctx context.Context) (<-chan Delivery, error)
}

type MemoryUnpaidBookingQueueImpl struct {
	// 使用 Go channel 來模擬 MQ 隊列
	ch         chan *model.UnpaidBooking
	retryDelay time.Duration
}

// NewMemoryUnpaidBookingQueue retryDelay 為 nack(requeue) 後重新投遞前的等待時間
func NewMemoryUnpaidBookingQueue(bufferSize int, retryDelay time.Duration) UnpaidBookingQueue {
	return &MemoryUnpaidBookingQueueImpl{
		ch:         make(chan *model.UnpaidBooking, bufferSize),
		retryDelay: retryDelay,
	}
}

func (q *MemoryUnpaidBookingQueueImpl) PublishUnpaid(ctx context.Context, unpaid *model.UnpaidBooking) error {
	select {
	case q.ch <- unpaid:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryUnpaidBookingQueueImpl) SubscribeUnpaid(ctx context.Context) (<-chan Delivery, error) {
	out := make(chan Delivery)

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case unpaid, ok := <-q.ch:
				if !ok {
					return
				}

				select {
				case out <- q.newDelivery(ctx, unpaid):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (q *MemoryUnpaidBookingQueueImpl) newDelivery(ctx context.Context, unpaid *model.UnpaidBooking) Delivery {
	return Delivery{
		Data: unpaid,
		Ack:  func() { /* 記憶體版不用做特別動作 */ },
		Nack: func(requeue bool) {
			if !requeue {
				return
			}
			// 延遲後重回隊列，模擬 PEL 逾時重領
			time.AfterFunc(q.retryDelay, func() {
				_ = q.PublishUnpaid(ctx, unpaid)
			})
		},
	}
}
