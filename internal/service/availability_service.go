package service

import (
	"context"
	"time"

	"tour-booking/internal/cache"
	"tour-booking/internal/model"
	"tour-booking/internal/repository"
	"tour-booking/pkg/logger"

	"go.uber.org/zap"
)

// AvailabilityProvider 名額快照的來源，wizard 開啟與送出前都會重新拉取
type AvailabilityProvider interface {
	GetAvailability(ctx context.Context, tourID int, from, to time.Time) ([]model.AvailabilityDay, error)
	Invalidate(ctx context.Context, tourID int, date time.Time)
}

type AvailabilityServiceImpl struct {
	repository repository.AvailabilityRepository
	cache      cache.AvailabilityCache
	log        *zap.Logger
}

// NewAvailabilityService availabilityCache 可為 nil，此時每次都查資料庫
func NewAvailabilityService(availabilityRepository repository.AvailabilityRepository, availabilityCache cache.AvailabilityCache) AvailabilityProvider {
	return &AvailabilityServiceImpl{
		repository: availabilityRepository,
		cache:      availabilityCache,
		log:        logger.WithComponent("service"),
	}
}

// GetAvailability 以月為單位讀 cache，miss 時整月從資料庫載入並回寫
func (s *AvailabilityServiceImpl) GetAvailability(ctx context.Context, tourID int, from, to time.Time) ([]model.AvailabilityDay, error) {
	from, to = model.DateOf(from), model.DateOf(to)
	if to.Before(from) {
		return nil, nil
	}

	var days []model.AvailabilityDay
	for month := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC); !month.After(to); month = month.AddDate(0, 1, 0) {
		monthDays, err := s.loadMonth(ctx, tourID, month)
		if err != nil {
			return nil, err
		}
		for _, day := range monthDays {
			if day.Date.Before(from) || day.Date.After(to) {
				continue
			}
			days = append(days, day)
		}
	}

	return days, nil
}

func (s *AvailabilityServiceImpl) loadMonth(ctx context.Context, tourID int, month time.Time) ([]model.AvailabilityDay, error) {
	if s.cache != nil {
		days, ok, err := s.cache.GetMonth(ctx, tourID, month.Year(), month.Month())
		if err != nil {
			// Redis 故障時退回資料庫
			s.log.Warn("availability cache read failed", zap.Int("tour_id", tourID), zap.Error(err))
		} else if ok {
			return days, nil
		}
	}

	days, err := s.repository.ListRange(ctx, tourID, month, month.AddDate(0, 1, -1))
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetMonth(ctx, tourID, month.Year(), month.Month(), days); err != nil {
			s.log.Warn("availability cache write failed", zap.Int("tour_id", tourID), zap.Error(err))
		}
	}
	return days, nil
}

// Invalidate 失敗只記錄，cache 會在 TTL 後自然過期
func (s *AvailabilityServiceImpl) Invalidate(ctx context.Context, tourID int, date time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, tourID, date); err != nil {
		s.log.Warn("availability cache invalidate failed",
			zap.Int("tour_id", tourID),
			zap.String("date", model.FormatDate(date)),
			zap.Error(err),
		)
	}
}
