package cache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tour-booking/internal/model"
	"tour-booking/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 整月資料已寫入的標記欄位，用來區分「沒有任何開放日」與 cache miss
const loadedField = "_loaded"

type AvailabilityCache interface {
	// 讀取整月快照，ok 為 false 代表 cache miss
	GetMonth(ctx context.Context, tourID int, year int, month time.Month) (days []model.AvailabilityDay, ok bool, err error)
	// 寫入整月快照 (使用Lua腳本確保原子性)
	SetMonth(ctx context.Context, tourID int, year int, month time.Month, days []model.AvailabilityDay) error
	// 名額異動後讓該日所在月份失效
	Invalidate(ctx context.Context, tourID int, date time.Time) error
}

type RedisAvailabilityCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisAvailabilityCache(client *redis.Client, ttl time.Duration) AvailabilityCache {
	return &RedisAvailabilityCacheImpl{
		client: client,
		ttl:    ttl,
		log:    logger.WithComponent("cache"),
	}
}

// 月份 key
func (c *RedisAvailabilityCacheImpl) getMonthKey(tourID int, year int, month time.Month) string {
	return fmt.Sprintf("tour:%d:availability:%04d-%02d", tourID, year, int(month))
}

// 欄位值格式 "status:spots"
func encodeDay(day model.AvailabilityDay) string {
	return fmt.Sprintf("%s:%d", day.Status, day.AvailableSpots)
}

func decodeDay(field, value string) (model.AvailabilityDay, error) {
	date, err := model.ParseDate(field)
	if err != nil {
		return model.AvailabilityDay{}, fmt.Errorf("invalid date field %q: %w", field, err)
	}

	status, spots, found := strings.Cut(value, ":")
	if !found {
		return model.AvailabilityDay{}, fmt.Errorf("invalid availability value %q", value)
	}
	n, err := strconv.Atoi(spots)
	if err != nil {
		return model.AvailabilityDay{}, fmt.Errorf("invalid spots: %v", err)
	}

	return model.AvailabilityDay{
		Date:           date,
		Status:         model.DayStatus(status),
		AvailableSpots: n,
	}, nil
}

func (c *RedisAvailabilityCacheImpl) GetMonth(ctx context.Context, tourID int, year int, month time.Month) ([]model.AvailabilityDay, bool, error) {
	key := c.getMonthKey(tourID, year, month)
	result, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, false, err
	}

	// 檢查 key 是否存在
	if _, ok := result[loadedField]; !ok {
		return nil, false, nil
	}

	days := make([]model.AvailabilityDay, 0, len(result)-1)
	for field, value := range result {
		if field == loadedField {
			continue
		}
		day, err := decodeDay(field, value)
		if err != nil {
			// 資料損毀時當作 miss，由 repository 重新載入
			c.log.Warn("corrupt availability cache entry", zap.String("key", key), zap.Error(err))
			return nil, false, nil
		}
		days = append(days, day)
	}

	return days, true, nil
}

/*
寫入整月快照 (使用Lua腳本確保原子性)
 1. 刪除舊資料
 2. 寫入每日欄位與標記欄位
 3. 設定過期時間
*/
var setMonthScript = redis.NewScript(`
	local key = KEYS[1]
	local ttl_ms = tonumber(ARGV[1])

	redis.call('DEL', key)
	for i = 2, #ARGV, 2 do
		redis.call('HSET', key, ARGV[i], ARGV[i + 1])
	end
	redis.call('PEXPIRE', key, ttl_ms)

	return 1
`)

func (c *RedisAvailabilityCacheImpl) SetMonth(ctx context.Context, tourID int, year int, month time.Month, days []model.AvailabilityDay) error {
	key := c.getMonthKey(tourID, year, month)

	args := make([]interface{}, 0, 3+2*len(days))
	args = append(args, c.ttl.Milliseconds(), loadedField, "1")
	for _, day := range days {
		args = append(args, model.FormatDate(day.Date), encodeDay(day))
	}

	return setMonthScript.Run(ctx, c.client, []string{key}, args...).Err()
}

func (c *RedisAvailabilityCacheImpl) Invalidate(ctx context.Context, tourID int, date time.Time) error {
	key := c.getMonthKey(tourID, date.Year(), date.Month())
	return c.client.Del(ctx, key).Err()
}
