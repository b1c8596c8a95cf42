package cache

import (
	"context"
	"sort"
	"testing"
	"time"

	"tour-booking/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCache(t *testing.T) (*miniredis.Miniredis, AvailabilityCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return mr, NewRedisAvailabilityCache(client, time.Minute)
}

func TestAvailabilityCache_SetAndGetMonth(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	days := []model.AvailabilityDay{
		{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Status: model.DayStatusAvailable, AvailableSpots: 12},
		{Date: time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), Status: model.DayStatusLimited, AvailableSpots: 2},
	}
	require.NoError(t, c.SetMonth(ctx, 7, 2025, time.March, days))

	got, ok, err := c.GetMonth(ctx, 7, 2025, time.March)
	require.NoError(t, err)
	require.True(t, ok)
	sort.Slice(got, func(i, j int) bool { return got[i].Date.Before(got[j].Date) })
	assert.Equal(t, days, got)

	assert.True(t, mr.Exists("tour:7:availability:2025-03"))
	assert.Equal(t, time.Minute, mr.TTL("tour:7:availability:2025-03"))
}

func TestAvailabilityCache_EmptyMonthIsAHit(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMonth(ctx, 7, 2025, time.April, nil))

	got, ok, err := c.GetMonth(ctx, 7, 2025, time.April)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestAvailabilityCache_Miss(t *testing.T) {
	_, c := setupCache(t)

	got, ok, err := c.GetMonth(context.Background(), 7, 2025, time.May)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestAvailabilityCache_Expiry(t *testing.T) {
	mr, c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMonth(ctx, 7, 2025, time.March, nil))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.GetMonth(ctx, 7, 2025, time.March)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityCache_Invalidate(t *testing.T) {
	_, c := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetMonth(ctx, 7, 2025, time.March, []model.AvailabilityDay{
		{Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Status: model.DayStatusAvailable, AvailableSpots: 12},
	}))
	require.NoError(t, c.Invalidate(ctx, 7, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)))

	_, ok, err := c.GetMonth(ctx, 7, 2025, time.March)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAvailabilityCache_CorruptEntryIsAMiss(t *testing.T) {
	mr, c := setupCache(t)

	mr.HSet("tour:7:availability:2025-03", loadedField, "1", "2025-03-10", "garbage")

	_, ok, err := c.GetMonth(context.Background(), 7, 2025, time.March)
	require.NoError(t, err)
	assert.False(t, ok)
}
