package model

import "time"

// DateLayout 日期欄位的 ISO 格式
const DateLayout = time.DateOnly

// DayStatus 單日可預約狀態
type DayStatus string

const (
	DayStatusAvailable   DayStatus = "available"
	DayStatusLimited     DayStatus = "limited"
	DayStatusFull        DayStatus = "full"
	DayStatusUnavailable DayStatus = "unavailable"
)

// IsValid 驗證狀態是否有效
func (s DayStatus) IsValid() bool {
	switch s {
	case DayStatusAvailable, DayStatusLimited, DayStatusFull, DayStatusUnavailable:
		return true
	}
	return false
}

// IsBookable full 與 unavailable 不可預約
func (s DayStatus) IsBookable() bool {
	return s == DayStatusAvailable || s == DayStatusLimited
}

// AvailabilityDay 單日名額，Date 一律為 UTC 零點
type AvailabilityDay struct {
	Date           time.Time `json:"date" db:"date"`
	Status         DayStatus `json:"status" db:"status"`
	AvailableSpots int       `json:"available_spots" db:"available_spots"`
}

// DateOf 取出 t 在其時區中的日曆日期，以 UTC 零點表示
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate 解析 YYYY-MM-DD
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
