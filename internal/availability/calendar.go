// Package availability 將稀疏的日期名額資料轉成月曆格，並提供唯一的可選判斷 CanSelect。
package availability

import (
	"time"

	"tour-booking/internal/model"
)

// DayCell 月曆中的一格；Blank 為月初對齊用的空白格
type DayCell struct {
	Blank          bool            `json:"blank"`
	Date           time.Time       `json:"date,omitempty"`
	Day            int             `json:"day,omitempty"`
	Status         model.DayStatus `json:"status,omitempty"`
	AvailableSpots int             `json:"available_spots"`
	IsPast         bool            `json:"is_past"`
	IsToday        bool            `json:"is_today"`
	IsSelected     bool            `json:"is_selected"`
	Selectable     bool            `json:"selectable"`
}

// CanSelect 畫面反灰與點選接受都只用這個判斷，兩者不會不一致
func CanSelect(cell DayCell) bool {
	if cell.Blank || cell.IsPast {
		return false
	}
	return cell.Status.IsBookable()
}

// StatusFromSpots 依剩餘名額推導狀態
func StatusFromSpots(spots, limitedThreshold int) model.DayStatus {
	switch {
	case spots <= 0:
		return model.DayStatusFull
	case spots <= limitedThreshold:
		return model.DayStatusLimited
	default:
		return model.DayStatusAvailable
	}
}

func indexRecords(records []model.AvailabilityDay) map[time.Time]model.AvailabilityDay {
	index := make(map[time.Time]model.AvailabilityDay, len(records))
	for _, r := range records {
		date := model.DateOf(r.Date)
		if !r.Status.IsValid() {
			r.Status = model.DayStatusUnavailable
		}
		if r.AvailableSpots < 0 {
			r.AvailableSpots = 0
		}
		r.Date = date
		index[date] = r
	}
	return index
}

func buildCell(date time.Time, index map[time.Time]model.AvailabilityDay, today time.Time, selected *time.Time) DayCell {
	date = model.DateOf(date)
	cell := DayCell{
		Date:   date,
		Day:    date.Day(),
		Status: model.DayStatusUnavailable,
	}
	if r, ok := index[date]; ok {
		cell.Status = r.Status
		cell.AvailableSpots = r.AvailableSpots
	}
	cell.IsPast = date.Before(today)
	cell.IsToday = date.Equal(today)
	cell.IsSelected = selected != nil && model.DateOf(*selected).Equal(date)
	cell.Selectable = CanSelect(cell)
	return cell
}

// BuildMonthGrid 產生指定月份的月曆格，週日為一週第一天。
// today 只取日期部分；來源中沒有的日期一律視為 unavailable。
func BuildMonthGrid(year int, month time.Month, records []model.AvailabilityDay, today time.Time, selected *time.Time) []DayCell {
	return buildMonthGrid(year, month, indexRecords(records), model.DateOf(today), selected)
}

func buildMonthGrid(year int, month time.Month, index map[time.Time]model.AvailabilityDay, today time.Time, selected *time.Time) []DayCell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	daysInMonth := first.AddDate(0, 1, -1).Day()
	leading := int(first.Weekday())

	cells := make([]DayCell, 0, leading+daysInMonth)
	for i := 0; i < leading; i++ {
		cells = append(cells, DayCell{Blank: true})
	}
	for d := 0; d < daysInMonth; d++ {
		cells = append(cells, buildCell(first.AddDate(0, 0, d), index, today, selected))
	}
	return cells
}

// Calendar 一份名額快照加上「今天」，供 wizard 與 validator 共用同一個判斷
type Calendar struct {
	index map[time.Time]model.AvailabilityDay
	today time.Time
}

func NewCalendar(records []model.AvailabilityDay, today time.Time) *Calendar {
	return &Calendar{
		index: indexRecords(records),
		today: model.DateOf(today),
	}
}

func (c *Calendar) Today() time.Time {
	return c.today
}

// Day 回傳任意日期的合併結果
func (c *Calendar) Day(date time.Time) DayCell {
	return buildCell(date, c.index, c.today, nil)
}

func (c *Calendar) CanSelectDate(date time.Time) bool {
	return CanSelect(c.Day(date))
}

func (c *Calendar) MonthGrid(year int, month time.Month, selected *time.Time) []DayCell {
	return buildMonthGrid(year, month, c.index, c.today, selected)
}
