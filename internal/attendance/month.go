package attendance

import (
	"fmt"
	"time"
)

// DayCell is one day of a month grid.
type DayCell struct {
	Day    int    `json:"day"`
	Date   string `json:"date"`
	Status Status `json:"status,omitempty"`
}

// MonthGrid is a Sunday-first month calendar: Leading blank cells
// followed by one cell per day.
type MonthGrid struct {
	Year    int        `json:"year"`
	Month   time.Month `json:"month"`
	Title   string     `json:"title"`
	Leading int        `json:"leading"`
	Cells   []DayCell  `json:"cells"`
}

// NormalizeMonth folds month values outside 1..12 into the right year.
func NormalizeMonth(year int, month time.Month) (int, time.Month) {
	// noon avoids any DST edge at midnight
	t := time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
	return t.Year(), t.Month()
}

// DaysIn returns the number of days in month, using day 0 of the next month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 12, 0, 0, 0, time.UTC).Day()
}

// BuildMonth lays out month of year with the statuses found in entries.
func BuildMonth(year int, month time.Month, entries DailyMap) MonthGrid {
	year, month = NormalizeMonth(year, month)
	first := time.Date(year, month, 1, 12, 0, 0, 0, time.UTC)
	days := DaysIn(year, month)

	grid := MonthGrid{
		Year:    year,
		Month:   month,
		Title:   fmt.Sprintf("%s %d", month, year),
		Leading: int(first.Weekday()),
		Cells:   make([]DayCell, 0, days),
	}
	for day := 1; day <= days; day++ {
		date := first.AddDate(0, 0, day-1).Format(DateLayout)
		grid.Cells = append(grid.Cells, DayCell{Day: day, Date: date, Status: entries[date]})
	}
	return grid
}

// Prev returns the year and month before the grid's.
func (g MonthGrid) Prev() (int, time.Month) {
	return NormalizeMonth(g.Year, g.Month-1)
}

// Next returns the year and month after the grid's.
func (g MonthGrid) Next() (int, time.Month) {
	return NormalizeMonth(g.Year, g.Month+1)
}

// Weeks splits the grid into rows of seven. Blank cells are nil.
func (g MonthGrid) Weeks() [][]*DayCell {
	slots := make([]*DayCell, g.Leading, g.Leading+len(g.Cells)+6)
	for i := range g.Cells {
		slots = append(slots, &g.Cells[i])
	}
	for len(slots)%7 != 0 {
		slots = append(slots, nil)
	}

	weeks := make([][]*DayCell, 0, len(slots)/7)
	for i := 0; i < len(slots); i += 7 {
		weeks = append(weeks, slots[i:i+7])
	}
	return weeks
}
