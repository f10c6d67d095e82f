package calendar

import (
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
)

// WeekStart is the first column of the grid.
const WeekStart = time.Sunday

// Cell is one day of the rendered grid.
type Cell struct {
	Date    dates.Day
	InRange bool
	InMonth bool
	Today   bool
}

// Interactive reports whether the cell accepts selections.
func (c Cell) Interactive() bool {
	return c.InRange
}

// Grid lays out display padded to whole weeks. Leading cells come from the
// previous month and trailing cells from the next one. Navigation outside the
// voting range is allowed; those cells are simply out of range.
func Grid(display Month, span dates.Range, today dates.Day) []Cell {
	first := display.FirstDay()
	last := display.LastDay()

	leading := (int(first.Weekday()) - int(WeekStart) + 7) % 7
	trailing := (int(WeekStart) + 6 - int(last.Weekday())) % 7

	start := first.AddDays(-leading)
	end := last.AddDays(trailing)

	cells := make([]Cell, 0, dates.DaysBetween(start, end)+1)
	for current := start; current <= end; current = current.AddDays(1) {
		cells = append(cells, Cell{
			Date:    current,
			InRange: span.Contains(current),
			InMonth: display.Contains(current),
			Today:   current == today,
		})
	}
	return cells
}

// Weeks splits grid cells into rows of seven.
func Weeks(cells []Cell) [][]Cell {
	return chunkWeeks(cells)
}

func chunkWeeks[T any](items []T) [][]T {
	weeks := make([][]T, 0, len(items)/7)
	for index := 0; index < len(items); index += 7 {
		end := min(index+7, len(items))
		weeks = append(weeks, items[index:end])
	}
	return weeks
}
