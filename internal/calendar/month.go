package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
)

const monthLayout = "2006-01"

// ErrInvalidMonth indicates that a value is not a YYYY-MM month.
var ErrInvalidMonth = errors.New("calendar: invalid month")

// Month identifies a displayed calendar month.
type Month struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM value.
func ParseMonth(rawInput string) (Month, error) {
	parsed, err := time.Parse(monthLayout, strings.TrimSpace(rawInput))
	if err != nil {
		return Month{}, fmt.Errorf("%w: %q", ErrInvalidMonth, rawInput)
	}
	if !dates.YearSupported(parsed.Year()) {
		return Month{}, fmt.Errorf("%w: year outside %d-%d", ErrInvalidMonth, dates.MinYear, dates.MaxYear)
	}
	return Month{Year: parsed.Year(), Month: parsed.Month()}, nil
}

// MonthOf returns the month containing day.
func MonthOf(day dates.Day) Month {
	t := day.Time()
	return Month{Year: t.Year(), Month: t.Month()}
}

// String returns the YYYY-MM representation.
func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Next advances one month, rolling the year over after December.
func (m Month) Next() Month {
	if m.Month == time.December {
		return Month{Year: m.Year + 1, Month: time.January}
	}
	return Month{Year: m.Year, Month: m.Month + 1}
}

// Previous steps back one month, rolling the year back before January.
func (m Month) Previous() Month {
	if m.Month == time.January {
		return Month{Year: m.Year - 1, Month: time.December}
	}
	return Month{Year: m.Year, Month: m.Month - 1}
}

// FirstDay returns the first day of the month.
func (m Month) FirstDay() dates.Day {
	return dates.Date(m.Year, m.Month, 1)
}

// LastDay returns the last day of the month.
func (m Month) LastDay() dates.Day {
	return dates.Date(m.Year, m.Month+1, 0)
}

// Contains reports whether day belongs to the month.
func (m Month) Contains(day dates.Day) bool {
	return MonthOf(day) == m
}
