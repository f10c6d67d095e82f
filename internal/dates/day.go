package dates

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Layout is the wire format for calendar days.
const Layout = "2006-01-02"

// Accepted years. Grid padding and range iteration stay inside 0001-9999, which
// is all Layout can round-trip.
const (
	MinYear = 1900
	MaxYear = 2999
)

// ErrInvalidDay indicates that a value is not a YYYY-MM-DD calendar day.
var ErrInvalidDay = errors.New("dates: invalid day")

// Day is a calendar day encoded as YYYY-MM-DD. The zero-padded encoding makes
// lexicographic order equal to chronological order, so Days compare as strings.
type Day string

// ParseDay validates raw input and returns the normalized Day.
func ParseDay(rawInput string) (Day, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidDay)
	}
	parsed, err := time.Parse(Layout, trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDay, trimmed)
	}
	if !YearSupported(parsed.Year()) {
		return "", fmt.Errorf("%w: year outside %d-%d", ErrInvalidDay, MinYear, MaxYear)
	}
	return Day(parsed.Format(Layout)), nil
}

// YearSupported reports whether year lies within MinYear..MaxYear.
func YearSupported(year int) bool {
	return year >= MinYear && year <= MaxYear
}

// MustParseDay is ParseDay for literals known to be valid.
func MustParseDay(rawInput string) Day {
	day, err := ParseDay(rawInput)
	if err != nil {
		panic(err)
	}
	return day
}

// DayOf strips the time of day from t as observed in t's own location.
func DayOf(t time.Time) Day {
	return Day(t.Format(Layout))
}

// Date builds a Day from its components, normalizing overflow the way time.Date does.
func Date(year int, month time.Month, day int) Day {
	return DayOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// String returns the YYYY-MM-DD representation.
func (d Day) String() string {
	return string(d)
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool {
	return d == ""
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	parsed, err := time.Parse(Layout, string(d))
	if err != nil {
		panic(fmt.Sprintf("dates: malformed day %q", string(d)))
	}
	return parsed
}

// AddDays returns the day n days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time().AddDate(0, 0, n))
}

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday {
	return d.Time().Weekday()
}

// Before reports whether d is strictly earlier than other.
func (d Day) Before(other Day) bool {
	return d < other
}

// DaysBetween returns the number of whole days from start to end; negative when end precedes start.
func DaysBetween(start, end Day) int {
	return int(end.Time().Sub(start.Time()).Hours() / 24)
}

// Range is an inclusive span of days.
type Range struct {
	Start Day
	End   Day
}

// Contains reports whether day lies within the inclusive range.
func (r Range) Contains(day Day) bool {
	return day >= r.Start && day <= r.End
}

// Span returns the number of days between Start and End.
func (r Range) Span() int {
	return DaysBetween(r.Start, r.End)
}

// Days lists every day of the range in order. An inverted range yields nothing.
func (r Range) Days() []Day {
	if r.End < r.Start {
		return nil
	}
	days := make([]Day, 0, r.Span()+1)
	for current := r.Start; current <= r.End; current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}
