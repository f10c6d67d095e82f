package calendar

import (
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
)

// DefaultRingSize and DefaultRingStroke match the rendered date cell.
const (
	DefaultRingSize   = 48
	DefaultRingStroke = 3
)

// CellView joins a grid cell with the aggregate for its day.
type CellView struct {
	Date            dates.Day    `json:"date"`
	Day             int          `json:"day"`
	InRange         bool         `json:"inRange"`
	InMonth         bool         `json:"inMonth"`
	Today           bool         `json:"today"`
	Interactive     bool         `json:"interactive"`
	Available       int          `json:"available"`
	Maybe           int          `json:"maybe"`
	Percentage      float64      `json:"percentage"`
	PercentageColor string       `json:"percentageColor"`
	MyStatus        tally.Status `json:"myStatus,omitempty"`
	Arcs            []Arc        `json:"arcs"`
}

// MonthView is the renderable calendar for one month.
type MonthView struct {
	Month         string       `json:"month"`
	PreviousMonth string       `json:"previousMonth"`
	NextMonth     string       `json:"nextMonth"`
	Weeks         [][]CellView `json:"weeks"`
}

// ViewInput carries everything needed to render one month.
type ViewInput struct {
	Display           Month
	Span              dates.Range
	Today             dates.Day
	Tallies           tally.Tallies
	TotalParticipants int
	Mine              map[dates.Day]tally.Status
}

// Render builds the month view. Out-of-range cells carry no aggregate.
func Render(input ViewInput) MonthView {
	circumference := Circumference(DefaultRingSize, DefaultRingStroke)
	cells := Grid(input.Display, input.Span, input.Today)

	views := make([]CellView, 0, len(cells))
	for _, cell := range cells {
		view := CellView{
			Date:        cell.Date,
			Day:         cell.Date.Time().Day(),
			InRange:     cell.InRange,
			InMonth:     cell.InMonth,
			Today:       cell.Today,
			Interactive: cell.Interactive(),
			Arcs:        []Arc{},
		}
		if cell.InRange {
			counts := tally.ComputeDateSegments(cell.Date, input.Tallies)
			view.Available = counts.Available
			view.Maybe = counts.Maybe
			view.Percentage = tally.ComputeParticipantPercentage(counts, input.TotalParticipants)
			view.PercentageColor = PercentageColor(view.Percentage)
			view.MyStatus = input.Mine[cell.Date]
			view.Arcs = Arcs(counts, input.TotalParticipants, circumference)
		}
		views = append(views, view)
	}

	return MonthView{
		Month:         input.Display.String(),
		PreviousMonth: input.Display.Previous().String(),
		NextMonth:     input.Display.Next().String(),
		Weeks:         chunkWeeks(views),
	}
}
