package calendar

import (
	"errors"
	"math"
	"slices"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
)

func TestMonthNavigationRollsOverYears(t *testing.T) {
	december := Month{Year: 2024, Month: time.December}
	if next := december.Next(); next != (Month{Year: 2025, Month: time.January}) {
		t.Fatalf("unexpected next month %v", next)
	}
	january := Month{Year: 2025, Month: time.January}
	if previous := january.Previous(); previous != december {
		t.Fatalf("unexpected previous month %v", previous)
	}
	if december.LastDay() != "2024-12-31" || (Month{Year: 2024, Month: time.February}).LastDay() != "2024-02-29" {
		t.Fatalf("unexpected last days")
	}
}

func TestParseMonth(t *testing.T) {
	month, err := ParseMonth("2025-06")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if month.String() != "2025-06" {
		t.Fatalf("unexpected month %s", month)
	}
	if _, err := ParseMonth("2025-13"); err == nil {
		t.Fatalf("expected invalid month to be rejected")
	}
}

func TestParseMonthYearBounds(t *testing.T) {
	testCases := []struct {
		input   string
		wantErr bool
	}{
		{input: "1900-01"},
		{input: "2999-12"},
		{input: "1899-12", wantErr: true},
		{input: "3000-01", wantErr: true},
		{input: "0000-01", wantErr: true},
		{input: "9999-12", wantErr: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.input, func(t *testing.T) {
			month, err := ParseMonth(testCase.input)
			if testCase.wantErr {
				if !errors.Is(err, ErrInvalidMonth) {
					t.Fatalf("expected ErrInvalidMonth, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			cells := Grid(month, dates.Range{Start: month.FirstDay(), End: month.LastDay()}, month.FirstDay())
			if len(cells)%7 != 0 {
				t.Fatalf("expected whole weeks, got %d cells", len(cells))
			}
		})
	}
}

func TestGridThirtyDayMonthStartingSunday(t *testing.T) {
	// June 2025 has 30 days and begins on a Sunday.
	june := Month{Year: 2025, Month: time.June}
	span := dates.Range{Start: "2025-06-10", End: "2025-06-20"}
	cells := Grid(june, span, "2025-06-15")

	if len(cells) != 35 {
		t.Fatalf("expected ceil(30/7)*7 = 35 cells, got %d", len(cells))
	}
	if cells[0].Date != "2025-06-01" {
		t.Fatalf("expected no leading padding, got %s", cells[0].Date)
	}
	for _, cell := range cells[30:] {
		if cell.InMonth {
			t.Fatalf("expected trailing cell %s outside month", cell.Date)
		}
	}
	if cells[34].Date != "2025-07-05" {
		t.Fatalf("expected trailing padding through 2025-07-05, got %s", cells[34].Date)
	}

	inRange := 0
	for _, cell := range cells {
		if cell.InRange {
			inRange++
			if !cell.Interactive() {
				t.Fatalf("expected in-range cell %s to be interactive", cell.Date)
			}
		} else if cell.Interactive() {
			t.Fatalf("expected out-of-range cell %s to be non-interactive", cell.Date)
		}
		if cell.Today != (cell.Date == "2025-06-15") {
			t.Fatalf("unexpected today flag on %s", cell.Date)
		}
	}
	if inRange != 11 {
		t.Fatalf("expected 11 in-range cells, got %d", inRange)
	}
	if len(Weeks(cells)) != 5 {
		t.Fatalf("expected five weeks")
	}
}

func TestGridPadsLeadingDaysFromPreviousMonth(t *testing.T) {
	// February 2025 starts on a Saturday and ends on a Friday.
	february := Month{Year: 2025, Month: time.February}
	cells := Grid(february, dates.Range{Start: "2025-02-01", End: "2025-02-03"}, "")

	if cells[0].Date != "2025-01-26" || cells[0].InMonth {
		t.Fatalf("expected leading padding from January, got %+v", cells[0])
	}
	if cells[6].Date != "2025-02-01" || !cells[6].InMonth || !cells[6].InRange {
		t.Fatalf("expected first of month in column 6, got %+v", cells[6])
	}
	last := cells[len(cells)-1]
	if last.Date != "2025-03-01" || last.Date.Weekday() != time.Saturday {
		t.Fatalf("expected trailing padding to end on Saturday, got %s", last.Date)
	}
	if len(cells)%7 != 0 {
		t.Fatalf("expected whole weeks, got %d cells", len(cells))
	}
}

func TestGridOutsideRangeIsNavigable(t *testing.T) {
	cells := Grid(Month{Year: 2030, Month: time.January}, dates.Range{Start: "2025-02-01", End: "2025-02-03"}, "")
	for _, cell := range cells {
		if cell.InRange {
			t.Fatalf("expected no in-range cells far from the range")
		}
	}
}

func TestArcsAreContiguous(t *testing.T) {
	circumference := 100.0
	arcs := Arcs(tally.Counts{Available: 2, Maybe: 1}, 4, circumference)
	if len(arcs) != 2 {
		t.Fatalf("expected two arcs, got %d", len(arcs))
	}
	if arcs[0].Status != tally.StatusAvailable || arcs[0].Offset != 0 || arcs[0].Length != 50 {
		t.Fatalf("unexpected available arc %+v", arcs[0])
	}
	if arcs[1].Status != tally.StatusMaybe || arcs[1].Offset != arcs[0].Length || arcs[1].Length != 25 {
		t.Fatalf("unexpected maybe arc %+v", arcs[1])
	}
	if len(Arcs(tally.Counts{Available: 1}, 0, circumference)) != 0 {
		t.Fatalf("expected no arcs without participants")
	}
	if only := Arcs(tally.Counts{Maybe: 2}, 2, circumference); len(only) != 1 || only[0].Offset != 0 {
		t.Fatalf("expected lone maybe arc at origin, got %+v", only)
	}
}

func TestCircumference(t *testing.T) {
	got := Circumference(48, 4)
	if math.Abs(got-2*math.Pi*22) > 1e-9 {
		t.Fatalf("unexpected circumference %v", got)
	}
}

func TestRenderJoinsTallies(t *testing.T) {
	view := Render(ViewInput{
		Display:           Month{Year: 2025, Month: time.February},
		Span:              dates.Range{Start: "2025-02-01", End: "2025-02-03"},
		Today:             "2025-02-02",
		Tallies:           tally.Tallies{"2025-02-01": {Available: 3, Maybe: 1}},
		TotalParticipants: 4,
		Mine:              map[dates.Day]tally.Status{"2025-02-01": tally.StatusMaybe},
	})

	if view.Month != "2025-02" || view.PreviousMonth != "2025-01" || view.NextMonth != "2025-03" {
		t.Fatalf("unexpected navigation %+v", view)
	}
	first := view.Weeks[0][6]
	if first.Date != "2025-02-01" || first.Available != 3 || first.Maybe != 1 {
		t.Fatalf("unexpected cell %+v", first)
	}
	if math.Abs(first.Percentage-87.5) > 1e-9 || first.PercentageColor != "#22c55e" {
		t.Fatalf("unexpected percentage %v %s", first.Percentage, first.PercentageColor)
	}
	if first.MyStatus != tally.StatusMaybe || len(first.Arcs) != 2 {
		t.Fatalf("unexpected personal status or arcs %+v", first)
	}
	second := view.Weeks[1][0]
	if second.Date != "2025-02-02" || !second.Today || second.Available != 0 || second.Percentage != 0 {
		t.Fatalf("unexpected empty in-range cell %+v", second)
	}
	outside := view.Weeks[0][0]
	if outside.Interactive || outside.PercentageColor != "" {
		t.Fatalf("expected out-of-range cell without aggregate, got %+v", outside)
	}
}

func TestColors(t *testing.T) {
	if ColorForNickname("alice") != ColorForNickname("alice") {
		t.Fatalf("expected stable nickname colour")
	}
	if !slices.Contains(participantPalette, ColorForNickname("민수")) {
		t.Fatalf("expected nickname colour from the palette")
	}
	if PercentageColor(19.9) != "#ef4444" || PercentageColor(40) != "#facc15" {
		t.Fatalf("unexpected percentage colours")
	}
	if StatusColor("") != neutralColor {
		t.Fatalf("expected neutral colour for unset status")
	}
}
