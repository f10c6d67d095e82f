package tally

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
)

func vote(nickname string, selections map[dates.Day]Status) Vote {
	return Vote{Nickname: nickname, Selections: selections}
}

func febScenario() []Vote {
	return []Vote{
		vote("alice", map[dates.Day]Status{"2025-02-01": StatusAvailable}),
		vote("bora", map[dates.Day]Status{"2025-02-01": StatusAvailable}),
		vote("chris", map[dates.Day]Status{"2025-02-01": StatusAvailable}),
		vote("dana", map[dates.Day]Status{"2025-02-01": StatusMaybe}),
	}
}

func TestComputeAllDateTalliesCountsSparseDays(t *testing.T) {
	tallies := ComputeAllDateTallies(febScenario())

	if len(tallies) != 1 {
		t.Fatalf("expected only voted days to be present, got %v", tallies)
	}
	if got := tallies["2025-02-01"]; got != (Counts{Available: 3, Maybe: 1}) {
		t.Fatalf("unexpected counts %+v", got)
	}
	if _, ok := tallies["2025-02-02"]; ok {
		t.Fatalf("expected unvoted day to be absent")
	}
}

func TestComputeAllDateTalliesIsIdempotent(t *testing.T) {
	votes := febScenario()
	first := ComputeAllDateTallies(votes)
	second := ComputeAllDateTallies(votes)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical tallies, got %v and %v", first, second)
	}
}

func TestComputeTopDatesScenario(t *testing.T) {
	top := ComputeTopDates(febScenario(), DefaultTopLimit)
	if len(top) != 1 {
		t.Fatalf("expected one ranked date, got %d", len(top))
	}
	best := top[0]
	if best.Date != "2025-02-01" || best.TotalScore != 7 || best.AvailableCount != 3 || best.MaybeCount != 1 {
		t.Fatalf("unexpected top date %+v", best)
	}
	if !reflect.DeepEqual(best.Participants, []string{"alice", "bora", "chris"}) {
		t.Fatalf("expected available nicknames in vote order, got %v", best.Participants)
	}
}

func TestComputeTopDatesBreaksTiesByEarlierDate(t *testing.T) {
	votes := []Vote{
		vote("a", map[dates.Day]Status{"2025-05-10": StatusAvailable, "2025-05-03": StatusAvailable}),
		vote("b", map[dates.Day]Status{"2025-05-10": StatusAvailable, "2025-05-03": StatusAvailable}),
		vote("c", map[dates.Day]Status{"2025-05-10": StatusAvailable, "2025-05-03": StatusMaybe}),
		vote("d", map[dates.Day]Status{"2025-05-10": StatusMaybe, "2025-05-03": StatusMaybe}),
		vote("e", map[dates.Day]Status{"2025-05-03": StatusMaybe}),
	}

	top := ComputeTopDates(votes, 0)
	if len(top) != 2 {
		t.Fatalf("expected two ranked dates, got %d", len(top))
	}
	if top[0].TotalScore != 7 || top[1].TotalScore != 7 {
		t.Fatalf("expected tie at 7, got %d and %d", top[0].TotalScore, top[1].TotalScore)
	}
	if top[0].Date != "2025-05-03" || top[1].Date != "2025-05-10" {
		t.Fatalf("expected earlier date first, got %s then %s", top[0].Date, top[1].Date)
	}
	if !reflect.DeepEqual(top[0].Participants, []string{"a", "b"}) {
		t.Fatalf("expected only AVAILABLE participants, got %v", top[0].Participants)
	}
}

func TestComputeTopDatesTruncatesToLimit(t *testing.T) {
	votes := make([]Vote, 0, 10)
	for index := 0; index < 10; index++ {
		selections := make(map[dates.Day]Status)
		// Day N receives N available marks, so later days score higher.
		for day := index; day < 10; day++ {
			selections[dates.Day(fmt.Sprintf("2025-07-%02d", day+1))] = StatusAvailable
		}
		votes = append(votes, vote(fmt.Sprintf("p%d", index), selections))
	}

	top := ComputeTopDates(votes, 6)
	if len(top) != 6 {
		t.Fatalf("expected 6 entries, got %d", len(top))
	}
	for index, entry := range top {
		want := dates.Day(fmt.Sprintf("2025-07-%02d", 10-index))
		if entry.Date != want {
			t.Fatalf("position %d: expected %s got %s", index, want, entry.Date)
		}
		if index > 0 && entry.TotalScore > top[index-1].TotalScore {
			t.Fatalf("expected descending scores")
		}
	}
}

func TestComputeTopDatesEmpty(t *testing.T) {
	if top := ComputeTopDates(nil, DefaultTopLimit); len(top) != 0 {
		t.Fatalf("expected no ranked dates, got %v", top)
	}
	registeredOnly := []Vote{vote("quiet", map[dates.Day]Status{})}
	if top := ComputeTopDates(registeredOnly, DefaultTopLimit); len(top) != 0 {
		t.Fatalf("expected no ranked dates for empty selections, got %v", top)
	}
	if tallies := ComputeAllDateTallies(nil); len(tallies) != 0 {
		t.Fatalf("expected empty tallies, got %v", tallies)
	}
}

func TestCountsBoundedByParticipants(t *testing.T) {
	votes := []Vote{
		vote("a", map[dates.Day]Status{"2025-01-01": StatusAvailable, "2025-01-02": StatusMaybe}),
		vote("b", map[dates.Day]Status{"2025-01-01": StatusMaybe, "2025-01-03": StatusAvailable}),
		vote("c", map[dates.Day]Status{"2025-01-02": StatusAvailable}),
	}
	span := dates.Range{Start: "2025-01-01", End: "2025-01-03"}
	total := len(votes)

	availableSum := 0
	for _, entry := range ComputeTopDates(votes, 60) {
		availableSum += entry.AvailableCount
	}
	if availableSum > total*len(span.Days()) {
		t.Fatalf("available sum %d exceeds bound", availableSum)
	}
	for day, counts := range ComputeAllDateTallies(votes) {
		if counts.Total() > total {
			t.Fatalf("day %s counts %+v exceed participants", day, counts)
		}
	}
}

func TestComputeParticipantPercentage(t *testing.T) {
	testCases := []struct {
		name   string
		counts Counts
		total  int
		want   float64
	}{
		{name: "weighted-maybe", counts: Counts{Available: 2, Maybe: 1}, total: 4, want: 62.5},
		{name: "everyone", counts: Counts{Available: 3}, total: 3, want: 100},
		{name: "nobody", counts: Counts{}, total: 5, want: 0},
		{name: "no-participants", counts: Counts{Available: 1}, total: 0, want: 0},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			got := ComputeParticipantPercentage(testCase.counts, testCase.total)
			if math.Abs(got-testCase.want) > 1e-9 {
				t.Fatalf("expected %v got %v", testCase.want, got)
			}
		})
	}
}

func TestComputeDateSegmentsDefaultsToZero(t *testing.T) {
	tallies := Tallies{"2025-02-01": {Available: 2, Maybe: 1}}
	if got := ComputeDateSegments("2025-02-01", tallies); got != (Counts{Available: 2, Maybe: 1}) {
		t.Fatalf("unexpected segments %+v", got)
	}
	if got := ComputeDateSegments("2025-02-02", tallies); got != (Counts{}) {
		t.Fatalf("expected zero segments, got %+v", got)
	}
}

func TestSummarizeFillsRangeDensely(t *testing.T) {
	span := dates.Range{Start: "2025-02-01", End: "2025-02-03"}
	summary := Summarize(febScenario(), span, DefaultTopLimit)

	if summary.TotalParticipants != 4 {
		t.Fatalf("expected 4 participants, got %d", summary.TotalParticipants)
	}
	if len(summary.AllDates) != 3 {
		t.Fatalf("expected dense range of 3 days, got %v", summary.AllDates)
	}
	if summary.AllDates["2025-02-02"] != (Counts{}) || summary.AllDates["2025-02-03"] != (Counts{}) {
		t.Fatalf("expected zero-filled days, got %v", summary.AllDates)
	}
	if len(summary.TopDates) != 1 || summary.TopDates[0].Date != "2025-02-01" {
		t.Fatalf("unexpected top dates %+v", summary.TopDates)
	}
}

func TestEngineRejectsUnparsedStatus(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown status")
		}
	}()
	ComputeAllDateTallies([]Vote{vote("legacy", map[dates.Day]Status{"2025-02-01": Status("UNAVAILABLE")})})
}

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"AVAILABLE", "available", " MAYBE "} {
		if _, err := ParseStatus(raw); err != nil {
			t.Fatalf("expected %q to parse: %v", raw, err)
		}
	}
	for _, raw := range []string{"", "UNAVAILABLE", "yes"} {
		if _, err := ParseStatus(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
