package tally

import (
	"sort"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
)

// DefaultTopLimit is the number of ranked dates returned when no limit is given.
const DefaultTopLimit = 6

// Vote is one participant's selections as seen by a particular viewer.
type Vote struct {
	Nickname   string               `json:"nickname"`
	IsMine     bool                 `json:"isMe"`
	Selections map[dates.Day]Status `json:"selections"`
}

// Counts is the per-status tally for one day.
type Counts struct {
	Available int `json:"available"`
	Maybe     int `json:"maybe"`
}

// Score weighs a firm commitment twice a tentative one.
func (c Counts) Score() int {
	return c.Available*StatusAvailable.Weight() + c.Maybe*StatusMaybe.Weight()
}

// Total is the number of participants with any mark on the day.
func (c Counts) Total() int {
	return c.Available + c.Maybe
}

// Tallies maps each voted day to its counts. Days nobody marked are absent.
type Tallies map[dates.Day]Counts

// RankedDate is one entry of the best-dates ranking.
type RankedDate struct {
	Date           dates.Day `json:"date"`
	AvailableCount int       `json:"availableCount"`
	MaybeCount     int       `json:"maybeCount"`
	TotalScore     int       `json:"totalScore"`
	Participants   []string  `json:"participants"`
}

// ComputeAllDateTallies counts AVAILABLE and MAYBE marks per day across all votes.
func ComputeAllDateTallies(votes []Vote) Tallies {
	tallies := make(Tallies)
	for _, vote := range votes {
		for day, status := range vote.Selections {
			counts := tallies[day]
			switch status {
			case StatusAvailable:
				counts.Available++
			case StatusMaybe:
				counts.Maybe++
			default:
				panic(contractViolation(status))
			}
			tallies[day] = counts
		}
	}
	return tallies
}

// ComputeTopDates ranks voted days by score, earlier day first on ties, and keeps
// at most limit entries. A non-positive limit means DefaultTopLimit.
func ComputeTopDates(votes []Vote, limit int) []RankedDate {
	if limit <= 0 {
		limit = DefaultTopLimit
	}

	tallies := ComputeAllDateTallies(votes)
	ranked := make([]RankedDate, 0, len(tallies))
	for day, counts := range tallies {
		ranked = append(ranked, RankedDate{
			Date:           day,
			AvailableCount: counts.Available,
			MaybeCount:     counts.Maybe,
			TotalScore:     counts.Score(),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].TotalScore != ranked[j].TotalScore {
			return ranked[i].TotalScore > ranked[j].TotalScore
		}
		return ranked[i].Date < ranked[j].Date
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	for index := range ranked {
		ranked[index].Participants = availableNicknames(votes, ranked[index].Date)
	}
	return ranked
}

// availableNicknames keeps vote order.
func availableNicknames(votes []Vote, day dates.Day) []string {
	nicknames := make([]string, 0)
	for _, vote := range votes {
		if vote.Selections[day] == StatusAvailable {
			nicknames = append(nicknames, vote.Nickname)
		}
	}
	return nicknames
}

// ComputeParticipantPercentage returns the weighted share of participants that
// marked a day, where MAYBE counts half. Zero participants yields 0.
func ComputeParticipantPercentage(counts Counts, totalParticipants int) float64 {
	if totalParticipants <= 0 {
		return 0
	}
	weighted := float64(counts.Available) + float64(counts.Maybe)*0.5
	return weighted / float64(totalParticipants) * 100
}

// ComputeDateSegments looks up the counts for a day, defaulting to zero.
func ComputeDateSegments(day dates.Day, tallies Tallies) Counts {
	return tallies[day]
}

// Dense returns a copy of the tallies with every day of the range present,
// zero-filled where nobody voted. Days outside the range are kept.
func (t Tallies) Dense(span dates.Range) Tallies {
	dense := make(Tallies, len(t))
	for _, day := range span.Days() {
		dense[day] = Counts{}
	}
	for day, counts := range t {
		dense[day] = counts
	}
	return dense
}

// Summary is the aggregate view of a room's votes.
type Summary struct {
	TopDates          []RankedDate `json:"topDates"`
	AllDates          Tallies      `json:"allDates"`
	TotalParticipants int          `json:"totalParticipants"`
}

// Summarize recomputes the full aggregate from votes. Nothing is cached.
func Summarize(votes []Vote, span dates.Range, limit int) Summary {
	return Summary{
		TopDates:          ComputeTopDates(votes, limit),
		AllDates:          ComputeAllDateTallies(votes).Dense(span),
		TotalParticipants: len(votes),
	}
}
