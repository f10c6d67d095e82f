package calendar

import (
	"math"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
)

// Arc is one segment of a day's ring chart, measured along the circumference.
type Arc struct {
	Status tally.Status `json:"status"`
	Length float64      `json:"length"`
	Offset float64      `json:"offset"`
	Color  string       `json:"color"`
}

// Circumference returns the ring length for a circle of the given size and stroke.
func Circumference(size, strokeWidth float64) float64 {
	radius := (size - strokeWidth) / 2
	return 2 * math.Pi * radius
}

// Arcs splits a ring proportionally to the day's counts. The available arc starts
// at the origin and the maybe arc starts where it ends, so segments never overlap.
// Empty segments are omitted.
func Arcs(counts tally.Counts, totalParticipants int, circumference float64) []Arc {
	if totalParticipants <= 0 || circumference <= 0 {
		return []Arc{}
	}
	arcs := make([]Arc, 0, 2)
	offset := 0.0
	for _, segment := range []struct {
		status tally.Status
		count  int
	}{
		{status: tally.StatusAvailable, count: counts.Available},
		{status: tally.StatusMaybe, count: counts.Maybe},
	} {
		if segment.count == 0 {
			continue
		}
		length := float64(segment.count) / float64(totalParticipants) * circumference
		arcs = append(arcs, Arc{
			Status: segment.status,
			Length: length,
			Offset: offset,
			Color:  StatusColor(segment.status),
		})
		offset += length
	}
	return arcs
}
