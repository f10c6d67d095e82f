package calendar

import (
	"hash/fnv"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
)

const neutralColor = "#e5e7eb"

var participantPalette = []string{
	"#22c55e",
	"#3b82f6",
	"#f59e0b",
	"#ec4899",
	"#8b5cf6",
	"#14b8a6",
	"#f43f5e",
	"#6366f1",
}

// ColorForNickname picks a stable palette entry for a nickname, so a participant
// keeps their colour across rooms and page loads.
func ColorForNickname(nickname string) string {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(nickname))
	return participantPalette[hasher.Sum32()%uint32(len(participantPalette))]
}

// StatusColor maps a status to its ring colour.
func StatusColor(status tally.Status) string {
	switch status {
	case tally.StatusAvailable:
		return "#22c55e"
	case tally.StatusMaybe:
		return "#facc15"
	case "":
		return neutralColor
	default:
		panic("calendar: unknown status " + string(status))
	}
}

// PercentageColor grades a participation percentage from red to green.
func PercentageColor(percentage float64) string {
	switch {
	case percentage >= 80:
		return "#22c55e"
	case percentage >= 60:
		return "#84cc16"
	case percentage >= 40:
		return "#facc15"
	case percentage >= 20:
		return "#fb923c"
	default:
		return "#ef4444"
	}
}
