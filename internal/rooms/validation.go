package rooms

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
)

const (
	MaxTitleLength    = 50
	MaxNicknameLength = 20
	MaxRangeDays      = 60
	MinParticipants   = 2
	MaxParticipants   = 50
)

var nicknamePattern = regexp.MustCompile(`^[가-힣a-zA-Z0-9\s]+$`)

// ValidateTitle returns the trimmed title.
func ValidateTitle(rawInput string) (string, error) {
	title := strings.TrimSpace(rawInput)
	if title == "" {
		return "", invalid("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", invalid("title must be at most %d characters", MaxTitleLength)
	}
	return title, nil
}

// ValidateNickname returns the trimmed nickname. Letters, digits and spaces only.
func ValidateNickname(rawInput string) (string, error) {
	nickname := strings.TrimSpace(rawInput)
	if nickname == "" {
		return "", invalid("nickname is required")
	}
	if utf8.RuneCountInString(nickname) > MaxNicknameLength {
		return "", invalid("nickname must be at most %d characters", MaxNicknameLength)
	}
	if !nicknamePattern.MatchString(nickname) {
		return "", invalid("nickname may only contain letters, digits and spaces")
	}
	return nickname, nil
}

// ValidateDateRange parses both ends and checks order and span.
func ValidateDateRange(rawStart, rawEnd string) (dates.Range, error) {
	if strings.TrimSpace(rawStart) == "" || strings.TrimSpace(rawEnd) == "" {
		return dates.Range{}, invalid("start and end dates are required")
	}
	start, err := dates.ParseDay(rawStart)
	if err != nil {
		return dates.Range{}, invalid("start date must be a YYYY-MM-DD day between %d and %d", dates.MinYear, dates.MaxYear)
	}
	end, err := dates.ParseDay(rawEnd)
	if err != nil {
		return dates.Range{}, invalid("end date must be a YYYY-MM-DD day between %d and %d", dates.MinYear, dates.MaxYear)
	}
	return checkSpan(dates.Range{Start: start, End: end})
}

func checkSpan(span dates.Range) (dates.Range, error) {
	if span.End.Before(span.Start) {
		return dates.Range{}, invalid("end date must not precede start date")
	}
	if span.Span() > MaxRangeDays {
		return dates.Range{}, invalid("date range may span at most %d days", MaxRangeDays)
	}
	return span, nil
}

// ValidateMaxParticipants checks the capacity bounds.
func ValidateMaxParticipants(count int) error {
	if count < MinParticipants {
		return invalid("at least %d participants are required", MinParticipants)
	}
	if count > MaxParticipants {
		return invalid("at most %d participants are allowed", MaxParticipants)
	}
	return nil
}

// ValidateDeadline accepts RFC3339 or YYYY-MM-DD; a bare day means voting stays
// open through that whole day (UTC). Blank input means no deadline.
func ValidateDeadline(rawInput string) (*time.Time, error) {
	trimmed := strings.TrimSpace(rawInput)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		deadline := parsed.UTC()
		return &deadline, nil
	}
	day, err := dates.ParseDay(trimmed)
	if err != nil {
		return nil, invalid("deadline must be RFC3339 or YYYY-MM-DD")
	}
	deadline := day.AddDays(1).Time()
	return &deadline, nil
}

// ParseSelections converts wire selections into engine values. Every key must be a
// day inside span and every value a known status.
func ParseSelections(raw map[string]string, span dates.Range) (map[dates.Day]tally.Status, error) {
	selections := make(map[dates.Day]tally.Status, len(raw))
	for rawDay, rawStatus := range raw {
		day, err := dates.ParseDay(rawDay)
		if err != nil {
			return nil, invalid("selection date %q must be formatted as YYYY-MM-DD", rawDay)
		}
		if !span.Contains(day) {
			return nil, invalid("selection date %s is outside the room's date range", day)
		}
		status, err := tally.ParseStatus(rawStatus)
		if err != nil {
			return nil, invalid("selection status %q must be AVAILABLE or MAYBE", rawStatus)
		}
		selections[day] = status
	}
	return selections, nil
}

// RequireVisitor rejects a blank identity.
func RequireVisitor(visitorID string) (string, error) {
	trimmed := strings.TrimSpace(visitorID)
	if trimmed == "" {
		return "", ErrVisitorRequired
	}
	return trimmed, nil
}
