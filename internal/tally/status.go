package tally

import (
	"errors"
	"fmt"
	"strings"
)

// Status is a participant's mark for one day. A day without a mark carries no
// opinion and contributes nothing to tallies.
type Status string

const (
	// StatusAvailable marks a firm commitment.
	StatusAvailable Status = "AVAILABLE"
	// StatusMaybe marks a tentative commitment.
	StatusMaybe Status = "MAYBE"
)

// ErrUnknownStatus indicates a status value outside {AVAILABLE, MAYBE}.
var ErrUnknownStatus = errors.New("tally: unknown status")

// ParseStatus converts raw persisted or transmitted input into a Status.
// This is the only place an unrecognized value is tolerated as an error.
func ParseStatus(rawInput string) (Status, error) {
	switch Status(strings.ToUpper(strings.TrimSpace(rawInput))) {
	case StatusAvailable:
		return StatusAvailable, nil
	case StatusMaybe:
		return StatusMaybe, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, rawInput)
	}
}

// Weight returns the score contribution of the status.
func (s Status) Weight() int {
	switch s {
	case StatusAvailable:
		return 2
	case StatusMaybe:
		return 1
	default:
		panic(contractViolation(s))
	}
}

// Valid reports whether s is one of the two known statuses.
func (s Status) Valid() bool {
	return s == StatusAvailable || s == StatusMaybe
}

func contractViolation(s Status) string {
	return fmt.Sprintf("tally: status %q reached the engine unparsed", string(s))
}
