package rooms

import (
	"errors"
	"fmt"
)

// Error kinds. Every domain error unwraps to exactly one of these.
var (
	ErrInvalidInput = errors.New("rooms: invalid input")
	ErrForbidden    = errors.New("rooms: forbidden")
	ErrConflict     = errors.New("rooms: conflict")
	ErrNotFound     = errors.New("rooms: not found")
)

// Error is a domain failure with a human-readable reason.
type Error struct {
	kind   error
	code   string
	reason string
}

func (e *Error) Error() string {
	return e.reason
}

func (e *Error) Unwrap() error {
	return e.kind
}

// Code returns a stable snake_case identifier for the failure.
func (e *Error) Code() string {
	return e.code
}

// Reason returns the message shown to the caller.
func (e *Error) Reason() string {
	return e.reason
}

func invalid(format string, args ...any) error {
	return &Error{kind: ErrInvalidInput, code: "invalid_input", reason: fmt.Sprintf(format, args...)}
}

var (
	ErrRoomNotFound          = &Error{kind: ErrNotFound, code: "room_not_found", reason: "room not found"}
	ErrVoteNotFound          = &Error{kind: ErrNotFound, code: "vote_not_found", reason: "no vote recorded for this visitor"}
	ErrNotHost               = &Error{kind: ErrForbidden, code: "not_host", reason: "only the host can manage this room"}
	ErrVotingClosed          = &Error{kind: ErrConflict, code: "voting_closed", reason: "voting is not open"}
	ErrRoomFinalized         = &Error{kind: ErrConflict, code: "room_finalized", reason: "room is already closed or confirmed"}
	ErrRoomFull              = &Error{kind: ErrConflict, code: "room_full", reason: "room is full"}
	ErrNicknameTaken         = &Error{kind: ErrConflict, code: "nickname_taken", reason: "nickname is already taken"}
	ErrAlreadyVoted          = &Error{kind: ErrConflict, code: "already_voted", reason: "this visitor has already joined the room"}
	ErrDuplicateParticipant  = &Error{kind: ErrConflict, code: "duplicate_participant", reason: "participant already exists"}
	ErrConfirmDateRequired   = &Error{kind: ErrInvalidInput, code: "missing_date", reason: "a date to confirm is required"}
	ErrConfirmDateOutOfRange = &Error{kind: ErrInvalidInput, code: "date_out_of_range", reason: "confirmed date must lie within the room's date range"}
	ErrVisitorRequired       = &Error{kind: ErrInvalidInput, code: "missing_visitor", reason: "visitor identity is required"}
)

// ServiceError attaches a stable dotted code to a failure.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew     = "rooms.service.new"
	opCreateRoom     = "rooms.create_room"
	opGetRoom        = "rooms.get_room"
	opEditRoom       = "rooms.edit_room"
	opCloseVoting    = "rooms.close_voting"
	opConfirmDate    = "rooms.confirm_date"
	opRegisterVote   = "rooms.register_vote"
	opUpdateVote     = "rooms.update_vote"
	opGetVotes       = "rooms.get_votes"
	opRenderCalendar = "rooms.render_calendar"
)

func newServiceError(operation, reason string, cause error) error {
	code := fmt.Sprintf("%s.%s", operation, reason)
	return &ServiceError{code: code, err: cause}
}
