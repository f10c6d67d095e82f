package rooms

import (
	"context"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
)

// Store persists rooms and votes. Implementations return ErrRoomNotFound and
// ErrVoteNotFound for missing records and ErrDuplicateParticipant when a
// uniqueness constraint rejects a new vote.
type Store interface {
	FindRoom(ctx context.Context, roomID string) (Room, error)
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, roomID string, changes RoomChanges) error
	UpdateRoomStatus(ctx context.Context, roomID string, status Status, confirmedDate *dates.Day) error
	CountVotes(ctx context.Context, roomID string) (int, error)
	// ListVotesForRoom returns votes with selections, in join order.
	ListVotesForRoom(ctx context.Context, roomID string) ([]Vote, error)
	FindVoteByVisitor(ctx context.Context, roomID, visitorID string) (Vote, error)
	// FindConflictingVote returns a vote sharing the nickname or the visitor, if any.
	FindConflictingVote(ctx context.Context, roomID, nickname, visitorID string) (*Vote, error)
	// UpsertParticipantSelections creates the vote or atomically replaces the
	// selections of the existing vote held by the same visitor.
	UpsertParticipantSelections(ctx context.Context, vote Vote) error
}
