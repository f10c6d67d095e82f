package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	queryRoomID            = "room_id = ?"
	queryRoomVisitor       = "room_id = ? AND visitor_id = ?"
	queryRoomStatus        = "room_id = ? AND status = ?"
	queryRoomNickOrVisitor = "room_id = ? AND (nickname = ? OR visitor_id = ?)"
	queryVoteID            = "vote_id = ?"
	uniqueViolationCode    = "23505"
)

// GormStore implements Store on top of GORM.
type GormStore struct {
	db    *gorm.DB
	clock func() time.Time
}

// NewGormStore wraps an opened database handle.
func NewGormStore(db *gorm.DB, clock func() time.Time) (*GormStore, error) {
	if db == nil {
		return nil, errMissingDatabase
	}
	if clock == nil {
		clock = time.Now
	}
	return &GormStore{db: db, clock: clock}, nil
}

func (s *GormStore) FindRoom(ctx context.Context, roomID string) (Room, error) {
	var room Room
	err := s.db.WithContext(ctx).Where(queryRoomID, roomID).Take(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Room{}, ErrRoomNotFound
	}
	if err != nil {
		return Room{}, err
	}
	return room, nil
}

func (s *GormStore) CreateRoom(ctx context.Context, room Room) error {
	room.Votes = nil
	return s.db.WithContext(ctx).Create(&room).Error
}

func (s *GormStore) UpdateRoom(ctx context.Context, roomID string, changes RoomChanges) error {
	updates := map[string]any{"updated_at": s.clock().UTC()}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.StartDate != nil {
		updates["start_date"] = changes.StartDate.String()
	}
	if changes.EndDate != nil {
		updates["end_date"] = changes.EndDate.String()
	}
	if changes.MaxParticipants != nil {
		updates["max_participants"] = *changes.MaxParticipants
	}
	if changes.ClearDeadline {
		updates["deadline"] = nil
	} else if changes.Deadline != nil {
		updates["deadline"] = changes.Deadline.UTC()
	}

	result := s.db.WithContext(ctx).Model(&Room{}).Where(queryRoomID, roomID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrRoomNotFound
	}
	return nil
}

// UpdateRoomStatus moves a VOTING room to status. Rooms in any other state are
// left untouched and reported as ErrRoomFinalized.
func (s *GormStore) UpdateRoomStatus(ctx context.Context, roomID string, status Status, confirmedDate *dates.Day) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": s.clock().UTC(),
	}
	if confirmedDate != nil {
		updates["confirmed_date"] = confirmedDate.String()
	}

	result := s.db.WithContext(ctx).Model(&Room{}).
		Where(queryRoomStatus, roomID, string(StatusVoting)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := s.FindRoom(ctx, roomID); err != nil {
			return err
		}
		return ErrRoomFinalized
	}
	return nil
}

func (s *GormStore) CountVotes(ctx context.Context, roomID string) (int, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Vote{}).Where(queryRoomID, roomID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (s *GormStore) ListVotesForRoom(ctx context.Context, roomID string) ([]Vote, error) {
	var votes []Vote
	err := s.db.WithContext(ctx).
		Preload("Selections", orderSelections).
		Where(queryRoomID, roomID).
		Order("created_at ASC").
		Order("vote_id ASC").
		Find(&votes).Error
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (s *GormStore) FindVoteByVisitor(ctx context.Context, roomID, visitorID string) (Vote, error) {
	var vote Vote
	err := s.db.WithContext(ctx).
		Preload("Selections", orderSelections).
		Where(queryRoomVisitor, roomID, visitorID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Vote{}, ErrVoteNotFound
	}
	if err != nil {
		return Vote{}, err
	}
	return vote, nil
}

// FindConflictingVote prefers a nickname match over a visitor match.
func (s *GormStore) FindConflictingVote(ctx context.Context, roomID, nickname, visitorID string) (*Vote, error) {
	var candidates []Vote
	err := s.db.WithContext(ctx).
		Where(queryRoomNickOrVisitor, roomID, nickname, visitorID).
		Order("created_at ASC").
		Limit(2).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	for index := range candidates {
		if candidates[index].Nickname == nickname {
			return &candidates[index], nil
		}
	}
	if len(candidates) > 0 {
		return &candidates[0], nil
	}
	return nil, nil
}

func (s *GormStore) UpsertParticipantSelections(ctx context.Context, vote Vote) error {
	now := s.clock().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing Vote
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(queryRoomVisitor, vote.RoomID, vote.VisitorID).
			Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			record := vote
			record.Selections = nil
			if record.CreatedAt.IsZero() {
				record.CreatedAt = now
			}
			record.UpdatedAt = now
			if err := tx.Create(&record).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicateParticipant
				}
				return fmt.Errorf("insert vote: %w", err)
			}
			return insertSelections(tx, record.VoteID, vote.Selections)
		}
		if err != nil {
			return fmt.Errorf("lock vote: %w", err)
		}

		if err := tx.Where(queryVoteID, existing.VoteID).Delete(&Selection{}).Error; err != nil {
			return fmt.Errorf("delete selections: %w", err)
		}
		if err := insertSelections(tx, existing.VoteID, vote.Selections); err != nil {
			return err
		}
		return tx.Model(&Vote{}).Where(queryVoteID, existing.VoteID).Update("updated_at", now).Error
	})
}

func insertSelections(tx *gorm.DB, voteID string, selections []Selection) error {
	if len(selections) == 0 {
		return nil
	}
	rows := make([]Selection, 0, len(selections))
	for _, selection := range selections {
		selection.VoteID = voteID
		rows = append(rows, selection)
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert selections: %w", err)
	}
	return nil
}

func orderSelections(db *gorm.DB) *gorm.DB {
	return db.Order("day ASC")
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ Store = (*GormStore)(nil)
