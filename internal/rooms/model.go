package rooms

import (
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
)

// Status is the lifecycle state of a room.
type Status string

const (
	StatusVoting    Status = "VOTING"
	StatusClosed    Status = "CLOSED"
	StatusConfirmed Status = "CONFIRMED"
	// StatusExpired is derived from the deadline and never stored.
	StatusExpired Status = "EXPIRED"
)

// Room models a scheduling poll.
type Room struct {
	RoomID          string     `gorm:"column:room_id;primaryKey;size:32;not null"`
	Title           string     `gorm:"column:title;size:200;not null"`
	HostNickname    string     `gorm:"column:host_nickname;size:80;not null"`
	HostVisitorID   string     `gorm:"column:host_visitor_id;size:190;not null;index"`
	StartDate       dates.Day  `gorm:"column:start_date;size:10;not null"`
	EndDate         dates.Day  `gorm:"column:end_date;size:10;not null"`
	MaxParticipants int        `gorm:"column:max_participants;not null"`
	Deadline        *time.Time `gorm:"column:deadline"`
	Status          Status     `gorm:"column:status;size:16;not null;index"`
	ConfirmedDate   *dates.Day `gorm:"column:confirmed_date;size:10"`
	CreatedAt       time.Time  `gorm:"column:created_at;not null"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;not null"`
	Votes           []Vote     `gorm:"foreignKey:RoomID;references:RoomID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Room) TableName() string {
	return "rooms"
}

// Span returns the inclusive voting range.
func (r Room) Span() dates.Range {
	return dates.Range{Start: r.StartDate, End: r.EndDate}
}

// EffectiveStatus reports EXPIRED for a voting room past its deadline.
func (r Room) EffectiveStatus(now time.Time) Status {
	if r.Status == StatusVoting && r.Deadline != nil && !now.Before(*r.Deadline) {
		return StatusExpired
	}
	return r.Status
}

// Vote is one participant's registration in a room.
type Vote struct {
	VoteID     string      `gorm:"column:vote_id;primaryKey;size:64;not null"`
	RoomID     string      `gorm:"column:room_id;size:32;not null;uniqueIndex:idx_votes_room_nickname,priority:1;uniqueIndex:idx_votes_room_visitor,priority:1"`
	Nickname   string      `gorm:"column:nickname;size:80;not null;uniqueIndex:idx_votes_room_nickname,priority:2"`
	VisitorID  string      `gorm:"column:visitor_id;size:190;not null;uniqueIndex:idx_votes_room_visitor,priority:2"`
	CreatedAt  time.Time   `gorm:"column:created_at;not null"`
	UpdatedAt  time.Time   `gorm:"column:updated_at;not null"`
	Selections []Selection `gorm:"foreignKey:VoteID;references:VoteID;constraint:OnDelete:CASCADE"`
}

// TableName provides the explicit table binding for GORM.
func (Vote) TableName() string {
	return "votes"
}

// Selection is a participant's mark on one day.
type Selection struct {
	VoteID string       `gorm:"column:vote_id;primaryKey;size:64;not null"`
	Day    dates.Day    `gorm:"column:day;primaryKey;size:10;not null"`
	Status tally.Status `gorm:"column:status;size:16;not null;check:chk_vote_selections_status,status IN ('AVAILABLE','MAYBE')"`
}

// TableName provides the explicit table binding for GORM.
func (Selection) TableName() string {
	return "vote_selections"
}

// RoomChanges lists the fields an edit may touch. Nil means unchanged.
type RoomChanges struct {
	Title           *string
	StartDate       *dates.Day
	EndDate         *dates.Day
	MaxParticipants *int
	Deadline        *time.Time
	ClearDeadline   bool
}

// Empty reports whether the edit changes nothing.
func (c RoomChanges) Empty() bool {
	return c.Title == nil && c.StartDate == nil && c.EndDate == nil &&
		c.MaxParticipants == nil && c.Deadline == nil && !c.ClearDeadline
}
