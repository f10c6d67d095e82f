package rooms

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/calendar"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/dates"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/tally"
	"go.uber.org/zap"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingStore      = errors.New("store is required")
	errMissingIDProvider = errors.New("id provider is required")
	errUnknownStatus     = errors.New("stored selection has an unknown status")
	noOpLogger           = zap.NewNop()
)

// ServiceConfig describes the dependencies of the room lifecycle service.
type ServiceConfig struct {
	Store        Store
	Clock        func() time.Time
	RoomIDs      IDProvider
	VoteIDs      IDProvider
	Logger       *zap.Logger
	ShareBaseURL string
	// ObserveAggregation, when set, receives the duration of each aggregation.
	ObserveAggregation func(time.Duration)
}

// Service owns room state transitions, vote registration and aggregation reads.
// Capacity and uniqueness checks are read-then-write against the store and are
// best effort under concurrent registrations; the unique indexes are the backstop.
type Service struct {
	store              Store
	clock              func() time.Time
	roomIDs            IDProvider
	voteIDs            IDProvider
	logger             *zap.Logger
	shareBaseURL       string
	observeAggregation func(time.Duration)
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, newServiceError(opServiceNew, "missing_store", errMissingStore)
	}
	if cfg.RoomIDs == nil || cfg.VoteIDs == nil {
		return nil, newServiceError(opServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	observe := cfg.ObserveAggregation
	if observe == nil {
		observe = func(time.Duration) {}
	}

	return &Service{
		store:              cfg.Store,
		clock:              clock,
		roomIDs:            cfg.RoomIDs,
		voteIDs:            cfg.VoteIDs,
		logger:             logger,
		shareBaseURL:       strings.TrimRight(strings.TrimSpace(cfg.ShareBaseURL), "/"),
		observeAggregation: observe,
	}, nil
}

// CreateRoomRequest carries raw room creation input.
type CreateRoomRequest struct {
	Title           string
	HostNickname    string
	HostVisitorID   string
	StartDate       string
	EndDate         string
	MaxParticipants int
	Deadline        string
}

// CreatedRoom identifies a newly created room.
type CreatedRoom struct {
	RoomID    string `json:"roomId"`
	SharePath string `json:"sharePath"`
	ShareURL  string `json:"shareUrl"`
}

func (s *Service) CreateRoom(ctx context.Context, request CreateRoomRequest) (CreatedRoom, error) {
	title, err := ValidateTitle(request.Title)
	if err != nil {
		return CreatedRoom{}, newServiceError(opCreateRoom, "invalid_title", err)
	}
	hostNickname, err := ValidateNickname(request.HostNickname)
	if err != nil {
		return CreatedRoom{}, newServiceError(opCreateRoom, "invalid_nickname", err)
	}
	span, err := ValidateDateRange(request.StartDate, request.EndDate)
	if err != nil {
		return CreatedRoom{}, newServiceError(opCreateRoom, "invalid_date_range", err)
	}
	if err := ValidateMaxParticipants(request.MaxParticipants); err != nil {
		return CreatedRoom{}, newServiceError(opCreateRoom, "invalid_max_participants", err)
	}
	deadline, err := ValidateDeadline(request.Deadline)
	if err != nil {
		return CreatedRoom{}, newServiceError(opCreateRoom, "invalid_deadline", err)
	}
	hostVisitorID, err := RequireVisitor(request.HostVisitorID)
	if err != nil {
		return CreatedRoom{}, newServiceError(opCreateRoom, "missing_visitor", err)
	}

	roomID, err := s.roomIDs.NewID()
	if err != nil {
		s.logError(opCreateRoom, "id_generation_failed", err)
		return CreatedRoom{}, newServiceError(opCreateRoom, "id_generation_failed", err)
	}

	now := s.clock().UTC()
	room := Room{
		RoomID:          roomID,
		Title:           title,
		HostNickname:    hostNickname,
		HostVisitorID:   hostVisitorID,
		StartDate:       span.Start,
		EndDate:         span.End,
		MaxParticipants: request.MaxParticipants,
		Deadline:        deadline,
		Status:          StatusVoting,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		s.logError(opCreateRoom, "room_insert_failed", err, zap.String("room_id", roomID))
		return CreatedRoom{}, newServiceError(opCreateRoom, "room_insert_failed", err)
	}

	s.logger.Info("room created",
		zap.String("room_id", roomID),
		zap.String("start_date", span.Start.String()),
		zap.String("end_date", span.End.String()))

	return CreatedRoom{
		RoomID:    roomID,
		SharePath: s.sharePath(roomID),
		ShareURL:  s.shareBaseURL + s.sharePath(roomID),
	}, nil
}

// RoomSnapshot is a room as presented to one viewer.
type RoomSnapshot struct {
	RoomID              string     `json:"roomId"`
	Title               string     `json:"title"`
	HostNickname        string     `json:"hostNickname"`
	StartDate           dates.Day  `json:"startDate"`
	EndDate             dates.Day  `json:"endDate"`
	MaxParticipants     int        `json:"maxParticipants"`
	CurrentParticipants int        `json:"currentParticipants"`
	Deadline            *time.Time `json:"deadline"`
	Status              Status     `json:"status"`
	ConfirmedDate       *dates.Day `json:"confirmedDate"`
	IsHost              bool       `json:"isHost"`
	CreatedAt           time.Time  `json:"createdAt"`
	SharePath           string     `json:"sharePath"`
	ShareURL            string     `json:"shareUrl"`
}

func (s *Service) GetRoom(ctx context.Context, roomID, viewerID string) (RoomSnapshot, error) {
	room, err := s.findRoom(ctx, opGetRoom, roomID)
	if err != nil {
		return RoomSnapshot{}, err
	}
	participants, err := s.store.CountVotes(ctx, room.RoomID)
	if err != nil {
		s.logError(opGetRoom, "count_failed", err, zap.String("room_id", roomID))
		return RoomSnapshot{}, newServiceError(opGetRoom, "count_failed", err)
	}

	return RoomSnapshot{
		RoomID:              room.RoomID,
		Title:               room.Title,
		HostNickname:        room.HostNickname,
		StartDate:           room.StartDate,
		EndDate:             room.EndDate,
		MaxParticipants:     room.MaxParticipants,
		CurrentParticipants: participants,
		Deadline:            room.Deadline,
		Status:              room.EffectiveStatus(s.clock()),
		ConfirmedDate:       room.ConfirmedDate,
		IsHost:              isHost(room, viewerID),
		CreatedAt:           room.CreatedAt,
		SharePath:           s.sharePath(room.RoomID),
		ShareURL:            s.shareBaseURL + s.sharePath(room.RoomID),
	}, nil
}

// EditRoomRequest carries the raw fields a host may change. Nil means unchanged;
// an empty Deadline clears it.
type EditRoomRequest struct {
	Title           *string
	StartDate       *string
	EndDate         *string
	MaxParticipants *int
	Deadline        *string
}

func (s *Service) EditRoom(ctx context.Context, roomID, hostID string, request EditRoomRequest) error {
	room, err := s.findHostedRoom(ctx, opEditRoom, roomID, hostID)
	if err != nil {
		return err
	}

	changes := RoomChanges{}
	if request.Title != nil {
		title, err := ValidateTitle(*request.Title)
		if err != nil {
			return newServiceError(opEditRoom, "invalid_title", err)
		}
		changes.Title = &title
	}
	if request.StartDate != nil || request.EndDate != nil {
		rawStart, rawEnd := room.StartDate.String(), room.EndDate.String()
		if request.StartDate != nil {
			rawStart = *request.StartDate
		}
		if request.EndDate != nil {
			rawEnd = *request.EndDate
		}
		span, err := ValidateDateRange(rawStart, rawEnd)
		if err != nil {
			return newServiceError(opEditRoom, "invalid_date_range", err)
		}
		if room.ConfirmedDate != nil && !span.Contains(*room.ConfirmedDate) {
			return newServiceError(opEditRoom, "confirmed_date_out_of_range", ErrConfirmDateOutOfRange)
		}
		changes.StartDate = &span.Start
		changes.EndDate = &span.End
	}
	if request.MaxParticipants != nil {
		if err := ValidateMaxParticipants(*request.MaxParticipants); err != nil {
			return newServiceError(opEditRoom, "invalid_max_participants", err)
		}
		changes.MaxParticipants = request.MaxParticipants
	}
	if request.Deadline != nil {
		deadline, err := ValidateDeadline(*request.Deadline)
		if err != nil {
			return newServiceError(opEditRoom, "invalid_deadline", err)
		}
		changes.Deadline = deadline
		changes.ClearDeadline = deadline == nil
	}

	if changes.Empty() {
		return nil
	}
	if err := s.store.UpdateRoom(ctx, room.RoomID, changes); err != nil {
		return s.storeFailure(opEditRoom, "room_update_failed", err, room.RoomID)
	}
	s.logger.Info("room edited", zap.String("room_id", room.RoomID))
	return nil
}

func (s *Service) CloseVoting(ctx context.Context, roomID, hostID string) error {
	room, err := s.findHostedRoom(ctx, opCloseVoting, roomID, hostID)
	if err != nil {
		return err
	}
	if !isOpenForTransition(room.Status) {
		return newServiceError(opCloseVoting, "room_finalized", ErrRoomFinalized)
	}
	if err := s.store.UpdateRoomStatus(ctx, room.RoomID, StatusClosed, nil); err != nil {
		return s.storeFailure(opCloseVoting, "status_update_failed", err, room.RoomID)
	}
	s.logger.Info("room closed", zap.String("room_id", room.RoomID))
	return nil
}

// ConfirmDate finalizes the room on any day of its range, voted or not, and returns
// the normalized day.
func (s *Service) ConfirmDate(ctx context.Context, roomID, hostID, rawDate string) (dates.Day, error) {
	room, err := s.findHostedRoom(ctx, opConfirmDate, roomID, hostID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(rawDate) == "" {
		return "", newServiceError(opConfirmDate, "missing_date", ErrConfirmDateRequired)
	}
	day, err := dates.ParseDay(rawDate)
	if err != nil {
		return "", newServiceError(opConfirmDate, "invalid_date", invalid("confirmed date must be formatted as YYYY-MM-DD"))
	}
	if !room.Span().Contains(day) {
		return "", newServiceError(opConfirmDate, "date_out_of_range", ErrConfirmDateOutOfRange)
	}
	if !isOpenForTransition(room.Status) {
		return "", newServiceError(opConfirmDate, "room_finalized", ErrRoomFinalized)
	}
	if err := s.store.UpdateRoomStatus(ctx, room.RoomID, StatusConfirmed, &day); err != nil {
		return "", s.storeFailure(opConfirmDate, "status_update_failed", err, room.RoomID)
	}
	s.logger.Info("room confirmed", zap.String("room_id", room.RoomID), zap.String("date", day.String()))
	return day, nil
}

// SubmitVoteRequest carries a registration with optional selections.
type SubmitVoteRequest struct {
	Nickname   string
	VisitorID  string
	Selections map[string]string
}

// Outcome distinguishes a bare registration from a registration with marks.
type Outcome string

const (
	OutcomeRegistered Outcome = "registered"
	OutcomeVoted      Outcome = "voted"
)

// RegisterVote adds a participant. Empty selections still count as a participant.
func (s *Service) RegisterVote(ctx context.Context, roomID string, request SubmitVoteRequest) (Outcome, error) {
	nickname, err := ValidateNickname(request.Nickname)
	if err != nil {
		return "", newServiceError(opRegisterVote, "invalid_nickname", err)
	}
	visitorID, err := RequireVisitor(request.VisitorID)
	if err != nil {
		return "", newServiceError(opRegisterVote, "missing_visitor", err)
	}
	room, err := s.findRoom(ctx, opRegisterVote, roomID)
	if err != nil {
		return "", err
	}
	selections, err := ParseSelections(request.Selections, room.Span())
	if err != nil {
		return "", newServiceError(opRegisterVote, "invalid_selections", err)
	}
	if room.EffectiveStatus(s.clock()) != StatusVoting {
		return "", newServiceError(opRegisterVote, "voting_closed", ErrVotingClosed)
	}

	participants, err := s.store.CountVotes(ctx, room.RoomID)
	if err != nil {
		return "", s.storeFailure(opRegisterVote, "count_failed", err, room.RoomID)
	}
	if participants >= room.MaxParticipants {
		return "", newServiceError(opRegisterVote, "room_full", ErrRoomFull)
	}

	conflict, err := s.store.FindConflictingVote(ctx, room.RoomID, nickname, visitorID)
	if err != nil {
		return "", s.storeFailure(opRegisterVote, "conflict_lookup_failed", err, room.RoomID)
	}
	if conflict != nil {
		return "", conflictError(conflict, nickname)
	}

	voteID, err := s.voteIDs.NewID()
	if err != nil {
		s.logError(opRegisterVote, "id_generation_failed", err, zap.String("room_id", room.RoomID))
		return "", newServiceError(opRegisterVote, "id_generation_failed", err)
	}
	vote := Vote{
		VoteID:     voteID,
		RoomID:     room.RoomID,
		Nickname:   nickname,
		VisitorID:  visitorID,
		CreatedAt:  s.clock().UTC(),
		Selections: selectionRows(selections),
	}
	if err := s.store.UpsertParticipantSelections(ctx, vote); err != nil {
		if errors.Is(err, ErrDuplicateParticipant) {
			if winner, lookupErr := s.store.FindConflictingVote(ctx, room.RoomID, nickname, visitorID); lookupErr == nil && winner != nil {
				return "", conflictError(winner, nickname)
			}
			return "", newServiceError(opRegisterVote, "duplicate_participant", err)
		}
		return "", s.storeFailure(opRegisterVote, "vote_insert_failed", err, room.RoomID)
	}

	outcome := OutcomeRegistered
	if len(selections) > 0 {
		outcome = OutcomeVoted
	}
	s.logger.Info("participant registered",
		zap.String("room_id", room.RoomID),
		zap.String("outcome", string(outcome)),
		zap.Int("selections", len(selections)))
	return outcome, nil
}

// UpdateVote replaces the visitor's selections wholesale.
func (s *Service) UpdateVote(ctx context.Context, roomID, visitorID string, rawSelections map[string]string) error {
	visitorID, err := RequireVisitor(visitorID)
	if err != nil {
		return newServiceError(opUpdateVote, "missing_visitor", err)
	}
	room, err := s.findRoom(ctx, opUpdateVote, roomID)
	if err != nil {
		return err
	}
	if room.EffectiveStatus(s.clock()) != StatusVoting {
		return newServiceError(opUpdateVote, "voting_closed", ErrVotingClosed)
	}
	existing, err := s.store.FindVoteByVisitor(ctx, room.RoomID, visitorID)
	if errors.Is(err, ErrVoteNotFound) {
		return newServiceError(opUpdateVote, "vote_not_found", err)
	}
	if err != nil {
		return s.storeFailure(opUpdateVote, "vote_lookup_failed", err, room.RoomID)
	}
	selections, err := ParseSelections(rawSelections, room.Span())
	if err != nil {
		return newServiceError(opUpdateVote, "invalid_selections", err)
	}

	existing.Selections = selectionRows(selections)
	if err := s.store.UpsertParticipantSelections(ctx, existing); err != nil {
		return s.storeFailure(opUpdateVote, "selections_replace_failed", err, room.RoomID)
	}
	s.logger.Info("selections replaced",
		zap.String("room_id", room.RoomID),
		zap.Int("selections", len(selections)))
	return nil
}

// ParticipantVote is a listed vote with the participant's display colour.
type ParticipantVote struct {
	tally.Vote
	Color string `json:"color"`
}

// VotesView is the per-participant listing plus the aggregate for one viewer.
type VotesView struct {
	Votes             []ParticipantVote `json:"votes"`
	Summary           VotesSummary      `json:"summary"`
	TotalParticipants int               `json:"totalParticipants"`
}

// VotesSummary groups the ranking and the dense tallies.
type VotesSummary struct {
	TopDates []tally.RankedDate `json:"topDates"`
	AllDates tally.Tallies      `json:"allDates"`
}

// GetVotes recomputes the aggregate from the stored votes on every call.
func (s *Service) GetVotes(ctx context.Context, roomID, viewerID string, limit int) (VotesView, error) {
	room, err := s.findRoom(ctx, opGetVotes, roomID)
	if err != nil {
		return VotesView{}, err
	}
	return s.aggregate(ctx, opGetVotes, room, viewerID, limit)
}

// RenderCalendar lays out one month of the room with per-day aggregates. An empty
// month shows the month of the start date.
func (s *Service) RenderCalendar(ctx context.Context, roomID, viewerID, rawMonth string) (calendar.MonthView, error) {
	room, err := s.findRoom(ctx, opRenderCalendar, roomID)
	if err != nil {
		return calendar.MonthView{}, err
	}
	display := calendar.MonthOf(room.StartDate)
	if strings.TrimSpace(rawMonth) != "" {
		display, err = calendar.ParseMonth(rawMonth)
		if err != nil {
			return calendar.MonthView{}, newServiceError(opRenderCalendar, "invalid_month", invalid("month must be a YYYY-MM month between %d and %d", dates.MinYear, dates.MaxYear))
		}
	}

	view, err := s.aggregate(ctx, opRenderCalendar, room, viewerID, tally.DefaultTopLimit)
	if err != nil {
		return calendar.MonthView{}, err
	}
	var mine map[dates.Day]tally.Status
	for _, vote := range view.Votes {
		if vote.IsMine {
			mine = vote.Selections
			break
		}
	}

	return calendar.Render(calendar.ViewInput{
		Display:           display,
		Span:              room.Span(),
		Today:             dates.DayOf(s.clock()),
		Tallies:           view.Summary.AllDates,
		TotalParticipants: view.TotalParticipants,
		Mine:              mine,
	}), nil
}

func (s *Service) aggregate(ctx context.Context, operation string, room Room, viewerID string, limit int) (VotesView, error) {
	stored, err := s.store.ListVotesForRoom(ctx, room.RoomID)
	if err != nil {
		return VotesView{}, s.storeFailure(operation, "votes_query_failed", err, room.RoomID)
	}

	votes, err := toTallyVotes(stored, viewerID)
	if err != nil {
		s.logError(operation, "invalid_stored_status", err, zap.String("room_id", room.RoomID))
		return VotesView{}, newServiceError(operation, "invalid_stored_status", err)
	}

	started := time.Now()
	summary := tally.Summarize(votes, room.Span(), limit)
	s.observeAggregation(time.Since(started))

	listed := make([]ParticipantVote, 0, len(votes))
	for _, vote := range votes {
		listed = append(listed, ParticipantVote{Vote: vote, Color: calendar.ColorForNickname(vote.Nickname)})
	}

	return VotesView{
		Votes: listed,
		Summary: VotesSummary{
			TopDates: summary.TopDates,
			AllDates: summary.AllDates,
		},
		TotalParticipants: summary.TotalParticipants,
	}, nil
}

// toTallyVotes is the boundary where stored statuses become engine values.
func toTallyVotes(stored []Vote, viewerID string) ([]tally.Vote, error) {
	viewerID = strings.TrimSpace(viewerID)
	votes := make([]tally.Vote, 0, len(stored))
	for _, record := range stored {
		selections := make(map[dates.Day]tally.Status, len(record.Selections))
		for _, selection := range record.Selections {
			status, err := tally.ParseStatus(string(selection.Status))
			if err != nil {
				return nil, errors.Join(errUnknownStatus, err)
			}
			selections[selection.Day] = status
		}
		votes = append(votes, tally.Vote{
			Nickname:   record.Nickname,
			IsMine:     viewerID != "" && record.VisitorID == viewerID,
			Selections: selections,
		})
	}
	return votes, nil
}

func selectionRows(selections map[dates.Day]tally.Status) []Selection {
	rows := make([]Selection, 0, len(selections))
	for day, status := range selections {
		rows = append(rows, Selection{Day: day, Status: status})
	}
	return rows
}

func conflictError(conflict *Vote, nickname string) error {
	if conflict.Nickname == nickname {
		return newServiceError(opRegisterVote, "nickname_taken", ErrNicknameTaken)
	}
	return newServiceError(opRegisterVote, "already_voted", ErrAlreadyVoted)
}

func isHost(room Room, visitorID string) bool {
	visitorID = strings.TrimSpace(visitorID)
	return visitorID != "" && visitorID == room.HostVisitorID
}

// isOpenForTransition accepts a stored VOTING room, including one whose deadline passed.
func isOpenForTransition(status Status) bool {
	return status == StatusVoting
}

func (s *Service) sharePath(roomID string) string {
	return "/" + roomID
}

func (s *Service) findRoom(ctx context.Context, operation, roomID string) (Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return Room{}, newServiceError(operation, "room_not_found", ErrRoomNotFound)
	}
	room, err := s.store.FindRoom(ctx, roomID)
	if errors.Is(err, ErrRoomNotFound) {
		return Room{}, newServiceError(operation, "room_not_found", err)
	}
	if err != nil {
		return Room{}, s.storeFailure(operation, "room_query_failed", err, roomID)
	}
	return room, nil
}

func (s *Service) findHostedRoom(ctx context.Context, operation, roomID, hostID string) (Room, error) {
	room, err := s.findRoom(ctx, operation, roomID)
	if err != nil {
		return Room{}, err
	}
	if !isHost(room, hostID) {
		return Room{}, newServiceError(operation, "not_host", ErrNotHost)
	}
	return room, nil
}

// storeFailure passes domain errors from the store through with a code and logs
// everything else as an infrastructure failure.
func (s *Service) storeFailure(operation, reason string, err error, roomID string) error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return newServiceError(operation, domainErr.Code(), err)
	}
	s.logError(operation, reason, err, zap.String("room_id", roomID))
	return newServiceError(operation, reason, err)
}

func (s *Service) loggerOrDefault() *zap.Logger {
	if s == nil || s.logger == nil {
		return noOpLogger
	}
	return s.logger
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.loggerOrDefault().Error("rooms service error", attrs...)
}
