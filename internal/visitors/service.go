package visitors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultTouchInterval = 5 * time.Minute

var (
	ErrInvalidVisitor  = errors.New("visitors: invalid visitor id")
	ErrVisitorNotFound = errors.New("visitors: visitor not found")
)

// IDProvider issues visitor identifiers.
type IDProvider interface {
	NewID() (string, error)
}

// ServiceConfig describes the dependencies required for visitor bookkeeping.
type ServiceConfig struct {
	Database       *gorm.DB
	Clock          func() time.Time
	IDProvider     IDProvider
	Logger         *zap.Logger
	TouchInterval  time.Duration
	// TouchCacheSize caps how many recent touches are remembered.
	TouchCacheSize int
}

// Service registers visitors and tracks when they were last seen.
type Service struct {
	db          *gorm.DB
	now         func() time.Time
	ids         IDProvider
	logger      *zap.Logger
	lastTouched *touchCache
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("visitors: database connection required")
	}
	if cfg.IDProvider == nil {
		return nil, fmt.Errorf("visitors: id provider required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.TouchInterval
	if interval <= 0 {
		interval = defaultTouchInterval
	}
	cacheSize := cfg.TouchCacheSize
	if cacheSize <= 0 {
		cacheSize = defaultTouchCacheSize
	}
	return &Service{
		db:          cfg.Database,
		now:         clock,
		ids:         cfg.IDProvider,
		logger:      logger,
		lastTouched: newTouchCache(interval, cacheSize),
	}, nil
}

// Register creates a fresh visitor.
func (s *Service) Register(ctx context.Context) (Visitor, error) {
	visitorID, err := s.ids.NewID()
	if err != nil {
		return Visitor{}, fmt.Errorf("visitors: generate id: %w", err)
	}
	now := s.now().UTC()
	visitor := Visitor{VisitorID: visitorID, FirstSeenAt: now, LastSeenAt: now}
	if err := s.db.WithContext(ctx).Create(&visitor).Error; err != nil {
		return Visitor{}, err
	}
	s.lastTouched.record(visitorID, now)
	return visitor, nil
}

// Touch records activity for a visitor holding a valid token. Writes are skipped
// while the previous touch is younger than the touch interval. A visitor missing
// from the table is recreated.
func (s *Service) Touch(ctx context.Context, visitorID string) error {
	visitorID = normalize(visitorID)
	if visitorID == "" {
		return ErrInvalidVisitor
	}
	now := s.now().UTC()
	if s.lastTouched.fresh(visitorID, now) {
		return nil
	}

	visitor := Visitor{VisitorID: visitorID, FirstSeenAt: now, LastSeenAt: now}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "visitor_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": now}),
	}).Create(&visitor).Error
	if err != nil {
		s.logger.Warn("visitor touch failed", zap.String("visitor_id", visitorID), zap.Error(err))
		return err
	}
	s.lastTouched.record(visitorID, now)
	return nil
}

// Get loads a visitor by id.
func (s *Service) Get(ctx context.Context, visitorID string) (Visitor, error) {
	visitorID = normalize(visitorID)
	if visitorID == "" {
		return Visitor{}, ErrInvalidVisitor
	}
	var visitor Visitor
	err := s.db.WithContext(ctx).Where("visitor_id = ?", visitorID).Take(&visitor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Visitor{}, ErrVisitorNotFound
	}
	if err != nil {
		return Visitor{}, err
	}
	return visitor, nil
}
