package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/visitors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and addresses the backing database.
type Config struct {
	Driver string
	Path   string
	DSN    string
}

// Open connects to the configured driver and brings the schema up to date.
func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*gorm.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverSQLite:
		return OpenSQLite(cfg.Path, logger)
	case DriverPostgres:
		return OpenPostgres(ctx, cfg.DSN, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// Migrate runs data migrations and then the schema migration. Data migrations go
// first so rows that violate new constraints are gone before tables are rebuilt.
func Migrate(db *gorm.DB, logger *zap.Logger) error {
	if err := db.AutoMigrate(&migrationRecord{}); err != nil {
		return err
	}
	if err := applyMigrations(db, logger); err != nil {
		return err
	}
	return db.AutoMigrate(&rooms.Room{}, &rooms.Vote{}, &rooms.Selection{}, &visitors.Visitor{})
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
