package database

import (
	"errors"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const migrationDropUnavailableSelections = "2025-01-20_drop_unavailable_selections"

type migrationRecord struct {
	Name             string `gorm:"column:name;primaryKey;size:190;not null"`
	AppliedAtSeconds int64  `gorm:"column:applied_at_s;not null"`
}

func (migrationRecord) TableName() string {
	return "db_migrations"
}

type migrationDefinition struct {
	name  string
	apply func(*gorm.DB) error
}

func applyMigrations(db *gorm.DB, logger *zap.Logger) error {
	migrations := []migrationDefinition{
		{name: migrationDropUnavailableSelections, apply: dropUnavailableSelections},
	}

	for _, migration := range migrations {
		var record migrationRecord
		err := db.Where("name = ?", migration.name).Take(&record).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := migration.apply(db); err != nil {
			return err
		}
		appliedAt := time.Now().UTC().Unix()
		if err := db.Create(&migrationRecord{Name: migration.name, AppliedAtSeconds: appliedAt}).Error; err != nil {
			return err
		}
		if logger != nil {
			logger.Info("database migration applied", zap.String("migration", migration.name))
		}
	}
	return nil
}

// dropUnavailableSelections removes marks from the retired three-state model.
// Absence of a mark now means no opinion.
func dropUnavailableSelections(db *gorm.DB) error {
	if !db.Migrator().HasTable(&rooms.Selection{}) {
		return nil
	}
	return db.Where("status NOT IN ?", []string{"AVAILABLE", "MAYBE"}).
		Delete(&rooms.Selection{}).Error
}
