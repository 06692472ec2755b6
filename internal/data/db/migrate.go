package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/aletheia-backend/internal/domain"
)

// AutoMigrateAll creates or updates every table. Safe to run on each start.
func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return EnsureIndexes(db)
}

// EnsureIndexes adds partial indexes GORM tags cannot express. The syntax is
// shared by Postgres and SQLite.
func EnsureIndexes(db *gorm.DB) error {
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_quests_pending ON quests (user_id) WHERE completed = false`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_unread ON notifications (user_id) WHERE is_read = false`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("ensure index: %w", err)
		}
	}
	return nil
}
