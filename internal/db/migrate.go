package db

import (
	"fmt"

	"github.com/quantummeet/quantummeet/internal/models"
	"gorm.io/gorm"
)

// AllModels returns every GORM model for migration.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Session{},
		&models.Agent{},
		&models.Meeting{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("db: auto-migrate: %w", err)
	}
	return backfillSearchKeys(db)
}

// backfillSearchKeys derives name_search for rows written before the
// column existed. Folding happens in Go so every driver agrees.
func backfillSearchKeys(db *gorm.DB) error {
	type named struct {
		ID   string
		Name string
	}
	for _, table := range []string{"agents", "meetings"} {
		var rows []named
		if err := db.Table(table).
			Select("id, name").
			Where("name_search = ? AND name <> ?", "", "").
			Scan(&rows).Error; err != nil {
			return fmt.Errorf("db: backfill %s: %w", table, err)
		}
		for _, r := range rows {
			if err := db.Table(table).
				Where("id = ?", r.ID).
				UpdateColumn("name_search", models.SearchKey(r.Name)).Error; err != nil {
				return fmt.Errorf("db: backfill %s %s: %w", table, r.ID, err)
			}
		}
	}
	return nil
}

// ResetTables drops every model table and migrates them again. Used for
// sqlite, where there is no server-level database to drop.
func ResetTables(db *gorm.DB) error {
	all := AllModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Migrator().DropTable(all[i]); err != nil {
			return fmt.Errorf("db: drop table: %w", err)
		}
	}
	return AutoMigrate(db)
}
