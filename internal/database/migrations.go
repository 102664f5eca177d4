package database

import (
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/codyseavey/renaiss-bot/internal/models"
)

// cleanupDuplicateListings removes duplicate listings entries before the unique index is added.
// This runs BEFORE AutoMigrate to prevent constraint violations
func cleanupDuplicateListings(db *gorm.DB) error {
	if !db.Migrator().HasTable("listings") {
		return nil
	}

	// Index already in place, nothing can be duplicated
	if db.Migrator().HasIndex("listings", "idx_listing_card_source") {
		return nil
	}

	// Keep the most recently written row for each (card, source) pair
	result := db.Exec(`
		DELETE FROM listings
		WHERE id NOT IN (
			SELECT MAX(id)
			FROM listings
			GROUP BY card_id, source
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Printf("Cleaned up %d duplicate listings entries", result.RowsAffected)
	}

	return nil
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB) error {
	if err := migrateEmptyOptionalFields(db); err != nil {
		return err
	}
	if err := migrateNameLower(db); err != nil {
		return err
	}
	return migrateListingSource(db)
}

// migrateEmptyOptionalFields turns empty grade/image strings into NULL so
// "no grade" has a single representation
func migrateEmptyOptionalFields(db *gorm.DB) error {
	result := db.Exec(`UPDATE cards SET grade = NULL WHERE grade = ''`)
	if result.Error != nil {
		log.Printf("Warning: failed to normalize empty grades: %v", result.Error)
	}

	result = db.Exec(`UPDATE cards SET image_url = NULL WHERE image_url = ''`)
	if result.Error != nil {
		log.Printf("Warning: failed to normalize empty image urls: %v", result.Error)
	}

	return nil
}

// migrateListingSource backfills the source tag on rows written before it was required
func migrateListingSource(db *gorm.DB) error {
	result := db.Exec(`UPDATE OR IGNORE listings SET source = 'renaiss' WHERE source IS NULL OR source = ''`)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Printf("Backfilled source on %d listings rows", result.RowsAffected)
	}
	return nil
}

// migrateNameLower fills name_lower on cards written before the column existed.
// SQLite's LOWER only folds ASCII, so the folding is done here.
func migrateNameLower(db *gorm.DB) error {
	var cards []models.Card
	if err := db.Select("id", "name").Where("name_lower IS NULL OR name_lower = ''").Find(&cards).Error; err != nil {
		return err
	}
	if len(cards) == 0 {
		return nil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, c := range cards {
			if err := tx.Model(&models.Card{}).Where("id = ?", c.ID).Update("name_lower", strings.ToLower(c.Name)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("Backfilled name_lower on %d cards", len(cards))
	return nil
}
