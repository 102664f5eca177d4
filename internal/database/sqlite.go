package database

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/codyseavey/renaiss-bot/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the sqlite database at dbPath, migrates the schema and returns the handle.
// The handle is passed to each service explicitly; there is no package-level connection.
func Open(dbPath string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Database connected successfully")

	// Old databases have no unique (card_id, source) index and may hold duplicates
	if err := cleanupDuplicateListings(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(&models.Card{}, &models.Listing{}, &models.ArbitrageLog{})
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

// dsn adds a busy timeout and WAL so the refresh worker and API requests can share the file
func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") || strings.Contains(dbPath, ":memory:") {
		return dbPath
	}
	return dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
}

// ParseLogLevel maps a config string to a gorm log level, defaulting to Warn
func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}
