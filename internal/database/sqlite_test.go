package database

import (
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codyseavey/renaiss-bot/internal/models"
)

func closeDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	_ = sqlDB.Close()
}

func TestOpenCreatesUniqueListingIndex(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "bot.db"), logger.Silent)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer closeDB(t, db)

	if !db.Migrator().HasIndex(&models.Listing{}, "idx_listing_card_source") {
		t.Fatal("Expected unique index on listings(card_id, source)")
	}

	first := models.Listing{CardID: 1, Source: models.SourceRenaiss, Link: "a"}
	if err := db.Create(&first).Error; err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	dup := models.Listing{CardID: 1, Source: models.SourceRenaiss, Link: "b"}
	if err := db.Create(&dup).Error; err == nil {
		t.Error("Expected duplicate (card_id, source) insert to fail")
	}
	other := models.Listing{CardID: 1, Source: "other", Link: "c"}
	if err := db.Create(&other).Error; err != nil {
		t.Errorf("Same card from another source should be allowed: %v", err)
	}
}

func TestOpenCleansLegacyDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("Failed to create legacy database: %v", err)
	}
	stmts := []string{
		`CREATE TABLE listings (
			id integer PRIMARY KEY AUTOINCREMENT,
			card_id integer NOT NULL,
			source text NOT NULL,
			ask_price decimal(20,2),
			fmv_price decimal(20,2),
			offer_price decimal(20,2),
			link text,
			recorded_at datetime
		)`,
		`INSERT INTO listings (card_id, source, link, recorded_at) VALUES (1, 'renaiss', 'old', CURRENT_TIMESTAMP)`,
		`INSERT INTO listings (card_id, source, link, recorded_at) VALUES (1, 'renaiss', 'new', CURRENT_TIMESTAMP)`,
		`INSERT INTO listings (card_id, source, link, recorded_at) VALUES (2, 'renaiss', 'only', CURRENT_TIMESTAMP)`,
	}
	for _, stmt := range stmts {
		if err := legacy.Exec(stmt).Error; err != nil {
			t.Fatalf("Legacy setup failed: %v", err)
		}
	}
	closeDB(t, legacy)

	db, err := Open(path, logger.Silent)
	if err != nil {
		t.Fatalf("Open on legacy database failed: %v", err)
	}
	defer closeDB(t, db)

	var listings []models.Listing
	if err := db.Order("card_id ASC").Find(&listings).Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("Expected 2 listings after cleanup, got %d", len(listings))
	}
	if listings[0].Link != "new" {
		t.Errorf("Expected the newest duplicate to be kept, got %q", listings[0].Link)
	}
}

func TestOpenNormalizesEmptyOptionalFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := Open(path, logger.Silent)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Exec(`INSERT INTO cards (renaiss_id, token_id, name, grade, image_url, last_updated, created_at) VALUES ('r1', 't1', 'Mew', '', '', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error; err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	closeDB(t, db)

	db, err = Open(path, logger.Silent)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer closeDB(t, db)

	var card models.Card
	if err := db.First(&card).Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if card.Grade != nil || card.ImageURL != nil {
		t.Errorf("Expected empty optional fields to become NULL, got %v / %v", card.Grade, card.ImageURL)
	}
}

func TestOpenBackfillsLowercasedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.db")
	db, err := Open(path, logger.Silent)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := db.Exec(`INSERT INTO cards (renaiss_id, token_id, name, last_updated, created_at) VALUES ('r1', 't1', 'Éevee Étoile', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`).Error; err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	closeDB(t, db)

	db, err = Open(path, logger.Silent)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer closeDB(t, db)

	var card models.Card
	if err := db.First(&card).Error; err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if card.NameLower != "éevee étoile" {
		t.Errorf("Expected Unicode-folded name_lower, got %q", card.NameLower)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"ERROR":  logger.Error,
		" info ": logger.Info,
		"warn":   logger.Warn,
		"":       logger.Warn,
		"bogus":  logger.Warn,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestDSN(t *testing.T) {
	if got := dsn("./bot.db"); got != "./bot.db?_busy_timeout=5000&_journal_mode=WAL" {
		t.Errorf("dsn = %q", got)
	}
	if got := dsn("file.db?cache=shared"); got != "file.db?cache=shared" {
		t.Errorf("dsn should keep explicit params, got %q", got)
	}
	if got := dsn(":memory:"); got != ":memory:" {
		t.Errorf("dsn should leave memory databases alone, got %q", got)
	}
}
