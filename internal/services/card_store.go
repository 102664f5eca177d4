package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codyseavey/renaiss-bot/internal/models"
)

// CardStore persists cards, their per-source listings and the arbitrage audit log
type CardStore struct {
	db *gorm.DB
}

// NewCardStore creates a store on the given database handle
func NewCardStore(db *gorm.DB) *CardStore {
	return &CardStore{db: db}
}

// UpsertCardAndListing inserts or updates one card and its listing for source in a single transaction
func (s *CardStore) UpsertCardAndListing(ctx context.Context, rec models.NormalizedCard, source string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return upsertCardAndListing(tx, rec, source, time.Now())
	})
	return storeErr("upsert card", err)
}

// UpsertBatch upserts every record inside one transaction that commits once at the end.
// Each record runs in its own savepoint: a record that violates a constraint is logged and
// skipped without losing the rest of the batch. Returns the number of records stored.
// When no record could be stored the last failure is returned.
func (s *CardStore) UpsertBatch(ctx context.Context, recs []models.NormalizedCard, source string) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	now := time.Now()
	processed := 0
	var lastErr error
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range recs {
			err := tx.Transaction(func(sp *gorm.DB) error {
				return upsertCardAndListing(sp, rec, source, now)
			})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Printf("Card store: skipping record %s (token %s): %v", rec.RenaissID, rec.TokenID, err)
				lastErr = err
				continue
			}
			processed++
		}
		if processed == 0 {
			return lastErr
		}
		return nil
	})
	if err != nil {
		return 0, storeErr("upsert batch", err)
	}
	return processed, nil
}

// upsertCardAndListing looks the card up by its Renaiss id, creating or refreshing it,
// then upserts the (card, source) listing on its unique index
func upsertCardAndListing(tx *gorm.DB, rec models.NormalizedCard, source string, now time.Time) error {
	var cards []models.Card
	if err := tx.Where("renaiss_id = ?", rec.RenaissID).Limit(1).Find(&cards).Error; err != nil {
		return err
	}

	var card models.Card
	if len(cards) == 0 {
		card = models.Card{
			RenaissID:   rec.RenaissID,
			TokenID:     rec.TokenID,
			Name:        rec.Name,
			NameLower:   strings.ToLower(rec.Name),
			Grade:       rec.Grade,
			ImageURL:    rec.ImageURL,
			LastUpdated: now,
		}
		if err := tx.Create(&card).Error; err != nil {
			return err
		}
	} else {
		card = cards[0]
		err := tx.Model(&card).Updates(map[string]any{
			"token_id":     rec.TokenID,
			"name":         rec.Name,
			"name_lower":   strings.ToLower(rec.Name),
			"grade":        rec.Grade,
			"image_url":    rec.ImageURL,
			"last_updated": now,
		}).Error
		if err != nil {
			return err
		}
	}

	listing := models.Listing{
		CardID:     card.ID,
		Source:     source,
		AskPrice:   rec.AskPrice,
		FMVPrice:   rec.FMVPrice,
		OfferPrice: rec.OfferPrice,
		Link:       rec.Link,
		RecordedAt: now,
	}

	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "card_id"}, {Name: "source"}},
		DoUpdates: clause.AssignmentColumns([]string{"ask_price", "fmv_price", "offer_price", "link", "recorded_at"}),
	}).Create(&listing).Error
}

// FindCardByName returns the first card whose name contains substring, case-insensitively, with its
// Renaiss listing. Returns ErrCardNotFound when nothing matches or the card has no Renaiss listing.
func (s *CardStore) FindCardByName(ctx context.Context, substring string) (*models.CardInfo, error) {
	var info *models.CardInfo
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cards []models.Card
		pattern := "%" + escapeLike(strings.ToLower(substring)) + "%"
		err := tx.Where(`name_lower LIKE ? ESCAPE '\'`, pattern).
			Order("id ASC").
			Limit(1).
			Find(&cards).Error
		if err != nil {
			return err
		}
		if len(cards) == 0 {
			return ErrCardNotFound
		}

		var listings []models.Listing
		err = tx.Where("card_id = ? AND source = ?", cards[0].ID, models.SourceRenaiss).
			Limit(1).
			Find(&listings).Error
		if err != nil {
			return err
		}
		if len(listings) == 0 {
			return ErrCardNotFound
		}

		info = models.NewCardInfo(&cards[0], &listings[0])
		return nil
	})
	if errors.Is(err, ErrCardNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, storeErr("find card by name", err)
	}
	return info, nil
}

// ListingsForSource returns every card paired with its listing from source, in listing insertion order
func (s *CardStore) ListingsForSource(ctx context.Context, source string) ([]models.CardListing, error) {
	var pairs []models.CardListing
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listings []models.Listing
		if err := tx.Where("source = ?", source).Order("id ASC").Find(&listings).Error; err != nil {
			return err
		}
		if len(listings) == 0 {
			return nil
		}

		cardIDs := make([]uint, 0, len(listings))
		for _, l := range listings {
			cardIDs = append(cardIDs, l.CardID)
		}

		var cards []models.Card
		if err := tx.Where("id IN ?", cardIDs).Find(&cards).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.Card, len(cards))
		for _, c := range cards {
			byID[c.ID] = c
		}

		pairs = make([]models.CardListing, 0, len(listings))
		for _, l := range listings {
			card, ok := byID[l.CardID]
			if !ok {
				// Orphaned listing, its card was removed outside this store
				continue
			}
			pairs = append(pairs, models.CardListing{Card: card, Listing: l})
		}
		return nil
	})
	if err != nil {
		return nil, storeErr("list listings", err)
	}
	return pairs, nil
}

// AppendArbitrageLogs writes audit rows in one transaction
func (s *CardStore) AppendArbitrageLogs(ctx context.Context, logs []models.ArbitrageLog) error {
	if len(logs) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&logs, 100).Error
	})
	return storeErr("append arbitrage logs", err)
}

// RecentArbitrageLogs returns the newest audit rows first
func (s *CardStore) RecentArbitrageLogs(ctx context.Context, limit int) ([]models.ArbitrageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var logs []models.ArbitrageLog
	err := s.db.WithContext(ctx).
		Order("discovered_at DESC, id DESC").
		Limit(limit).
		Find(&logs).Error
	if err != nil {
		return nil, storeErr("recent arbitrage logs", err)
	}
	return logs, nil
}

// CountCards returns the number of stored cards
func (s *CardStore) CountCards(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Card{}).Count(&count).Error; err != nil {
		return 0, storeErr("count cards", err)
	}
	return count, nil
}

// CardNames returns every distinct stored card name
func (s *CardStore) CardNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&models.Card{}).
		Distinct("name").
		Order("name ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, storeErr("card names", err)
	}
	return names, nil
}

// DeleteCard removes a card and its listings. Arbitrage logs are kept as history.
func (s *CardStore) DeleteCard(ctx context.Context, cardID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", cardID).Delete(&models.Listing{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Card{}, cardID).Error
	})
	return storeErr("delete card", err)
}

// escapeLike escapes LIKE wildcards so user input matches literally
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
