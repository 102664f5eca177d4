package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceRenaiss is the source tag for listings pulled from the Renaiss marketplace
const SourceRenaiss = "renaiss"

// Listing is a price quote for a card from one source.
// At most one row exists per (card_id, source); the unique index enforces it.
type Listing struct {
	ID         uint                `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID     uint                `json:"card_id" gorm:"not null;uniqueIndex:idx_listing_card_source"`
	Source     string              `json:"source" gorm:"not null;uniqueIndex:idx_listing_card_source"`
	AskPrice   decimal.NullDecimal `json:"ask_price" gorm:"type:decimal(20,2)"`
	FMVPrice   decimal.NullDecimal `json:"fmv_price" gorm:"type:decimal(20,2)"`
	OfferPrice decimal.NullDecimal `json:"offer_price" gorm:"type:decimal(20,2)"`
	Link       string              `json:"link"`
	RecordedAt time.Time           `json:"recorded_at"`
}

// CardListing pairs a card with one of its listings
type CardListing struct {
	Card    Card
	Listing Listing
}
