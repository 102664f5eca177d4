package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card is a collectible tracked on the Renaiss marketplace.
// Identity is RenaissID; Name is not unique.
type Card struct {
	ID          uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	RenaissID   string    `json:"renaiss_id" gorm:"not null;uniqueIndex"`
	TokenID     string    `json:"token_id" gorm:"not null;uniqueIndex"`
	Name        string    `json:"name" gorm:"not null;index"`
	// NameLower is Name folded with full Unicode case mapping, for substring lookups
	NameLower   string    `json:"-" gorm:"not null;default:'';index"`
	Grade       *string   `json:"grade"`
	ImageURL    *string   `json:"image_url"`
	LastUpdated time.Time `json:"last_updated"`
	CreatedAt   time.Time `json:"created_at"`
}

// CardInfo is the lookup result returned to chat handlers
type CardInfo struct {
	Name       string              `json:"name"`
	Grade      *string             `json:"grade"`
	ImageURL   *string             `json:"image_url"`
	AskPrice   decimal.NullDecimal `json:"ask_price"`
	FMVPrice   decimal.NullDecimal `json:"fmv_price"`
	OfferPrice decimal.NullDecimal `json:"offer_price"`
	Link       string              `json:"link"`
}

// NewCardInfo combines a card with its listing
func NewCardInfo(card *Card, listing *Listing) *CardInfo {
	return &CardInfo{
		Name:       card.Name,
		Grade:      card.Grade,
		ImageURL:   card.ImageURL,
		AskPrice:   listing.AskPrice,
		FMVPrice:   listing.FMVPrice,
		OfferPrice: listing.OfferPrice,
		Link:       listing.Link,
	}
}

// NormalizedCard is a market record after price normalization, ready to be upserted
type NormalizedCard struct {
	RenaissID  string              `json:"renaiss_id"`
	TokenID    string              `json:"token_id"`
	Name       string              `json:"name"`
	Grade      *string             `json:"grade"`
	ImageURL   *string             `json:"image_url"`
	AskPrice   decimal.NullDecimal `json:"ask_price"`
	FMVPrice   decimal.NullDecimal `json:"fmv_price"`
	OfferPrice decimal.NullDecimal `json:"offer_price"`
	Link       string              `json:"link"`
}
