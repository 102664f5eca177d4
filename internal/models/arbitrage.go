package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OpportunityTypeFMV tags opportunities where the ask price sits below fair market value
const OpportunityTypeFMV = "FMV Arbitrage"

// ArbitrageLog is an append-only audit record of a detected opportunity.
// It references the card by id only and is never removed with the card.
type ArbitrageLog struct {
	ID            uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID        uint            `json:"card_id" gorm:"not null;index"`
	ScanID        string          `json:"scan_id" gorm:"index"`
	ProfitPercent decimal.Decimal `json:"profit_percent" gorm:"type:decimal(20,2);not null"`
	ProfitUSD     decimal.Decimal `json:"profit_usd" gorm:"type:decimal(20,2);not null"`
	Type          string          `json:"type"`
	Details       string          `json:"details"`
	DiscoveredAt  time.Time       `json:"discovered_at" gorm:"index"`
}

// Opportunity is one ranked arbitrage result
type Opportunity struct {
	CardID        uint            `json:"card_id"`
	CardName      string          `json:"card_name"`
	Grade         *string         `json:"grade"`
	ImageURL      *string         `json:"image_url"`
	AskPrice      decimal.Decimal `json:"ask_price"`
	FMVPrice      decimal.Decimal `json:"fmv_price"`
	ProfitPercent decimal.Decimal `json:"profit_percent"`
	ProfitUSD     decimal.Decimal `json:"profit_usd"`
	Link          string          `json:"link"`
	Type          string          `json:"type"`
}

// OpportunityList is the API response for an arbitrage scan
type OpportunityList struct {
	Opportunities []Opportunity `json:"opportunities"`
	Count         int           `json:"count"`
	MinProfit     float64       `json:"min_profit_percent"`
	ScannedAt     time.Time     `json:"scanned_at"`
}
