package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/codyseavey/renaiss-bot/internal/metrics"
	"github.com/codyseavey/renaiss-bot/internal/models"
)

// DefaultMinProfitPercent is the threshold used when callers don't pass one
const DefaultMinProfitPercent = 5.0

var hundred = decimal.NewFromInt(100)

// arbitrageStore is the part of CardStore the engine needs
type arbitrageStore interface {
	ListingsForSource(ctx context.Context, source string) ([]models.CardListing, error)
	AppendArbitrageLogs(ctx context.Context, logs []models.ArbitrageLog) error
	RecentArbitrageLogs(ctx context.Context, limit int) ([]models.ArbitrageLog, error)
}

// ArbitrageService finds FMV arbitrage opportunities in stored listings and logs every detection
type ArbitrageService struct {
	store arbitrageStore
	now   func() time.Time
}

// NewArbitrageService creates an engine reading from store
func NewArbitrageService(store *CardStore) *ArbitrageService {
	return &ArbitrageService{
		store: store,
		now:   time.Now,
	}
}

// FindOpportunities returns every Renaiss listing whose FMV beats its ask price by at least
// minProfitPercent, ranked by profit percent descending (ties keep encounter order).
// Each opportunity is appended to the audit log; logs are only written when something was found.
// Store errors are returned as-is, there is no retry.
func (s *ArbitrageService) FindOpportunities(ctx context.Context, minProfitPercent float64) ([]models.Opportunity, error) {
	if math.IsNaN(minProfitPercent) || math.IsInf(minProfitPercent, 0) {
		return nil, ErrInvalidThreshold
	}

	log.Printf("Arbitrage: finding opportunities with min profit >= %.2f%%", minProfitPercent)
	metrics.ArbitrageScansTotal.Inc()

	pairs, err := s.store.ListingsForSource(ctx, models.SourceRenaiss)
	if err != nil {
		return nil, err
	}

	threshold := decimal.NewFromFloat(minProfitPercent)
	scanID := uuid.New().String()
	discoveredAt := s.now()

	opportunities := make([]models.Opportunity, 0)
	var logs []models.ArbitrageLog

	for _, pair := range pairs {
		opp, ok := evaluateFMV(pair)
		if !ok || opp.ProfitPercent.LessThan(threshold) {
			continue
		}
		opportunities = append(opportunities, opp)
		logs = append(logs, models.ArbitrageLog{
			CardID:        pair.Card.ID,
			ScanID:        scanID,
			ProfitPercent: opp.ProfitPercent,
			ProfitUSD:     opp.ProfitUSD,
			Type:          opp.Type,
			Details:       fmt.Sprintf("Ask: $%s, FMV: $%s", opp.AskPrice.StringFixed(2), opp.FMVPrice.StringFixed(2)),
			DiscoveredAt:  discoveredAt,
		})
	}

	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].ProfitPercent.GreaterThan(opportunities[j].ProfitPercent)
	})

	metrics.ArbitrageOpportunitiesFound.Set(float64(len(opportunities)))

	if len(opportunities) > 0 {
		if err := s.store.AppendArbitrageLogs(ctx, logs); err != nil {
			return nil, err
		}
		metrics.ArbitrageLogsWrittenTotal.Add(float64(len(logs)))
		log.Printf("Arbitrage: found %d arbitrage opportunities (scan %s)", len(opportunities), scanID)
	}

	return opportunities, nil
}

// RecentLogs returns the newest arbitrage audit rows
func (s *ArbitrageService) RecentLogs(ctx context.Context, limit int) ([]models.ArbitrageLog, error) {
	return s.store.RecentArbitrageLogs(ctx, limit)
}

// evaluateFMV computes profit for one pair. ok is false when the pair is not eligible:
// a missing ask or FMV, or a zero ask which would divide by zero.
func evaluateFMV(pair models.CardListing) (models.Opportunity, bool) {
	l := pair.Listing
	if !l.AskPrice.Valid || !l.FMVPrice.Valid || l.AskPrice.Decimal.IsZero() {
		return models.Opportunity{}, false
	}

	ask := l.AskPrice.Decimal
	fmv := l.FMVPrice.Decimal
	diff := fmv.Sub(ask)

	return models.Opportunity{
		CardID:        pair.Card.ID,
		CardName:      pair.Card.Name,
		Grade:         pair.Card.Grade,
		ImageURL:      pair.Card.ImageURL,
		AskPrice:      ask,
		FMVPrice:      fmv,
		ProfitPercent: diff.Div(ask).Mul(hundred).Round(2),
		ProfitUSD:     diff.Round(2),
		Link:          l.Link,
		Type:          models.OpportunityTypeFMV,
	}, true
}
