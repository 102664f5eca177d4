package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/codyseavey/renaiss-bot/internal/metrics"
	"github.com/codyseavey/renaiss-bot/internal/models"
)

const defaultPageSize = 200

// RefreshSummary describes one refresh cycle
type RefreshSummary struct {
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	Pages          int           `json:"pages"`
	RawRecords     int           `json:"raw_records"`
	Skipped        int           `json:"skipped"`
	Rejected       int           `json:"rejected"`
	CardsProcessed int           `json:"cards_processed"`
	// FetchFailed is set when the data source failed; processed cards come from earlier pages only
	FetchFailed bool `json:"fetch_failed"`
}

// CardInfoOptions configures paging and the lookup cache
type CardInfoOptions struct {
	PageSize  int
	MaxPages  int
	CacheSize int
	CacheTTL  time.Duration
}

// CardInfoService refreshes stored cards from the market and answers card lookups
type CardInfoService struct {
	source   ListingSource
	store    *CardStore
	pageSize int
	maxPages int
	cache    *expirable.LRU[string, models.CardInfo]
}

// NewCardInfoService creates the refresh pipeline over source and store
func NewCardInfoService(source ListingSource, store *CardStore, opts CardInfoOptions) *CardInfoService {
	if opts.PageSize <= 0 {
		opts.PageSize = defaultPageSize
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	if opts.CacheSize <= 0 {
		opts.CacheSize = 256
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}

	return &CardInfoService{
		source:   source,
		store:    store,
		pageSize: opts.PageSize,
		maxPages: opts.MaxPages,
		cache:    expirable.NewLRU[string, models.CardInfo](opts.CacheSize, nil, opts.CacheTTL),
	}
}

// RefreshAllCards pulls listed cards page by page and upserts them in one batch.
// Pages are requested until a short page or the page cap. Data source failures are
// logged and never returned: a failed cycle leaves stored data untouched.
// Store failures are returned.
func (s *CardInfoService) RefreshAllCards(ctx context.Context) (RefreshSummary, error) {
	summary := RefreshSummary{StartedAt: time.Now()}
	log.Println("Card refresh: starting to refresh all card data")

	var cards []models.NormalizedCard
	for offset := 0; summary.Pages < s.maxPages; offset += s.pageSize {
		page, err := s.source.FetchListings(ctx, s.pageSize, offset)
		if err != nil {
			log.Printf("Card refresh: fetch failed at offset %d: %v", offset, err)
			summary.FetchFailed = true
			break
		}
		summary.Pages++
		summary.RawRecords += page.RawCount
		summary.Skipped += page.RawCount - len(page.Cards)
		cards = append(cards, page.Cards...)

		if page.RawCount < s.pageSize {
			break
		}
	}

	if summary.Skipped > 0 {
		metrics.NormalizationSkipsTotal.Add(float64(summary.Skipped))
	}

	processed, err := s.store.UpsertBatch(ctx, cards, models.SourceRenaiss)
	summary.Duration = time.Since(summary.StartedAt)
	metrics.RefreshDuration.Observe(summary.Duration.Seconds())
	if err != nil {
		metrics.RefreshRunsTotal.WithLabelValues("store_failed").Inc()
		return summary, err
	}
	summary.CardsProcessed = processed
	summary.Rejected = len(cards) - processed

	if processed > 0 {
		s.cache.Purge()
	}

	if summary.FetchFailed {
		metrics.RefreshRunsTotal.WithLabelValues("fetch_failed").Inc()
	} else {
		metrics.RefreshRunsTotal.WithLabelValues("success").Inc()
	}
	metrics.CardsProcessedTotal.Add(float64(processed))

	if count, err := s.store.CountCards(ctx); err == nil {
		metrics.CardDatabaseSize.Set(float64(count))
	}

	log.Printf("Card refresh: database updated with %d cards (%d pages, %d skipped, %d rejected) in %v",
		processed, summary.Pages, summary.Skipped, summary.Rejected, summary.Duration.Round(time.Millisecond))
	return summary, nil
}

// GetCardInfoByName returns price info for the first card whose name contains name
func (s *CardInfoService) GetCardInfoByName(ctx context.Context, name string) (*models.CardInfo, error) {
	query := strings.TrimSpace(name)
	if query == "" {
		return nil, ErrCardNotFound
	}

	key := strings.ToLower(query)
	if info, ok := s.cache.Get(key); ok {
		metrics.CardCacheHits.Inc()
		return &info, nil
	}
	metrics.CardCacheMisses.Inc()

	log.Printf("Card lookup: querying database for card %q", query)
	info, err := s.store.FindCardByName(ctx, query)
	if err != nil {
		if errors.Is(err, ErrCardNotFound) {
			log.Printf("Card lookup: card %q not found in database", query)
		}
		return nil, err
	}

	s.cache.Add(key, *info)
	return info, nil
}
