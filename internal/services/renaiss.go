package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/codyseavey/renaiss-bot/internal/metrics"
	"github.com/codyseavey/renaiss-bot/internal/models"
)

const (
	renaissDefaultTimeout = 15 * time.Second
	// collectible.list responses for a full page are a few MB at most
	renaissMaxBodyBytes = 32 << 20
)

// ListingPage is one normalized page of market listings
type ListingPage struct {
	Cards []models.NormalizedCard
	// RawCount is the number of records the source returned, including skipped ones
	RawCount int
}

// ListingSource supplies pages of market listings to the refresh pipeline
type ListingSource interface {
	FetchListings(ctx context.Context, limit, offset int) (ListingPage, error)
}

// RenaissService handles API calls to the Renaiss marketplace
type RenaissService struct {
	client  *http.Client
	apiURL  string
	baseURL string
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]

	// maxBodyBytes caps a response body; larger bodies are fetch errors
	maxBodyBytes int64
}

// NewRenaissService creates a new Renaiss API client
func NewRenaissService(apiURL, baseURL string, timeout time.Duration, requestsPerMinute int) *RenaissService {
	if timeout <= 0 {
		timeout = renaissDefaultTimeout
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 30
	}

	burst := requestsPerMinute / 10
	if burst < 1 {
		burst = 1
	}

	return &RenaissService{
		client: &http.Client{
			Timeout: timeout,
		},
		apiURL:  apiURL,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), burst),
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:        "renaiss-api",
			MaxRequests: 1,
			Timeout:     time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("Renaiss: circuit breaker %s changed from %s to %s", name, from, to)
			},
		}),
		maxBodyBytes: renaissMaxBodyBytes,
	}
}

// BaseURL returns the marketplace base used for canonical card links
func (s *RenaissService) BaseURL() string {
	return s.baseURL
}

// FetchListings fetches and normalizes one page of listed cards
func (s *RenaissService) FetchListings(ctx context.Context, limit, offset int) (ListingPage, error) {
	body, err := s.FetchListedPage(ctx, limit, offset)
	if err != nil {
		return ListingPage{}, err
	}
	return ListingPage{
		Cards:    NormalizeResponse(body, s.baseURL),
		RawCount: RawCollectionSize(body),
	}, nil
}

// GetAllListedCards fetches one page of listed cards. Any failure degrades to an empty result.
func (s *RenaissService) GetAllListedCards(ctx context.Context, limit, offset int) []models.NormalizedCard {
	page, err := s.FetchListings(ctx, limit, offset)
	if err != nil {
		log.Printf("Renaiss: error fetching data from API: %v", err)
		return []models.NormalizedCard{}
	}
	return page.Cards
}

// FetchListedPage returns the raw collectible.list response body for one page
func (s *RenaissService) FetchListedPage(ctx context.Context, limit, offset int) ([]byte, error) {
	reqURL, err := s.listURL(limit, offset)
	if err != nil {
		return nil, &FetchError{Op: "build request", Err: err}
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Op: "rate limit", Err: err}
	}

	log.Printf("Renaiss: fetching %d listed cards, offset %d", limit, offset)

	start := time.Now()
	body, err := s.breaker.Execute(func() ([]byte, error) {
		return s.get(ctx, reqURL)
	})
	metrics.MarketRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.MarketRequestsTotal.WithLabelValues("error").Inc()
		return nil, &FetchError{Op: "list collectibles", Err: err}
	}

	metrics.MarketRequestsTotal.WithLabelValues("success").Inc()
	return body, nil
}

func (s *RenaissService) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Renaiss API error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > s.maxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", s.maxBodyBytes)
	}
	return body, nil
}

// listURL encodes the tRPC batch input for collectible.list
func (s *RenaissService) listURL(limit, offset int) (string, error) {
	input := map[string]any{
		"0": map[string]any{
			"json": map[string]any{
				"limit":      limit,
				"offset":     offset,
				"listedOnly": true,
				"sortBy":     "listDate",
				"sortOrder":  "desc",
			},
		},
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("batch", "1")
	params.Set("input", string(encoded))
	return s.apiURL + "?" + params.Encode(), nil
}
