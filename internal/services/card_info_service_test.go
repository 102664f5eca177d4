package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/codyseavey/renaiss-bot/internal/models"
)

// fakeSource serves canned pages. A page index listed in failAt returns a FetchError.
type fakeSource struct {
	pages   [][]models.NormalizedCard
	failAt  map[int]bool
	offsets []int
}

func (f *fakeSource) FetchListings(ctx context.Context, limit, offset int) (ListingPage, error) {
	idx := len(f.offsets)
	f.offsets = append(f.offsets, offset)
	if f.failAt[idx] {
		return ListingPage{}, &FetchError{Op: "list collectibles", Err: errors.New("connection refused")}
	}
	if idx >= len(f.pages) {
		return ListingPage{Cards: []models.NormalizedCard{}}, nil
	}
	return ListingPage{Cards: f.pages[idx], RawCount: len(f.pages[idx])}, nil
}

func cardsNamed(prefix string, n int) []models.NormalizedCard {
	cards := make([]models.NormalizedCard, n)
	for i := range cards {
		id := fmt.Sprintf("%s-%d", prefix, i)
		cards[i] = testCard(id, "Card "+id, "1", "2")
	}
	return cards
}

func TestRefreshAllCardsPaginates(t *testing.T) {
	store := newTestStore(t)
	source := &fakeSource{pages: [][]models.NormalizedCard{
		cardsNamed("p0", 2),
		cardsNamed("p1", 2),
		cardsNamed("p2", 1),
	}}
	svc := NewCardInfoService(source, store, CardInfoOptions{PageSize: 2, MaxPages: 10})

	summary, err := svc.RefreshAllCards(context.Background())
	if err != nil {
		t.Fatalf("RefreshAllCards failed: %v", err)
	}

	wantOffsets := []int{0, 2, 4}
	if fmt.Sprint(source.offsets) != fmt.Sprint(wantOffsets) {
		t.Errorf("Expected offsets %v, got %v", wantOffsets, source.offsets)
	}
	if summary.Pages != 3 || summary.CardsProcessed != 5 || summary.FetchFailed {
		t.Errorf("Unexpected summary: %+v", summary)
	}
	if count, _ := store.CountCards(context.Background()); count != 5 {
		t.Errorf("Expected 5 stored cards, got %d", count)
	}
}

func TestRefreshAllCardsRespectsPageCap(t *testing.T) {
	store := newTestStore(t)
	source := &fakeSource{pages: [][]models.NormalizedCard{
		cardsNamed("p0", 1),
		cardsNamed("p1", 1),
		cardsNamed("p2", 1),
	}}
	svc := NewCardInfoService(source, store, CardInfoOptions{PageSize: 1, MaxPages: 2})

	summary, err := svc.RefreshAllCards(context.Background())
	if err != nil {
		t.Fatalf("RefreshAllCards failed: %v", err)
	}
	if len(source.offsets) != 2 || summary.CardsProcessed != 2 {
		t.Errorf("Expected 2 pages and 2 cards, got offsets %v summary %+v", source.offsets, summary)
	}
}

func TestRefreshAllCardsFetchFailureKeepsData(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCards(t, store, testCard("r1", "Charizard ex", "1", "150"))

	source := &fakeSource{failAt: map[int]bool{0: true}}
	svc := NewCardInfoService(source, store, CardInfoOptions{})

	summary, err := svc.RefreshAllCards(ctx)
	if err != nil {
		t.Fatalf("Fetch failure should not be returned, got %v", err)
	}
	if !summary.FetchFailed || summary.CardsProcessed != 0 {
		t.Errorf("Unexpected summary: %+v", summary)
	}

	info, err := svc.GetCardInfoByName(ctx, "charizard")
	if err != nil {
		t.Fatalf("Existing card should survive a failed refresh: %v", err)
	}
	if !info.FMVPrice.Decimal.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Stored price changed: %v", info.FMVPrice)
	}
}

func TestRefreshAllCardsLaterPageFailure(t *testing.T) {
	store := newTestStore(t)
	source := &fakeSource{
		pages:  [][]models.NormalizedCard{cardsNamed("p0", 2), cardsNamed("p1", 2)},
		failAt: map[int]bool{1: true},
	}
	svc := NewCardInfoService(source, store, CardInfoOptions{PageSize: 2, MaxPages: 5})

	summary, err := svc.RefreshAllCards(context.Background())
	if err != nil {
		t.Fatalf("RefreshAllCards failed: %v", err)
	}
	if !summary.FetchFailed || summary.CardsProcessed != 2 {
		t.Errorf("Expected first page kept with fetch failure flagged, got %+v", summary)
	}
}

func TestGetCardInfoByNameCacheInvalidatedByRefresh(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := testCard("r1", "Charizard ex", "1", "150")
	source := &fakeSource{pages: [][]models.NormalizedCard{{first}}}
	svc := NewCardInfoService(source, store, CardInfoOptions{CacheTTL: time.Hour})

	if _, err := svc.RefreshAllCards(ctx); err != nil {
		t.Fatalf("RefreshAllCards failed: %v", err)
	}
	info, err := svc.GetCardInfoByName(ctx, "Charizard")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !info.AskPrice.Decimal.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("Unexpected ask %v", info.AskPrice)
	}

	updated := first
	updated.AskPrice = price("3")
	source.pages = [][]models.NormalizedCard{{updated}}
	source.offsets = nil
	if _, err := svc.RefreshAllCards(ctx); err != nil {
		t.Fatalf("Second refresh failed: %v", err)
	}

	info, err = svc.GetCardInfoByName(ctx, "charizard")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if !info.AskPrice.Decimal.Equal(decimal.NewFromInt(3)) {
		t.Errorf("Expected refreshed ask 3, got %v", info.AskPrice)
	}
}

func TestGetCardInfoByNameNotFound(t *testing.T) {
	svc := NewCardInfoService(&fakeSource{}, newTestStore(t), CardInfoOptions{})

	for _, name := range []string{"", "   ", "mewtwo"} {
		if _, err := svc.GetCardInfoByName(context.Background(), name); !errors.Is(err, ErrCardNotFound) {
			t.Errorf("GetCardInfoByName(%q) expected ErrCardNotFound, got %v", name, err)
		}
	}
}

func TestSuggest(t *testing.T) {
	store := newTestStore(t)
	seedCards(t, store,
		testCard("a", "Charizard ex", "1", "2"),
		testCard("b", "Pikachu", "1", "2"),
		testCard("c", "Blastoise", "1", "2"),
	)
	svc := NewCardInfoService(&fakeSource{}, store, CardInfoOptions{})
	ctx := context.Background()

	got, err := svc.Suggest(ctx, "chrzd", 5)
	if err != nil {
		t.Fatalf("Suggest failed: %v", err)
	}
	if len(got) == 0 || got[0] != "Charizard ex" {
		t.Errorf("Expected Charizard ex first, got %v", got)
	}

	got, _ = svc.Suggest(ctx, "PIKA", 5)
	if len(got) != 1 || got[0] != "Pikachu" {
		t.Errorf("Expected case-insensitive match on Pikachu, got %v", got)
	}

	got, _ = svc.Suggest(ctx, "  ", 5)
	if got == nil || len(got) != 0 {
		t.Errorf("Blank query should give empty suggestions, got %v", got)
	}
}
