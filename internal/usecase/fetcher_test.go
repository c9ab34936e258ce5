package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
	pkgcache "StockMind/pkg/cache"
)

func testQuote(symbol string, price float64) *models.Quote {
	p := decimal.NewFromFloat(price)
	return &models.Quote{
		Symbol:        symbol,
		Price:         p,
		PreviousClose: p,
		Open:          p,
		DayHigh:       p,
		DayLow:        p,
		Volume:        1_000_000,
		Timestamp:     time.Date(2025, 6, 2, 15, 30, 0, 0, time.UTC),
	}
}

func TestGetQuoteCacheAside(t *testing.T) {
	provider := &fakeProvider{quote: testQuote("AAPL", 190.50)}
	store := newFakeStore()
	pub := &fakePublisher{}
	f := NewFetcher(provider, store, pkgcache.NewMemoryCache(), pub, noopMetrics{}, newTestLogger(t))

	ctx := context.Background()
	first, err := f.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("first get: %v", err)
	}
	second, err := f.GetQuote(ctx, "AAPL")
	if err != nil {
		t.Fatalf("second get: %v", err)
	}

	if provider.quoteCalls != 1 {
		t.Fatalf("second call must hit the cache, provider calls=%d", provider.quoteCalls)
	}
	if !first.Price.Equal(second.Price) || first.Symbol != second.Symbol {
		t.Fatalf("cached quote differs: %+v vs %+v", first, second)
	}
	if pub.quotes != 1 {
		t.Fatalf("cache hits must not republish, published=%d", pub.quotes)
	}
}

func TestRefreshQuoteBypassesCache(t *testing.T) {
	provider := &fakeProvider{quote: testQuote("AAPL", 190.50)}
	store := newFakeStore()
	f := NewFetcher(provider, store, pkgcache.NewMemoryCache(), nil, noopMetrics{}, newTestLogger(t))

	ctx := context.Background()
	if _, err := f.GetQuote(ctx, "AAPL"); err != nil {
		t.Fatalf("warm up: %v", err)
	}
	if _, err := f.RefreshQuote(ctx, "AAPL"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if provider.quoteCalls != 2 {
		t.Fatalf("refresh must always hit the provider, calls=%d", provider.quoteCalls)
	}

	bars := store.bars["AAPL"]
	if len(bars) != 1 {
		t.Fatalf("refresh must upsert the session bar, got %d bars", len(bars))
	}
	want := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	if !bars[0].Ts.Equal(want) {
		t.Fatalf("session bar ts = %v, want %v", bars[0].Ts, want)
	}
	if !bars[0].Close.Equal(decimal.NewFromFloat(190.50)) {
		t.Fatalf("session bar close = %s", bars[0].Close)
	}
}

func TestRefreshQuoteCataloguesNewSymbol(t *testing.T) {
	provider := &fakeProvider{quote: testQuote("AAPL", 190.50)}
	store := newFakeStore()
	f := NewFetcher(provider, store, nil, nil, noopMetrics{}, newTestLogger(t))

	if _, err := f.RefreshQuote(context.Background(), "AAPL"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	sym, ok := store.symbols["AAPL"]
	if !ok {
		t.Fatal("first fetch must register the symbol")
	}
	if !sym.Active || sym.Kind != "EQUITY" {
		t.Fatalf("registered symbol = %+v", sym)
	}

	// An already registered symbol is left alone.
	sym.Name = "Apple Inc."
	if _, err := f.RefreshQuote(context.Background(), "AAPL"); err != nil {
		t.Fatalf("second refresh: %v", err)
	}
	if store.symbols["AAPL"].Name != "Apple Inc." {
		t.Fatalf("existing registry row was overwritten: %+v", store.symbols["AAPL"])
	}
}

func TestStoredBarsWindow(t *testing.T) {
	store := newFakeStore()
	store.bars["AAPL"] = testBars("AAPL", []float64{1, 2, 3, 4, 5}, []int64{1, 1, 1, 1, 1})
	f := NewFetcher(&fakeProvider{}, store, nil, nil, noopMetrics{}, newTestLogger(t))

	bars, err := f.StoredBars(context.Background(), "AAPL", 3)
	if err != nil {
		t.Fatalf("stored bars: %v", err)
	}
	if len(bars) != 3 {
		t.Fatalf("expected 3 bars, got %d", len(bars))
	}
	if !bars[2].Close.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("window must keep the latest bars, last close %s", bars[2].Close)
	}
}
