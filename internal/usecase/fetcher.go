package usecase

import (
	"context"
	"errors"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	domservice "StockMind/internal/domain/service"
	"StockMind/pkg/cache"
	applogger "StockMind/pkg/logger"
)

const (
	quoteTTL    = time.Minute
	historyTTL  = time.Hour
	overviewTTL = 24 * time.Hour
)

// Fetcher is the cache-aside gateway to the market data provider. Fresh
// history lands in storage as an idempotent upsert; fresh quotes also go
// out on the events topic when a publisher is wired.
type Fetcher struct {
	provider  domservice.QuoteProvider
	store     domrepo.MarketStore
	cache     cache.Service
	publisher domrepo.Publisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewFetcher(provider domservice.QuoteProvider, store domrepo.MarketStore, c cache.Service,
	publisher domrepo.Publisher, metrics domrepo.Metrics, l *applogger.Logger) *Fetcher {
	return &Fetcher{provider: provider, store: store, cache: c, publisher: publisher, metrics: metrics, l: l}
}

// GetQuote returns the latest quote, cached for one minute.
func (f *Fetcher) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	key := cache.GenerateKey("quote", symbol)
	if f.cache != nil {
		var cached models.Quote
		if err := f.cache.Get(ctx, key, &cached); err == nil {
			f.metrics.RecordCacheLookup("quote", "hit")
			return &cached, nil
		}
		f.metrics.RecordCacheLookup("quote", "miss")
	}

	start := time.Now()
	q, err := f.provider.Quote(ctx, symbol)
	f.metrics.RecordLatency("provider_quote", time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordError("fetch_quote")
		return nil, err
	}
	f.metrics.RecordFetch("quote", symbol)

	price, _ := q.Price.Float64()
	f.metrics.RecordLastPrice(q.Symbol, price)

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, q, quoteTTL); err != nil {
			f.l.Warn("quote cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}

	if f.publisher != nil {
		if err := f.publisher.PublishQuote(ctx, q); err != nil {
			f.metrics.RecordError("publish_quote")
			f.l.Warn("quote publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return q, nil
}

// RefreshQuote forces a provider fetch, refreshes the cache and folds
// the quote into today's session bar. Scheduled quote work goes through
// here so the one minute cache never masks a tick.
func (f *Fetcher) RefreshQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	start := time.Now()
	q, err := f.provider.Quote(ctx, symbol)
	f.metrics.RecordLatency("provider_quote", time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordError("fetch_quote")
		return nil, err
	}
	f.metrics.RecordFetch("quote", symbol)
	f.catalogue(ctx, q.Symbol)

	price, _ := q.Price.Float64()
	f.metrics.RecordLastPrice(q.Symbol, price)

	if f.cache != nil {
		if err := f.cache.Set(ctx, cache.GenerateKey("quote", symbol), q, quoteTTL); err != nil {
			f.l.Warn("quote cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}

	bar := models.Bar{
		Symbol:    q.Symbol,
		Ts:        q.Timestamp.UTC().Truncate(24 * time.Hour),
		Open:      q.Open,
		High:      q.DayHigh,
		Low:       q.DayLow,
		Close:     q.Price,
		Volume:    q.Volume,
		UpdatedAt: time.Now().UTC(),
	}
	if err := f.store.UpsertBars(ctx, []models.Bar{bar}); err != nil {
		f.metrics.RecordError("store_bars")
		f.l.Error("session bar upsert failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	if f.publisher != nil {
		if err := f.publisher.PublishQuote(ctx, q); err != nil {
			f.metrics.RecordError("publish_quote")
			f.l.Warn("quote publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return q, nil
}

// GetHistory returns daily bars for a range, cached for an hour. Fresh
// provider data is upserted into the bars table before returning.
func (f *Fetcher) GetHistory(ctx context.Context, symbol string, rng domrepo.Range) ([]models.Bar, error) {
	key := cache.GenerateKeyWithParams("history", symbol, string(rng))
	if f.cache != nil {
		var cached []models.Bar
		if err := f.cache.Get(ctx, key, &cached); err == nil && len(cached) > 0 {
			f.metrics.RecordCacheLookup("history", "hit")
			return cached, nil
		}
		f.metrics.RecordCacheLookup("history", "miss")
	}

	start := time.Now()
	bars, err := f.provider.History(ctx, symbol, rng)
	f.metrics.RecordLatency("provider_history", time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordError("fetch_history")
		return nil, err
	}
	f.metrics.RecordFetch("history", symbol)

	if err := f.store.UpsertBars(ctx, bars); err != nil {
		// Storage trouble should not hide freshly fetched data.
		f.metrics.RecordError("store_bars")
		f.l.Error("bar upsert failed", applogger.String("symbol", symbol), applogger.Error(err))
	}

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, bars, historyTTL); err != nil {
			f.l.Warn("history cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return bars, nil
}

// GetOverview returns company fundamentals, cached for a day.
func (f *Fetcher) GetOverview(ctx context.Context, symbol string) (*models.Overview, error) {
	key := cache.GenerateKey("overview", symbol)
	if f.cache != nil {
		var cached models.Overview
		if err := f.cache.Get(ctx, key, &cached); err == nil {
			f.metrics.RecordCacheLookup("overview", "hit")
			return &cached, nil
		}
		f.metrics.RecordCacheLookup("overview", "miss")
	}

	start := time.Now()
	o, err := f.provider.Overview(ctx, symbol)
	f.metrics.RecordLatency("provider_overview", time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordError("fetch_overview")
		return nil, err
	}
	f.metrics.RecordFetch("overview", symbol)

	if f.cache != nil {
		if err := f.cache.Set(ctx, key, o, overviewTTL); err != nil {
			f.l.Warn("overview cache set failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return o, nil
}

// catalogue registers a symbol on its first successful fetch so cleanup
// and scheduled sweeps pick it up. Failures only warn, a refresh must
// not fail on registry trouble.
func (f *Fetcher) catalogue(ctx context.Context, symbol string) {
	if _, err := f.store.GetSymbol(ctx, symbol); !errors.Is(err, domrepo.ErrNotFound) {
		return
	}
	sym := &models.Symbol{Ticker: symbol, Name: symbol, Kind: "EQUITY", Active: true}
	if err := f.store.UpsertSymbol(ctx, sym); err != nil {
		f.l.Warn("symbol upsert failed", applogger.String("symbol", symbol), applogger.Error(err))
	}
}

// StoredBars reads the latest n persisted bars without touching the
// provider. Analysis tasks go through here so they work offline.
func (f *Fetcher) StoredBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	return f.store.GetBars(ctx, symbol, n)
}
