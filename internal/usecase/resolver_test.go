package usecase

import (
	"context"
	"testing"

	"StockMind/internal/domain/models"
	"StockMind/pkg/cache"
)

func TestResolveEmptyQuerySkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	r := NewResolver(newFakeStore(), provider, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "   ", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Candidates) != 0 || res.Canonical != "" {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if provider.searchCalls != 0 {
		t.Fatalf("provider must not be called for empty query, calls=%d", provider.searchCalls)
	}
}

func TestResolveProviderFirstForAmbiguousQuery(t *testing.T) {
	store := newFakeStore()
	store.searchHits = []models.Symbol{
		{Ticker: "AAPL", Name: "Apple Inc.", Exchange: "NASDAQ"},
	}
	provider := &fakeProvider{
		candidates: []models.SymbolCandidate{
			{Symbol: "AAPL.L", Name: "Apple Inc.", Kind: "EQUITY", Score: 0.5, Source: "provider"},
		},
	}
	r := NewResolver(store, provider, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "AAPL", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Provider answered, so the local registry never supplements.
	if len(res.Candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %+v", res.Candidates)
	}
	c := res.Candidates[0]
	if c.Symbol != "AAPL.L" {
		t.Fatalf("candidate = %+v", c)
	}
	if c.Score < 0.79 || c.Score > 0.81 {
		t.Fatalf("qualified provider hit score = %v, want 0.8", c.Score)
	}
	if res.Canonical != "AAPL.L" {
		t.Fatalf("canonical = %s, want AAPL.L", res.Canonical)
	}
}

func TestResolveQualifiedQueryUsesRegistry(t *testing.T) {
	store := newFakeStore()
	store.symbols["BP.L"] = &models.Symbol{
		Ticker: "BP.L", Name: "BP plc", Exchange: "LSE", Kind: "EQUITY", Active: true,
	}
	provider := &fakeProvider{
		candidates: []models.SymbolCandidate{
			{Symbol: "BP", Name: "BP plc", Kind: "EQUITY", Score: 0.9, Source: "provider"},
		},
	}
	r := NewResolver(store, provider, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "BP.L", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if provider.searchCalls != 0 {
		t.Fatalf("qualified query must skip the provider, calls=%d", provider.searchCalls)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected registry candidate, got %+v", res.Candidates)
	}
	c := res.Candidates[0]
	if c.Symbol != "BP.L" || c.Score != 1.0 || c.Source != "db" {
		t.Fatalf("registry candidate = %+v", c)
	}
}

func TestResolveScoreCapAndExchangeBoost(t *testing.T) {
	provider := &fakeProvider{
		candidates: []models.SymbolCandidate{
			{Symbol: "SAP.DE", Name: "SAP SE", Kind: "EQUITY", Score: 0.9, Source: "provider"},
			{Symbol: "SHOP", Name: "Shopify", Exchange: "NYSE", Kind: "EQUITY", Score: 0.5, Source: "provider"},
		},
	}
	r := NewResolver(newFakeStore(), provider, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "SA", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %+v", res.Candidates)
	}
	// Boost caps at 1.0 even when the base relevance is already high.
	if got := res.Candidates[0].Score; got != 1.0 {
		t.Fatalf("capped score = %v, want 1.0", got)
	}
	// A named exchange earns the boost without a qualified ticker.
	if got := res.Candidates[1].Score; got < 0.79 || got > 0.81 {
		t.Fatalf("exchange boosted score = %v, want 0.8", got)
	}
}

func TestResolveUnqualifiedProviderPenalty(t *testing.T) {
	provider := &fakeProvider{
		candidates: []models.SymbolCandidate{
			{Symbol: "MSFT", Name: "Microsoft", Kind: "EQUITY", Score: 1.0, Source: "provider"},
		},
	}
	r := NewResolver(newFakeStore(), provider, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "MSFT", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := res.Candidates[0].Score; got < 0.69 || got > 0.71 {
		t.Fatalf("unqualified provider score = %v, want 0.7", got)
	}
	if res.Canonical != "MSFT" {
		t.Fatalf("canonical = %s, want MSFT", res.Canonical)
	}
}

func TestResolveFiltersUnresolvableKinds(t *testing.T) {
	provider := &fakeProvider{
		candidates: []models.SymbolCandidate{
			{Symbol: "BTC-USD", Name: "Bitcoin USD", Kind: "CRYPTOCURRENCY", Score: 0.9, Source: "provider"},
			{Symbol: "COIN", Name: "Coinbase", Kind: "EQUITY", Score: 0.6, Source: "provider"},
		},
	}
	r := NewResolver(newFakeStore(), provider, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "coin", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Candidates) != 1 || res.Candidates[0].Symbol != "COIN" {
		t.Fatalf("crypto must be filtered out, got %+v", res.Candidates)
	}
}

func TestResolveSyntheticFallback(t *testing.T) {
	r := NewResolver(newFakeStore(), &fakeProvider{}, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "zzzt", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Candidates) != 1 {
		t.Fatalf("expected synthetic candidate, got %+v", res.Candidates)
	}
	c := res.Candidates[0]
	if c.Symbol != "ZZZT" || c.Source != "synthetic" || c.Score != 0.5 || c.Kind != "EQUITY" {
		t.Fatalf("synthetic candidate = %+v", c)
	}
	if res.Canonical != "ZZZT" {
		t.Fatalf("canonical = %s", res.Canonical)
	}
}

func TestResolveSyntheticForProse(t *testing.T) {
	r := NewResolver(newFakeStore(), &fakeProvider{}, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "tesla motors", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	// Any ambiguous query that matched nothing gets the synthetic form.
	if len(res.Candidates) != 1 || res.Candidates[0].Symbol != "TESLA MOTORS" {
		t.Fatalf("expected synthetic for prose query, got %+v", res.Candidates)
	}
}

func TestResolveNoSyntheticForQualifiedQuery(t *testing.T) {
	r := NewResolver(newFakeStore(), &fakeProvider{}, nil, noopMetrics{}, newTestLogger(t))

	res, err := r.Resolve(context.Background(), "ZZZT.XX", 10)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Candidates) != 0 {
		t.Fatalf("qualified miss must stay unresolved, got %+v", res.Candidates)
	}
}

func TestResolveCachesEmptyResult(t *testing.T) {
	store := newFakeStore()
	c := cache.NewMemoryCache()
	r := NewResolver(store, &fakeProvider{}, c, noopMetrics{}, newTestLogger(t))

	for i := 0; i < 2; i++ {
		res, err := r.Resolve(context.Background(), "ZZZT.XX", 10)
		if err != nil {
			t.Fatalf("resolve %d: %v", i, err)
		}
		if len(res.Candidates) != 0 {
			t.Fatalf("expected empty result, got %+v", res.Candidates)
		}
	}
	if store.searchCalls != 1 {
		t.Fatalf("empty result must be served from cache, registry searches=%d", store.searchCalls)
	}
}

func TestResolveCataloguesCanonical(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{
		candidates: []models.SymbolCandidate{
			{Symbol: "AAPL.L", Name: "Apple Inc.", Exchange: "LSE", Kind: "EQUITY", Score: 0.5, Source: "provider"},
		},
	}
	r := NewResolver(store, provider, nil, noopMetrics{}, newTestLogger(t))

	if _, err := r.Resolve(context.Background(), "apple", 10); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	sym, ok := store.symbols["AAPL.L"]
	if !ok {
		t.Fatalf("canonical pick was not catalogued")
	}
	if !sym.Active || sym.Kind != "EQUITY" || sym.Exchange != "LSE" {
		t.Fatalf("catalogued symbol = %+v", sym)
	}
}
