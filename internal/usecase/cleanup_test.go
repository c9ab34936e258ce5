package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
)

func newTestCleanup(t *testing.T, store *fakeStore, provider *fakeProvider) *CleanupService {
	t.Helper()
	runner := NewBatchRunner(2, time.Second, noopMetrics{}, newTestLogger(t))
	return NewCleanupService(store, provider, nil, runner, newTestLogger(t))
}

func TestCleanupDeactivatesOnNotFound(t *testing.T) {
	store := newFakeStore()
	store.symbols["DEAD"] = &models.Symbol{Ticker: "DEAD", Active: true}
	provider := &fakeProvider{quoteErr: fmt.Errorf("quote AAPL: %w", domrepo.ErrNotFound)}
	svc := newTestCleanup(t, store, provider)

	if err := svc.CheckSymbol(context.Background(), "DEAD"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != "DEAD" {
		t.Fatalf("expected DEAD deactivated, got %v", store.deactivated)
	}
}

func TestCleanupKeepsLiveSymbol(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{quote: testQuote("AAPL", 190.50)}
	svc := newTestCleanup(t, store, provider)

	if err := svc.CheckSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(store.deactivated) != 0 {
		t.Fatalf("live symbol must stay active, got %v", store.deactivated)
	}
}

func TestCleanupKeepsSymbolWithFreshBars(t *testing.T) {
	store := newFakeStore()
	store.bars["AAPL"] = testBars("AAPL", []float64{150, 151, 152}, []int64{100, 100, 100})
	last := len(store.bars["AAPL"]) - 1
	store.bars["AAPL"][last].Ts = time.Now().UTC().Add(-24 * time.Hour)
	provider := &fakeProvider{quote: testQuote("AAPL", 190.50)}
	svc := newTestCleanup(t, store, provider)

	if err := svc.CheckSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(store.deactivated) != 0 {
		t.Fatalf("fresh history must stay active, got %v", store.deactivated)
	}
}

func TestCleanupDeactivatesStaleHistory(t *testing.T) {
	store := newFakeStore()
	store.symbols["OLD"] = &models.Symbol{Ticker: "OLD", Active: true}
	bars := testBars("OLD", []float64{150, 151, 152}, []int64{100, 100, 100})
	for i := range bars {
		bars[i].Ts = time.Now().UTC().AddDate(0, 0, -30+i)
	}
	store.bars["OLD"] = bars
	provider := &fakeProvider{quote: testQuote("OLD", 10)}
	svc := newTestCleanup(t, store, provider)

	if err := svc.CheckSymbol(context.Background(), "OLD"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != "OLD" {
		t.Fatalf("stale history must deactivate, got %v", store.deactivated)
	}
}

func TestCleanupSkipsOnTimeout(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{quoteErr: context.DeadlineExceeded}
	svc := newTestCleanup(t, store, provider)

	err := svc.CheckSymbol(context.Background(), "AAPL")
	if !errors.Is(err, ErrSkipUnit) {
		t.Fatalf("timeout must be inconclusive, got %v", err)
	}
	if len(store.deactivated) != 0 {
		t.Fatalf("inconclusive probe must not deactivate, got %v", store.deactivated)
	}
}

func TestCleanupFailsOnOtherErrors(t *testing.T) {
	store := newFakeStore()
	provider := &fakeProvider{quoteErr: errors.New("http 500")}
	svc := newTestCleanup(t, store, provider)

	err := svc.CheckSymbol(context.Background(), "AAPL")
	if err == nil || errors.Is(err, ErrSkipUnit) {
		t.Fatalf("server errors should fail the unit, got %v", err)
	}
	if len(store.deactivated) != 0 {
		t.Fatalf("failure must not deactivate, got %v", store.deactivated)
	}
}
