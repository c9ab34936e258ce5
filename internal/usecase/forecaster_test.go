package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	domrepo "StockMind/internal/domain/repository"
	"StockMind/internal/services/forecast"
)

func newTestForecastService(t *testing.T, store *fakeStore, results *fakeResults, pub *fakePublisher) *ForecastService {
	t.Helper()
	fc := forecast.New([]forecast.Horizon{
		{Name: "short", Days: 7},
		{Name: "medium", Days: 30},
		{Name: "long", Days: 90},
	})
	runner := NewBatchRunner(2, time.Second, noopMetrics{}, newTestLogger(t))
	// A nil *fakePublisher must stay a nil interface inside the service.
	var p domrepo.Publisher
	if pub != nil {
		p = pub
	}
	return NewForecastService(store, results, p, fc, 60, runner, newTestLogger(t))
}

func TestForecastSymbolPersistsAndPublishes(t *testing.T) {
	store := newFakeStore()
	closes, volumes := barsOfLength("AAPL", 80)
	store.bars["AAPL"] = testBars("AAPL", closes, volumes)
	results := newFakeResults()
	pub := &fakePublisher{}

	svc := newTestForecastService(t, store, results, pub)

	f, err := svc.ForecastSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if f.Symbol != "AAPL" || len(f.Horizons) != 3 {
		t.Fatalf("unexpected forecast %+v", f)
	}
	if _, ok := results.forecasts["AAPL"]; !ok {
		t.Fatal("forecast not persisted")
	}
	if pub.forecasts != 1 {
		t.Fatalf("expected 1 published forecast, got %d", pub.forecasts)
	}
}

func TestForecastSymbolSkipsBelowMinBars(t *testing.T) {
	store := newFakeStore()
	closes, volumes := barsOfLength("NEW", 59)
	store.bars["NEW"] = testBars("NEW", closes, volumes)

	svc := newTestForecastService(t, store, newFakeResults(), nil)

	_, err := svc.ForecastSymbol(context.Background(), "NEW")
	if !errors.Is(err, ErrSkipUnit) {
		t.Fatalf("below min bars should skip, got %v", err)
	}
}
