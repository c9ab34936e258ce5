package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockMind/internal/services/indicators"
)

func newTestIndicatorService(t *testing.T, store *fakeStore, results *fakeResults) *IndicatorService {
	t.Helper()
	runner := NewBatchRunner(2, time.Second, noopMetrics{}, newTestLogger(t))
	return NewIndicatorService(store, results, indicators.NewPortableBackend(), nil, runner, newTestLogger(t))
}

func barsOfLength(symbol string, n int) ([]float64, []int64) {
	closes := make([]float64, n)
	volumes := make([]int64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
		volumes[i] = 1000
	}
	return closes, volumes
}

func TestComputeSymbolPersistsSnapshot(t *testing.T) {
	store := newFakeStore()
	closes, volumes := barsOfLength("AAPL", 80)
	store.bars["AAPL"] = testBars("AAPL", closes, volumes)
	results := newFakeResults()

	svc := newTestIndicatorService(t, store, results)

	snap, err := svc.ComputeSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.Symbol != "AAPL" || snap.SMA20 == nil {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if _, ok := results.snapshots["AAPL"]; !ok {
		t.Fatal("snapshot not persisted")
	}

	got, err := svc.Latest(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if got.Symbol != "AAPL" {
		t.Fatalf("latest returned %+v", got)
	}
}

func TestComputeSymbolSkipsThinHistory(t *testing.T) {
	store := newFakeStore()
	closes, volumes := barsOfLength("NEW", indicators.MinBars-1)
	store.bars["NEW"] = testBars("NEW", closes, volumes)

	svc := newTestIndicatorService(t, store, newFakeResults())

	_, err := svc.ComputeSymbol(context.Background(), "NEW")
	if !errors.Is(err, ErrSkipUnit) {
		t.Fatalf("thin history should skip, got %v", err)
	}
}

func TestIndicatorRunAllCountsOutcomes(t *testing.T) {
	store := newFakeStore()
	closes, volumes := barsOfLength("AAPL", 80)
	store.bars["AAPL"] = testBars("AAPL", closes, volumes)
	thin, thinVol := barsOfLength("NEW", 5)
	store.bars["NEW"] = testBars("NEW", thin, thinVol)

	svc := newTestIndicatorService(t, store, newFakeResults())

	report := svc.RunAll(context.Background(), []string{"AAPL", "NEW"})
	if report.Ok != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
}
