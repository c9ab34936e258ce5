package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
)

func tick(symbol string, price, volume float64, ts time.Time) *models.Tick {
	return &models.Tick{Symbol: symbol, Price: price, Volume: volume, Timestamp: ts}
}

func TestTickProcessorFoldsSessionBar(t *testing.T) {
	store := newFakeStore()
	proc := NewTickProcessor(store, noopMetrics{})
	ctx := context.Background()

	day := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	ticks := []*models.Tick{
		tick("AAPL", 190.00, 100, day.Add(14*time.Hour)),
		tick("AAPL", 192.50, 50, day.Add(15*time.Hour)),
		tick("AAPL", 189.25, 75, day.Add(16*time.Hour)),
	}
	for _, tk := range ticks {
		if err := proc.Process(ctx, tk); err != nil {
			t.Fatalf("process: %v", err)
		}
	}

	bars := store.bars["AAPL"]
	if len(bars) == 0 {
		t.Fatal("no bars upserted")
	}
	last := bars[len(bars)-1]

	if !last.Ts.Equal(day) {
		t.Fatalf("session ts = %v, want %v", last.Ts, day)
	}
	if !last.Open.Equal(decimal.NewFromFloat(190.00)) {
		t.Fatalf("open = %s, want first tick price", last.Open)
	}
	if !last.High.Equal(decimal.NewFromFloat(192.50)) {
		t.Fatalf("high = %s", last.High)
	}
	if !last.Low.Equal(decimal.NewFromFloat(189.25)) {
		t.Fatalf("low = %s", last.Low)
	}
	if !last.Close.Equal(decimal.NewFromFloat(189.25)) {
		t.Fatalf("close = %s, want latest tick price", last.Close)
	}
}

func TestTickProcessorStartsNewSession(t *testing.T) {
	store := newFakeStore()
	proc := NewTickProcessor(store, noopMetrics{})
	ctx := context.Background()

	day1 := time.Date(2025, 6, 2, 20, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)

	if err := proc.Process(ctx, tick("AAPL", 190.00, 100, day1)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := proc.Process(ctx, tick("AAPL", 10.00, 100, day2)); err != nil {
		t.Fatalf("process: %v", err)
	}

	last := store.bars["AAPL"][len(store.bars["AAPL"])-1]
	if !last.Ts.Equal(time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("session not rolled over, ts = %v", last.Ts)
	}
	if !last.Open.Equal(decimal.NewFromFloat(10.00)) {
		t.Fatalf("new session must reopen at new price, open = %s", last.Open)
	}
}
