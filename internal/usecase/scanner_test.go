package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
)

func testBars(symbol string, closes []float64, volumes []int64) []models.Bar {
	t0 := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		bars[i] = models.Bar{
			Symbol: symbol,
			Ts:     t0.AddDate(0, 0, i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: volumes[i],
		}
	}
	return bars
}

func newTestScanner(t *testing.T, store *fakeStore, results *fakeResults, pub *fakePublisher) *Scanner {
	t.Helper()
	runner := NewBatchRunner(2, time.Second, noopMetrics{}, newTestLogger(t))
	cfg := ScannerConfig{
		GainerThreshold:    2.0,
		LoserThreshold:     -2.0,
		UnusualVolumeRatio: 2.0,
		BreakoutThreshold:  5.0,
		AvgVolumeSessions:  20,
	}
	// A nil *fakePublisher must stay a nil interface inside the scanner.
	var p domrepo.Publisher
	if pub != nil {
		p = pub
	}
	return NewScanner(store, results, p, runner, cfg, newTestLogger(t))
}

func TestScannerGainerRow(t *testing.T) {
	store := newFakeStore()
	store.bars["AAPL"] = testBars("AAPL", []float64{150.00, 153.00}, []int64{1_000_000, 2_500_000})

	results := newFakeResults()
	pub := &fakePublisher{}
	sc := newTestScanner(t, store, results, pub)

	report, rows, err := sc.Scan(context.Background(), "daily", []string{"AAPL"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Ok != 1 {
		t.Fatalf("expected 1 ok, got %+v", report)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}

	row := rows[0]
	if !row.Change.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("change = %s, want 3", row.Change)
	}
	if !row.ChangePercent.Equal(decimal.NewFromInt(2)) {
		t.Fatalf("change pct = %s, want 2", row.ChangePercent)
	}
	if !row.IsGainer {
		t.Fatal("expected gainer flag")
	}
	if row.IsBreakout {
		t.Fatal("2% move is not a breakout")
	}
	if row.VolumeRatio != 2.5 {
		t.Fatalf("volume ratio = %v, want 2.5", row.VolumeRatio)
	}
	if !row.IsUnusualVolume {
		t.Fatal("expected unusual volume flag")
	}
	if row.Sentiment != "Bullish" {
		t.Fatalf("sentiment = %s, want Bullish", row.Sentiment)
	}
	if row.Timeframe != "daily" {
		t.Fatalf("timeframe = %s, want daily", row.Timeframe)
	}

	if len(results.scans) != 1 {
		t.Fatalf("expected persisted scan rows, got %d", len(results.scans))
	}
	if pub.scans != 1 {
		t.Fatalf("expected 1 published scan event, got %d", pub.scans)
	}
}

func TestScannerThresholdsInclusive(t *testing.T) {
	store := newFakeStore()
	// Exactly -2.00 percent.
	store.bars["XYZ"] = testBars("XYZ", []float64{100.00, 98.00}, []int64{1_000_000, 1_000_000})

	sc := newTestScanner(t, store, newFakeResults(), nil)

	_, rows, err := sc.Scan(context.Background(), "daily", []string{"XYZ"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if !rows[0].IsLoser {
		t.Fatal("-2.00% must count as loser")
	}
	if rows[0].Sentiment != "Bearish" {
		t.Fatalf("sentiment = %s, want Bearish", rows[0].Sentiment)
	}
}

func TestScannerSentimentTracksSignOfMove(t *testing.T) {
	store := newFakeStore()
	// +1% up, -1% down, unchanged: all inside the gainer and loser
	// thresholds, sentiment still follows the sign.
	store.bars["UP"] = testBars("UP", []float64{100.00, 101.00}, []int64{1000, 1000})
	store.bars["DN"] = testBars("DN", []float64{100.00, 99.00}, []int64{1000, 1000})
	store.bars["EQ"] = testBars("EQ", []float64{100.00, 100.00}, []int64{1000, 1000})

	sc := newTestScanner(t, store, newFakeResults(), nil)

	_, rows, err := sc.Scan(context.Background(), "daily", []string{"UP", "DN", "EQ"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := map[string]string{"UP": "Bullish", "DN": "Bearish", "EQ": "Neutral"}
	for _, row := range rows {
		if row.IsGainer || row.IsLoser {
			t.Fatalf("1%% move must not trip threshold flags: %+v", row)
		}
		if row.Sentiment != want[row.Symbol] {
			t.Fatalf("%s sentiment = %s, want %s", row.Symbol, row.Sentiment, want[row.Symbol])
		}
	}
}

func TestScannerSkipsNonPositivePreviousClose(t *testing.T) {
	store := newFakeStore()
	store.bars["IPO"] = testBars("IPO", []float64{0.00, 25.00}, []int64{1000, 1000})

	sc := newTestScanner(t, store, newFakeResults(), nil)

	report, rows, err := sc.Scan(context.Background(), "daily", []string{"IPO"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Skipped != 1 || report.Ok != 0 {
		t.Fatalf("zero previous close must skip, got %+v", report)
	}
	if len(rows) != 0 {
		t.Fatalf("no row expected, got %+v", rows)
	}
}

func TestScannerSkipsThinHistory(t *testing.T) {
	store := newFakeStore()
	store.bars["NEW"] = testBars("NEW", []float64{10.00}, []int64{1000})
	store.bars["OLD"] = testBars("OLD", []float64{10.00, 10.10}, []int64{1000, 1000})

	sc := newTestScanner(t, store, newFakeResults(), nil)

	report, rows, err := sc.Scan(context.Background(), "daily", []string{"NEW", "OLD"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if report.Skipped != 1 || report.Ok != 1 {
		t.Fatalf("expected 1 skipped and 1 ok, got %+v", report)
	}
	if len(rows) != 1 || rows[0].Symbol != "OLD" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestScannerSharedRunTimestamp(t *testing.T) {
	store := newFakeStore()
	store.bars["A"] = testBars("A", []float64{50, 51}, []int64{100, 100})
	store.bars["B"] = testBars("B", []float64{80, 79}, []int64{100, 100})

	sc := newTestScanner(t, store, newFakeResults(), nil)

	_, rows, err := sc.Scan(context.Background(), "daily", []string{"A", "B"})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].RunAt.Equal(rows[1].RunAt) {
		t.Fatalf("rows of one run must share run_at: %v vs %v", rows[0].RunAt, rows[1].RunAt)
	}
	if rows[0].RunAt.Nanosecond() != 0 {
		t.Fatalf("run_at should be second precision, got %v", rows[0].RunAt)
	}
}
