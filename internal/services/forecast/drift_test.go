package forecast

import (
	"errors"
	"math"
	"testing"
	"time"
)

var testHorizons = []Horizon{
	{Name: "short", Days: 7},
	{Name: "medium", Days: 30},
	{Name: "long", Days: 90},
}

func closesRising(n int, start, dailyFactor float64) []float64 {
	out := make([]float64, n)
	p := start
	for i := range out {
		out[i] = p
		p *= dailyFactor
	}
	return out
}

func TestForecastRejectsShortHistory(t *testing.T) {
	f := New(testHorizons)
	_, err := f.Forecast("AAPL", closesRising(9, 100, 1.01), time.Now())
	if !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestForecastDeterministic(t *testing.T) {
	f := New(testHorizons)
	closes := closesRising(40, 100, 1.005)
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	a, err := f.Forecast("AAPL", closes, now)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	b, err := f.Forecast("AAPL", closes, now)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	for i := range a.Horizons {
		if a.Horizons[i].Price != b.Horizons[i].Price {
			t.Fatalf("horizon %d differs: %v vs %v", i, a.Horizons[i].Price, b.Horizons[i].Price)
		}
	}
	if a.BullishScore != b.BullishScore || a.Volatility != b.Volatility {
		t.Fatalf("runs differ: %+v vs %+v", a, b)
	}
}

func TestForecastUptrend(t *testing.T) {
	f := New(testHorizons)
	closes := closesRising(40, 100, 1.01)

	fc, err := f.Forecast("AAPL", closes, time.Now())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	for _, h := range fc.Horizons {
		if h.ChangePercent <= 0 {
			t.Fatalf("horizon %s should project up, got %v", h.Name, h.ChangePercent)
		}
		if h.Trend != "Uptrend" {
			t.Fatalf("horizon %s trend = %s", h.Name, h.Trend)
		}
	}
	if fc.BullishScore != 100 {
		t.Fatalf("bullish score = %v, want 100", fc.BullishScore)
	}
	if fc.Sentiment != "Bullish" {
		t.Fatalf("sentiment = %s", fc.Sentiment)
	}

	// A clean geometric series has zero volatility.
	if fc.Confidence != "high" || fc.Risk != "low" {
		t.Fatalf("confidence/risk = %s/%s", fc.Confidence, fc.Risk)
	}
}

func TestForecastUsesRecentWindow(t *testing.T) {
	f := New(testHorizons)

	// A long decline followed by sixty rising sessions. The drift must
	// come from the recent window, not the whole series.
	closes := make([]float64, 0, 250)
	p := 500.0
	for i := 0; i < 190; i++ {
		closes = append(closes, p)
		p *= 0.99
	}
	for i := 0; i < 60; i++ {
		p *= 1.005
		closes = append(closes, p)
	}

	fc, err := f.Forecast("TURN", closes, time.Now())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for _, h := range fc.Horizons {
		if h.ChangePercent <= 0 {
			t.Fatalf("recent rally must project up, horizon %s = %v", h.Name, h.ChangePercent)
		}
		if h.Trend != "Uptrend" {
			t.Fatalf("horizon %s trend = %s, want Uptrend", h.Name, h.Trend)
		}
	}
	if fc.Sentiment != "Bullish" {
		t.Fatalf("sentiment = %s, want Bullish", fc.Sentiment)
	}
}

func TestForecastFlatCorrection(t *testing.T) {
	f := New(testHorizons)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}

	fc, err := f.Forecast("FLAT", closes, time.Now())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	// Zero drift collapses every horizon into the flat band; the
	// correction spreads them by the floored drift step.
	for i, h := range fc.Horizons {
		want := driftFloorPct * float64(i+1)
		if math.Abs(h.ChangePercent-want) > 1e-9 {
			t.Fatalf("horizon %s change = %v, want %v", h.Name, h.ChangePercent, want)
		}
	}

	// 0.15 sits inside the trend band, 0.45 is out of it.
	if fc.Horizons[0].Trend != "Sideways" {
		t.Fatalf("short horizon trend = %s, want Sideways", fc.Horizons[0].Trend)
	}
	if fc.Horizons[2].Trend != "Uptrend" {
		t.Fatalf("long horizon trend = %s, want Uptrend", fc.Horizons[2].Trend)
	}
}

func TestForecastFlatCorrectionFollowsMomentum(t *testing.T) {
	f := New(testHorizons)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	// Tiny dip at the end keeps returns inside the flat band but flips
	// five session momentum negative.
	closes[len(closes)-1] = 99.99

	fc, err := f.Forecast("DIP", closes, time.Now())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for _, h := range fc.Horizons {
		if h.ChangePercent >= 0 {
			t.Fatalf("negative momentum must project down, horizon %s = %v", h.Name, h.ChangePercent)
		}
	}
	if fc.Sentiment != "Bearish" {
		t.Fatalf("sentiment = %s, want Bearish", fc.Sentiment)
	}
}
