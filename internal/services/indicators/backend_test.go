package indicators

import (
	"errors"
	"math"
	"testing"

	"StockMind/internal/domain/models"
)

func TestComputeRejectsShortHistory(t *testing.T) {
	bars := probeBars(MinBars - 1)
	for _, b := range []Backend{NewPortableBackend(), NewFastBackend()} {
		if _, err := b.Compute(bars); !errors.Is(err, ErrInsufficientBars) {
			t.Fatalf("%s: expected ErrInsufficientBars, got %v", b.Name(), err)
		}
	}
}

func TestPortableSMAIsWindowMean(t *testing.T) {
	bars := probeBars(60)
	snap, err := NewPortableBackend().Compute(bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.SMA20 == nil {
		t.Fatal("sma20 missing")
	}

	_, _, _, closes, _ := series(bars)
	var sum float64
	for _, c := range closes[len(closes)-20:] {
		sum += c
	}
	want := sum / 20
	if math.Abs(*snap.SMA20-want) > 1e-9 {
		t.Fatalf("sma20 = %v, want %v", *snap.SMA20, want)
	}

	// 60 bars cannot fill a 200 session window.
	if snap.SMA200 != nil {
		t.Fatalf("sma200 should be nil for 60 bars, got %v", *snap.SMA200)
	}
}

func TestRSIWithinBounds(t *testing.T) {
	bars := probeBars(120)
	for _, b := range []Backend{NewPortableBackend(), NewFastBackend()} {
		snap, err := b.Compute(bars)
		if err != nil {
			t.Fatalf("%s: %v", b.Name(), err)
		}
		if snap.RSI14 == nil {
			t.Fatalf("%s: rsi missing", b.Name())
		}
		if *snap.RSI14 < 0 || *snap.RSI14 > 100 {
			t.Fatalf("%s: rsi out of range: %v", b.Name(), *snap.RSI14)
		}
	}
}

func TestSupportBelowResistance(t *testing.T) {
	snap, err := NewPortableBackend().Compute(probeBars(150))
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if snap.Support == nil || snap.Resistance == nil {
		t.Fatal("levels missing")
	}
	if *snap.Support >= *snap.Resistance {
		t.Fatalf("support %v must sit below resistance %v", *snap.Support, *snap.Resistance)
	}
}

func TestBackendsAgree(t *testing.T) {
	bars := probeBars(260)

	fs, err := NewFastBackend().Compute(bars)
	if err != nil {
		t.Fatalf("fast: %v", err)
	}
	ps, err := NewPortableBackend().Compute(bars)
	if err != nil {
		t.Fatalf("portable: %v", err)
	}

	if diff, field := maxDivergence(fs, ps); diff > equivalenceTolerance {
		t.Fatalf("backends diverge on %s by %v", field, diff)
	}
}

func TestDivergenceIsScaleFree(t *testing.T) {
	bars := probeBars(260)
	fs, err := NewFastBackend().Compute(bars)
	if err != nil {
		t.Fatalf("fast: %v", err)
	}
	ps, err := NewPortableBackend().Compute(bars)
	if err != nil {
		t.Fatalf("portable: %v", err)
	}

	// A float ulp worth of noise on a large OBV must not trip the
	// tolerance the way an absolute bound would.
	noisy := *ps.OBV * (1 + 1e-12)
	ps.OBV = &noisy
	if diff, field := maxDivergence(fs, ps); diff > equivalenceTolerance {
		t.Fatalf("rounding noise on %s reads as divergence %v", field, diff)
	}

	// A real relative error is still caught regardless of magnitude.
	off := *ps.OBV * (1 + 1e-3)
	ps.OBV = &off
	if diff, field := maxDivergence(fs, ps); field != "obv" || diff < 1e-4 {
		t.Fatalf("expected obv divergence, got %s %v", field, diff)
	}
}

func TestProbePicksFastWhenEquivalent(t *testing.T) {
	b := Probe(nil, NewFastBackend(), NewPortableBackend())
	if b.Name() != "fast" {
		t.Fatalf("probe picked %s, want fast", b.Name())
	}
}

type failingBackend struct{}

func (failingBackend) Name() string { return "failing" }
func (failingBackend) Compute([]models.Bar) (*models.IndicatorSnapshot, error) {
	return nil, errors.New("failing")
}

func TestProbeFallsBackOnFailure(t *testing.T) {
	b := Probe(nil, failingBackend{}, NewPortableBackend())
	if b.Name() != "portable" {
		t.Fatalf("probe picked %s, want portable", b.Name())
	}
}
