package forecast

import (
	"errors"
	"math"
	"time"

	"StockMind/internal/domain/models"
)

// minCloses is the hard floor below which no projection is produced.
const minCloses = 10

// ErrInsufficientHistory is returned when too few closes are given.
var ErrInsufficientHistory = errors.New("insufficient history for forecast")

const (
	// lookbackReturns caps how many recent returns feed the drift and
	// volatility estimates.
	lookbackReturns = 60
	// flatBandPct marks a horizon as flat when its projected move is
	// smaller than this many percent.
	flatBandPct = 0.1
	// driftFloorPct and driftCapPct bound the synthetic drift applied
	// to flat horizons.
	driftFloorPct = 0.15
	driftCapPct   = 0.6
	// trendBandPct separates Uptrend/Downtrend from Sideways per horizon.
	trendBandPct = 0.2
)

// Horizon names one projection distance in trading days.
type Horizon struct {
	Name string
	Days int
}

// Forecaster produces deterministic drift projections from close history.
type Forecaster struct {
	horizons []Horizon
}

// New creates a forecaster for the given horizons, ordered nearest first.
func New(horizons []Horizon) *Forecaster {
	return &Forecaster{horizons: horizons}
}

// Forecast projects closes forward over every horizon. The same input
// always yields the same output.
func (f *Forecaster) Forecast(symbol string, closes []float64, now time.Time) (*models.Forecast, error) {
	if len(closes) < minCloses {
		return nil, ErrInsufficientHistory
	}

	current := closes[len(closes)-1]
	mu, sigma := returnStats(closes)
	volPct := sigma * 100.0

	changes := make([]float64, len(f.horizons))
	for i, h := range f.horizons {
		projected := current * math.Pow(1.0+mu, float64(h.Days))
		if projected <= 0 {
			projected = current
		}
		changes[i] = (projected - current) / current * 100.0
	}

	// A horizon stuck inside the flat band carries no signal; replace it
	// with a volatility-scaled drift in the direction of recent momentum
	// so horizons stay distinguishable.
	drift := clamp(volPct, driftFloorPct, driftCapPct)
	sign := momentumSign(closes)
	for i := range changes {
		if math.Abs(changes[i]) < flatBandPct {
			changes[i] = sign * drift * float64(i+1)
		}
	}

	out := &models.Forecast{
		Symbol:       symbol,
		GeneratedAt:  now,
		CurrentPrice: current,
		Volatility:   volPct,
	}

	positive := 0
	for i, h := range f.horizons {
		price := current * (1.0 + changes[i]/100.0)
		out.Horizons = append(out.Horizons, models.HorizonForecast{
			Name:          h.Name,
			Days:          h.Days,
			Price:         price,
			ChangePercent: changes[i],
			Trend:         trendOf(changes[i]),
		})
		if changes[i] > 0 {
			positive++
		}
	}

	out.BullishScore = float64(positive) / float64(len(f.horizons)) * 100.0
	if out.BullishScore > 50 {
		out.Sentiment = "Bullish"
	} else {
		out.Sentiment = "Bearish"
	}
	out.Confidence, out.Risk = confidenceRisk(volPct)

	return out, nil
}

// returnStats returns the mean and population standard deviation of
// daily percent returns over the most recent lookbackReturns sessions.
func returnStats(closes []float64) (mu, sigma float64) {
	returns := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			continue
		}
		returns = append(returns, closes[i]/closes[i-1]-1.0)
	}
	if len(returns) > lookbackReturns {
		returns = returns[len(returns)-lookbackReturns:]
	}
	if len(returns) == 0 {
		return 0, 0
	}

	for _, r := range returns {
		mu += r
	}
	mu /= float64(len(returns))

	for _, r := range returns {
		d := r - mu
		sigma += d * d
	}
	sigma = math.Sqrt(sigma / float64(len(returns)))
	return mu, sigma
}

// momentumSign is the direction of the last five sessions.
func momentumSign(closes []float64) float64 {
	n := len(closes)
	ref := closes[0]
	if n > 5 {
		ref = closes[n-6]
	}
	if closes[n-1] < ref {
		return -1
	}
	return 1
}

func trendOf(changePct float64) string {
	switch {
	case changePct > trendBandPct:
		return "Uptrend"
	case changePct < -trendBandPct:
		return "Downtrend"
	default:
		return "Sideways"
	}
}

// confidenceRisk classifies by daily volatility percent.
func confidenceRisk(volPct float64) (confidence, risk string) {
	switch {
	case volPct < 1.0:
		return "high", "low"
	case volPct < 2.0:
		return "medium", "medium"
	default:
		return "low", "high"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
