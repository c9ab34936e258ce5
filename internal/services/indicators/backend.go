package indicators

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
	"StockMind/pkg/logger"
)

// MinBars is the minimum window for a meaningful snapshot. Shorter
// inputs are rejected so partially warmed indicators never reach storage.
const MinBars = 50

// ErrInsufficientBars is returned when fewer than MinBars bars are given.
var ErrInsufficientBars = errors.New("insufficient bars for indicators")

// Backend computes a full indicator snapshot from daily bars.
type Backend interface {
	Name() string
	Compute(bars []models.Bar) (*models.IndicatorSnapshot, error)
}

// equivalenceTolerance bounds the allowed relative divergence between
// backends during the startup probe. Relative so large-magnitude fields
// like OBV are held to the same standard as oscillators.
const equivalenceTolerance = 1e-6

// Probe runs both backends over a synthetic series and returns the fast
// backend when their outputs agree within tolerance, the portable one
// otherwise. The process never fails over backend choice.
func Probe(log *logger.Logger, fast, portable Backend) Backend {
	bars := probeBars(260)

	fs, ferr := fast.Compute(bars)
	ps, perr := portable.Compute(bars)
	if ferr != nil || perr != nil {
		if log != nil {
			log.Warn("indicator probe failed, using portable backend",
				logger.Any("fast_err", ferr), logger.Any("portable_err", perr))
		}
		return portable
	}

	if diff, field := maxDivergence(fs, ps); diff > equivalenceTolerance {
		if log != nil {
			log.Warn("indicator backends diverge, using portable backend",
				logger.String("field", field), logger.Any("divergence", diff))
		}
		return portable
	}

	if log != nil {
		log.Info("indicator backend selected", logger.String("backend", fast.Name()))
	}
	return fast
}

// probeBars builds a deterministic synthetic OHLCV series with trend,
// oscillation and volume variation so every indicator path is exercised.
func probeBars(n int) []models.Bar {
	bars := make([]models.Bar, n)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		base := 100.0 + 0.1*float64(i) + 8.0*math.Sin(float64(i)/9.0)
		high := base + 1.5 + math.Abs(math.Sin(float64(i)/3.0))
		low := base - 1.5 - math.Abs(math.Cos(float64(i)/4.0))
		open := base - 0.5*math.Sin(float64(i)/5.0)
		vol := int64(1_000_000 + 400_000*int64(i%7))
		bars[i] = models.Bar{
			Symbol: "PROBE",
			Ts:     t0.AddDate(0, 0, i),
			Open:   decimal.NewFromFloat(open),
			High:   decimal.NewFromFloat(high),
			Low:    decimal.NewFromFloat(low),
			Close:  decimal.NewFromFloat(base),
			Volume: vol,
		}
	}
	return bars
}

func maxDivergence(a, b *models.IndicatorSnapshot) (float64, string) {
	fields := []struct {
		name string
		av   *float64
		bv   *float64
	}{
		{"sma_20", a.SMA20, b.SMA20},
		{"sma_50", a.SMA50, b.SMA50},
		{"sma_200", a.SMA200, b.SMA200},
		{"ema_12", a.EMA12, b.EMA12},
		{"ema_26", a.EMA26, b.EMA26},
		{"rsi_14", a.RSI14, b.RSI14},
		{"macd", a.MACD, b.MACD},
		{"macd_signal", a.MACDSignal, b.MACDSignal},
		{"macd_hist", a.MACDHist, b.MACDHist},
		{"bb_upper", a.BBUpper, b.BBUpper},
		{"bb_middle", a.BBMiddle, b.BBMiddle},
		{"bb_lower", a.BBLower, b.BBLower},
		{"atr_14", a.ATR14, b.ATR14},
		{"obv", a.OBV, b.OBV},
		{"support", a.Support, b.Support},
		{"resistance", a.Resistance, b.Resistance},
	}

	var worst float64
	var worstField string
	for _, f := range fields {
		switch {
		case f.av == nil && f.bv == nil:
			continue
		case f.av == nil || f.bv == nil:
			return math.Inf(1), f.name
		default:
			if d := relativeDiff(*f.av, *f.bv); d > worst {
				worst = d
				worstField = f.name
			}
		}
	}
	return worst, worstField
}

// relativeDiff normalizes the divergence by the larger magnitude so the
// tolerance is scale free.
func relativeDiff(a, b float64) float64 {
	diff := math.Abs(a - b)
	if diff == 0 {
		return 0
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	if scale == 0 {
		return diff
	}
	return diff / scale
}

// series extracts float columns from bars.
func series(bars []models.Bar) (opens, highs, lows, closes, volumes []float64) {
	n := len(bars)
	opens = make([]float64, n)
	highs = make([]float64, n)
	lows = make([]float64, n)
	closes = make([]float64, n)
	volumes = make([]float64, n)
	for i, b := range bars {
		opens[i], _ = b.Open.Float64()
		highs[i], _ = b.High.Float64()
		lows[i], _ = b.Low.Float64()
		closes[i], _ = b.Close.Float64()
		volumes[i] = float64(b.Volume)
	}
	return
}

func ptr(v float64) *float64 { return &v }

// percentile computes the p-th percentile with linear interpolation.
func percentile(values []float64, p float64) float64 {
	s := make([]float64, len(values))
	copy(s, values)
	sort.Float64s(s)
	if len(s) == 1 {
		return s[0]
	}
	rank := p / 100.0 * float64(len(s)-1)
	lo := int(math.Floor(rank))
	frac := rank - float64(lo)
	if lo+1 >= len(s) {
		return s[len(s)-1]
	}
	return s[lo] + frac*(s[lo+1]-s[lo])
}

// supportResistance derives levels from the 5th and 95th percentiles of
// recent closes. Window caps at the last 100 sessions.
func supportResistance(closes []float64) (support, resistance float64) {
	window := closes
	if len(window) > 100 {
		window = window[len(window)-100:]
	}
	return percentile(window, 5), percentile(window, 95)
}
