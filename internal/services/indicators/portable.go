package indicators

import (
	"math"

	"StockMind/internal/domain/models"
)

// PortableBackend computes each indicator independently with windowed
// recomputation. Slow but straightforward; serves as the reference the
// fast backend is probed against.
type PortableBackend struct{}

func NewPortableBackend() *PortableBackend { return &PortableBackend{} }

func (p *PortableBackend) Name() string { return "portable" }

func (p *PortableBackend) Compute(bars []models.Bar) (*models.IndicatorSnapshot, error) {
	if len(bars) < MinBars {
		return nil, ErrInsufficientBars
	}

	_, highs, lows, closes, volumes := series(bars)
	last := bars[len(bars)-1]
	lastClose := closes[len(closes)-1]

	snap := &models.IndicatorSnapshot{
		Symbol:  last.Symbol,
		Ts:      last.Ts,
		Close:   lastClose,
		Backend: p.Name(),
	}

	snap.SMA20 = smaAt(closes, 20)
	snap.SMA50 = smaAt(closes, 50)
	snap.SMA200 = smaAt(closes, 200)

	if e12 := emaSeries(closes, 12); e12 != nil {
		snap.EMA12 = ptr(e12[len(e12)-1])
	}
	if e26 := emaSeries(closes, 26); e26 != nil {
		snap.EMA26 = ptr(e26[len(e26)-1])
	}

	snap.RSI14 = rsiAt(closes, 14)

	macd, signal, hist := macdAt(closes, 12, 26, 9)
	snap.MACD, snap.MACDSignal, snap.MACDHist = macd, signal, hist

	snap.BBUpper, snap.BBMiddle, snap.BBLower = bollingerAt(closes, 20, 2.0)
	snap.ATR14 = atrAt(highs, lows, closes, 14)
	snap.OBV = ptr(obvAt(closes, volumes))

	sup, res := supportResistance(closes)
	snap.Support = ptr(sup)
	snap.Resistance = ptr(res)

	return snap, nil
}

// smaAt returns the simple moving average of the final window, nil when
// the series is shorter than the period.
func smaAt(values []float64, period int) *float64 {
	if len(values) < period {
		return nil
	}
	var sum float64
	for _, v := range values[len(values)-period:] {
		sum += v
	}
	return ptr(sum / float64(period))
}

// emaSeries returns the exponential moving average series seeded with
// the simple average of the first period values. Element i corresponds
// to input index i+period-1.
func emaSeries(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	mult := 2.0 / (float64(period) + 1.0)

	var seed float64
	for _, v := range values[:period] {
		seed += v
	}
	seed /= float64(period)

	out := make([]float64, 0, len(values)-period+1)
	out = append(out, seed)
	prev := seed
	for _, v := range values[period:] {
		prev = (v-prev)*mult + prev
		out = append(out, prev)
	}
	return out
}

// rsiAt computes the Wilder-smoothed relative strength index.
func rsiAt(closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return ptr(100.0)
	}
	rs := avgGain / avgLoss
	return ptr(100.0 - 100.0/(1.0+rs))
}

// macdAt computes MACD, its signal line and histogram at the last bar.
func macdAt(closes []float64, fast, slow, signalPeriod int) (*float64, *float64, *float64) {
	fastSeries := emaSeries(closes, fast)
	slowSeries := emaSeries(closes, slow)
	if fastSeries == nil || slowSeries == nil {
		return nil, nil, nil
	}

	// Align: slowSeries[0] corresponds to input index slow-1.
	offset := slow - fast
	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	macd := ptr(macdLine[len(macdLine)-1])
	sig := emaSeries(macdLine, signalPeriod)
	if sig == nil {
		return macd, nil, nil
	}
	signal := ptr(sig[len(sig)-1])
	return macd, signal, ptr(*macd - *signal)
}

// bollingerAt computes the 20-session bands at k population standard
// deviations around the middle average.
func bollingerAt(closes []float64, period int, k float64) (*float64, *float64, *float64) {
	if len(closes) < period {
		return nil, nil, nil
	}
	window := closes[len(closes)-period:]

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(period)

	var variance float64
	for _, v := range window {
		d := v - mean
		variance += d * d
	}
	sigma := math.Sqrt(variance / float64(period))

	return ptr(mean + k*sigma), ptr(mean), ptr(mean - k*sigma)
}

// atrAt computes the Wilder-smoothed average true range.
func atrAt(highs, lows, closes []float64, period int) *float64 {
	if len(closes) < period+1 {
		return nil
	}

	trs := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		tr := highs[i] - lows[i]
		if v := math.Abs(highs[i] - closes[i-1]); v > tr {
			tr = v
		}
		if v := math.Abs(lows[i] - closes[i-1]); v > tr {
			tr = v
		}
		trs = append(trs, tr)
	}

	var atr float64
	for _, tr := range trs[:period] {
		atr += tr
	}
	atr /= float64(period)

	for _, tr := range trs[period:] {
		atr = (atr*float64(period-1) + tr) / float64(period)
	}
	return ptr(atr)
}

// obvAt computes cumulative on-balance volume.
func obvAt(closes, volumes []float64) float64 {
	var obv float64
	for i := 1; i < len(closes); i++ {
		switch {
		case closes[i] > closes[i-1]:
			obv += volumes[i]
		case closes[i] < closes[i-1]:
			obv -= volumes[i]
		}
	}
	return obv
}
