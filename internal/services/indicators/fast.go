package indicators

import (
	"math"

	"StockMind/internal/domain/models"
)

// FastBackend computes the full snapshot in a single forward pass using
// rolling sums and recurrences. Output must match the portable backend
// within the probe tolerance or it is rejected at startup.
type FastBackend struct{}

func NewFastBackend() *FastBackend { return &FastBackend{} }

func (f *FastBackend) Name() string { return "fast" }

// rollingSum keeps a fixed-window running sum.
type rollingSum struct {
	window []float64
	period int
	sum    float64
	next   int
	filled bool
}

func newRollingSum(period int) *rollingSum {
	return &rollingSum{window: make([]float64, period), period: period}
}

func (r *rollingSum) push(v float64) {
	if r.filled {
		r.sum -= r.window[r.next]
	}
	r.window[r.next] = v
	r.sum += v
	r.next++
	if r.next == r.period {
		r.next = 0
		r.filled = true
	}
}

func (r *rollingSum) ready() bool { return r.filled }

func (r *rollingSum) mean() float64 { return r.sum / float64(r.period) }

func (f *FastBackend) Compute(bars []models.Bar) (*models.IndicatorSnapshot, error) {
	if len(bars) < MinBars {
		return nil, ErrInsufficientBars
	}

	_, highs, lows, closes, volumes := series(bars)
	n := len(closes)
	last := bars[n-1]

	snap := &models.IndicatorSnapshot{
		Symbol:  last.Symbol,
		Ts:      last.Ts,
		Close:   closes[n-1],
		Backend: f.Name(),
	}

	sma20 := newRollingSum(20)
	sma50 := newRollingSum(50)
	sma200 := newRollingSum(200)
	bbSq := newRollingSum(20)

	ema12 := newEMA(12)
	ema26 := newEMA(26)
	macdSignal := newEMA(9)

	rsi := newWilderRSI(14)
	atr := newWilderATR(14)

	var obv float64
	var macdLast, signalLast float64
	var macdSeen, signalSeen bool

	for i := 0; i < n; i++ {
		c := closes[i]

		sma20.push(c)
		sma50.push(c)
		sma200.push(c)
		bbSq.push(c * c)

		e12 := ema12.push(c)
		e26 := ema26.push(c)

		if e12 != nil && e26 != nil {
			macdLast = *e12 - *e26
			macdSeen = true
			if s := macdSignal.push(macdLast); s != nil {
				signalLast = *s
				signalSeen = true
			}
		}

		if i > 0 {
			delta := c - closes[i-1]
			rsi.push(delta)
			atr.push(highs[i], lows[i], closes[i-1])

			switch {
			case delta > 0:
				obv += volumes[i]
			case delta < 0:
				obv -= volumes[i]
			}
		}
	}

	if sma20.ready() {
		snap.SMA20 = ptr(sma20.mean())
	}
	if sma50.ready() {
		snap.SMA50 = ptr(sma50.mean())
	}
	if sma200.ready() {
		snap.SMA200 = ptr(sma200.mean())
	}
	if v := ema12.value(); v != nil {
		snap.EMA12 = v
	}
	if v := ema26.value(); v != nil {
		snap.EMA26 = v
	}
	if v := rsi.value(); v != nil {
		snap.RSI14 = v
	}
	if macdSeen {
		snap.MACD = ptr(macdLast)
		if signalSeen {
			snap.MACDSignal = ptr(signalLast)
			snap.MACDHist = ptr(macdLast - signalLast)
		}
	}
	if sma20.ready() {
		mean := sma20.mean()
		variance := bbSq.mean() - mean*mean
		if variance < 0 {
			variance = 0
		}
		sigma := math.Sqrt(variance)
		snap.BBUpper = ptr(mean + 2.0*sigma)
		snap.BBMiddle = ptr(mean)
		snap.BBLower = ptr(mean - 2.0*sigma)
	}
	if v := atr.value(); v != nil {
		snap.ATR14 = v
	}
	snap.OBV = ptr(obv)

	sup, res := supportResistance(closes)
	snap.Support = ptr(sup)
	snap.Resistance = ptr(res)

	return snap, nil
}

// ema is a streaming exponential moving average seeded with the simple
// average of the first period values.
type ema struct {
	period int
	mult   float64
	seed   float64
	count  int
	cur    float64
	seeded bool
}

func newEMA(period int) *ema {
	return &ema{period: period, mult: 2.0 / (float64(period) + 1.0)}
}

func (e *ema) push(v float64) *float64 {
	if !e.seeded {
		e.seed += v
		e.count++
		if e.count == e.period {
			e.cur = e.seed / float64(e.period)
			e.seeded = true
			return &e.cur
		}
		return nil
	}
	e.cur = (v-e.cur)*e.mult + e.cur
	return &e.cur
}

func (e *ema) value() *float64 {
	if !e.seeded {
		return nil
	}
	return ptr(e.cur)
}

// wilderRSI is a streaming Wilder-smoothed RSI over price deltas.
type wilderRSI struct {
	period  int
	count   int
	avgGain float64
	avgLoss float64
}

func newWilderRSI(period int) *wilderRSI { return &wilderRSI{period: period} }

func (w *wilderRSI) push(delta float64) {
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	w.count++
	if w.count <= w.period {
		w.avgGain += gain
		w.avgLoss += loss
		if w.count == w.period {
			w.avgGain /= float64(w.period)
			w.avgLoss /= float64(w.period)
		}
		return
	}
	w.avgGain = (w.avgGain*float64(w.period-1) + gain) / float64(w.period)
	w.avgLoss = (w.avgLoss*float64(w.period-1) + loss) / float64(w.period)
}

func (w *wilderRSI) value() *float64 {
	if w.count < w.period {
		return nil
	}
	if w.avgLoss == 0 {
		return ptr(100.0)
	}
	rs := w.avgGain / w.avgLoss
	return ptr(100.0 - 100.0/(1.0+rs))
}

// wilderATR is a streaming Wilder-smoothed average true range.
type wilderATR struct {
	period int
	count  int
	atr    float64
}

func newWilderATR(period int) *wilderATR { return &wilderATR{period: period} }

func (w *wilderATR) push(high, low, prevClose float64) {
	tr := high - low
	if v := math.Abs(high - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(low - prevClose); v > tr {
		tr = v
	}

	w.count++
	if w.count <= w.period {
		w.atr += tr
		if w.count == w.period {
			w.atr /= float64(w.period)
		}
		return
	}
	w.atr = (w.atr*float64(w.period-1) + tr) / float64(w.period)
}

func (w *wilderATR) value() *float64 {
	if w.count < w.period {
		return nil
	}
	return ptr(w.atr)
}
