package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// IndicatorSnapshot is one symbol's technical picture at a point in time.
// Pointer fields are nil when the input window was too short to compute
// that indicator; storage keeps them as nullable columns.
type IndicatorSnapshot struct {
	Symbol     string    `json:"symbol"`
	Ts         time.Time `json:"ts"`
	Close      float64   `json:"close"`
	SMA20      *float64  `json:"sma_20,omitempty"`
	SMA50      *float64  `json:"sma_50,omitempty"`
	SMA200     *float64  `json:"sma_200,omitempty"`
	EMA12      *float64  `json:"ema_12,omitempty"`
	EMA26      *float64  `json:"ema_26,omitempty"`
	RSI14      *float64  `json:"rsi_14,omitempty"`
	MACD       *float64  `json:"macd,omitempty"`
	MACDSignal *float64  `json:"macd_signal,omitempty"`
	MACDHist   *float64  `json:"macd_hist,omitempty"`
	BBUpper    *float64  `json:"bb_upper,omitempty"`
	BBMiddle   *float64  `json:"bb_middle,omitempty"`
	BBLower    *float64  `json:"bb_lower,omitempty"`
	ATR14      *float64  `json:"atr_14,omitempty"`
	OBV        *float64  `json:"obv,omitempty"`
	Support    *float64  `json:"support,omitempty"`
	Resistance *float64  `json:"resistance,omitempty"`
	Backend    string    `json:"backend,omitempty"`
}

// ScanResult is one symbol's row from a market scan run. Every row of the
// same run shares RunAt.
type ScanResult struct {
	Symbol          string          `json:"symbol"`
	RunAt           time.Time       `json:"run_at"`
	Timeframe       string          `json:"timeframe"` // "daily" or "weekly"
	Price           decimal.Decimal `json:"price"`
	Change          decimal.Decimal `json:"change"`
	ChangePercent   decimal.Decimal `json:"change_percent"`
	Volume          int64           `json:"volume"`
	AvgVolume       float64         `json:"avg_volume"`
	VolumeRatio     float64         `json:"volume_ratio"`
	IsGainer        bool            `json:"is_gainer"`
	IsLoser         bool            `json:"is_loser"`
	IsUnusualVolume bool            `json:"is_unusual_volume"`
	IsBreakout      bool            `json:"is_breakout"`
	Sentiment       string          `json:"sentiment"` // "Bullish", "Bearish", "Neutral"
}

// HorizonForecast is one projected point of a statistical forecast.
type HorizonForecast struct {
	Name          string  `json:"name"` // "short", "medium", "long"
	Days          int     `json:"days"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
	Trend         string  `json:"trend"` // "Uptrend", "Downtrend", "Sideways"
}

// Forecast is the full output of one forecaster run for a symbol.
type Forecast struct {
	Symbol       string            `json:"symbol"`
	GeneratedAt  time.Time         `json:"generated_at"`
	CurrentPrice float64           `json:"current_price"`
	Horizons     []HorizonForecast `json:"horizons"`
	BullishScore float64           `json:"bullish_score"`
	Sentiment    string            `json:"sentiment"`  // "Bullish" or "Bearish"
	Confidence   string            `json:"confidence"` // "high", "medium", "low"
	Risk         string            `json:"risk"`       // "low", "medium", "high"
	Volatility   float64           `json:"volatility"` // daily log-return stddev
}

// UnitStatus classifies the outcome of one symbol inside a batch run.
type UnitStatus string

const (
	UnitOk      UnitStatus = "ok"
	UnitSkipped UnitStatus = "skipped"
	UnitFailed  UnitStatus = "failed"
)

// UnitResult records one symbol's outcome within a batch run.
type UnitResult struct {
	Symbol   string        `json:"symbol"`
	Status   UnitStatus    `json:"status"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// BatchReport aggregates per-symbol outcomes of one scheduled task run.
// A failing symbol never aborts the run; it is recorded and the batch
// moves on.
type BatchReport struct {
	Task      string        `json:"task"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Ok        int           `json:"ok"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Units     []UnitResult  `json:"units"`
}

// Add appends a unit outcome and bumps the matching counter.
func (b *BatchReport) Add(u UnitResult) {
	b.Units = append(b.Units, u)
	switch u.Status {
	case UnitOk:
		b.Ok++
	case UnitSkipped:
		b.Skipped++
	case UnitFailed:
		b.Failed++
	}
}
