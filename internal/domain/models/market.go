package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Symbol is a tracked instrument. Inactive symbols are kept for history
// but excluded from scheduled batch work.
type Symbol struct {
	Ticker    string
	Name      string
	Exchange  string
	Currency  string
	Kind      string // "EQUITY", "ETF", "INDEX"
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SymbolCandidate is one scored match for a resolver query.
type SymbolCandidate struct {
	Symbol   string  `json:"symbol"`
	Name     string  `json:"name"`
	Exchange string  `json:"exchange"`
	Kind     string  `json:"kind"` // instrument kind, e.g. "EQUITY"
	Score    float64 `json:"score"`
	Source   string  `json:"source"` // "db", "provider", "synthetic"
}

// ResolveResult holds the canonical pick plus every candidate considered,
// ordered by descending score.
type ResolveResult struct {
	Query      string            `json:"query"`
	Canonical  string            `json:"canonical"`
	Candidates []SymbolCandidate `json:"candidates"`
}

// Quote is a point-in-time snapshot of an instrument. Monetary fields use
// fixed-point decimals so change math stays exact.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Open          decimal.Decimal `json:"open"`
	DayHigh       decimal.Decimal `json:"day_high"`
	DayLow        decimal.Decimal `json:"day_low"`
	Volume        int64           `json:"volume"`
	MarketCap     int64           `json:"market_cap,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Bar is one OHLCV session.
type Bar struct {
	Symbol    string          `json:"symbol"`
	Ts        time.Time       `json:"ts"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    int64           `json:"volume"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Overview carries slow-moving company fundamentals.
type Overview struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Sector        string    `json:"sector"`
	Industry      string    `json:"industry"`
	MarketCap     int64     `json:"market_cap"`
	PERatio       float64   `json:"pe_ratio"`
	EPS           float64   `json:"eps"`
	DividendYield float64   `json:"dividend_yield"`
	Beta          float64   `json:"beta"`
	High52Week    float64   `json:"high_52_week"`
	Low52Week     float64   `json:"low_52_week"`
	Description   string    `json:"description"`
	Website       string    `json:"website"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Tick is a realtime trade event from the streaming feed.
type Tick struct {
	Symbol    string
	Price     float64
	Volume    float64
	Timestamp time.Time
}
