package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	applogger "StockMind/pkg/logger"
)

// ScannerConfig carries the flag thresholds, expressed in percent.
type ScannerConfig struct {
	GainerThreshold    float64
	LoserThreshold     float64
	UnusualVolumeRatio float64
	BreakoutThreshold  float64
	AvgVolumeSessions  int
}

// Scanner classifies symbols into movers by comparing the last two
// sessions. Every row of one run shares the same run timestamp.
type Scanner struct {
	store   domrepo.MarketStore
	results domrepo.ResultStore
	pub     domrepo.Publisher
	runner  *BatchRunner
	cfg     ScannerConfig
	l       *applogger.Logger
}

func NewScanner(store domrepo.MarketStore, results domrepo.ResultStore, pub domrepo.Publisher,
	runner *BatchRunner, cfg ScannerConfig, l *applogger.Logger) *Scanner {
	if cfg.AvgVolumeSessions <= 0 {
		cfg.AvgVolumeSessions = 20
	}
	return &Scanner{store: store, results: results, pub: pub, runner: runner, cfg: cfg, l: l}
}

// Latest returns the rows of the most recent scan run.
func (s *Scanner) Latest(ctx context.Context, limit int) ([]models.ScanResult, error) {
	return s.results.LatestScan(ctx, limit)
}

// Scan runs one market scan over the symbol list, persists the rows and
// publishes them as one event. Timeframe tags the run as "daily" or
// "weekly" so stored runs stay distinguishable.
func (s *Scanner) Scan(ctx context.Context, timeframe string, symbols []string) (*models.BatchReport, []models.ScanResult, error) {
	if timeframe == "" {
		timeframe = "daily"
	}
	runAt := time.Now().UTC().Truncate(time.Second)

	var mu sync.Mutex
	rows := make([]models.ScanResult, 0, len(symbols))

	report := s.runner.Run(ctx, "scan", symbols, func(ctx context.Context, symbol string) error {
		row, err := s.scanSymbol(ctx, symbol, timeframe, runAt)
		if err != nil {
			return err
		}
		mu.Lock()
		rows = append(rows, *row)
		mu.Unlock()
		return nil
	})

	if len(rows) == 0 {
		return report, rows, nil
	}

	if err := s.results.SaveScanResults(ctx, rows); err != nil {
		return report, rows, err
	}
	if s.pub != nil {
		if err := s.pub.PublishScanResults(ctx, rows); err != nil {
			s.l.Warn("scan publish failed", applogger.Error(err))
		}
	}
	return report, rows, nil
}

// scanSymbol builds one row from the last two stored sessions.
func (s *Scanner) scanSymbol(ctx context.Context, symbol, timeframe string, runAt time.Time) (*models.ScanResult, error) {
	bars, err := s.store.GetBars(ctx, symbol, s.cfg.AvgVolumeSessions+1)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) < 2 {
		return nil, fmt.Errorf("%w: %d bars, need 2", ErrSkipUnit, len(bars))
	}

	last := bars[len(bars)-1]
	prev := bars[len(bars)-2]

	if !prev.Close.IsPositive() {
		return nil, fmt.Errorf("%w: non-positive previous close", ErrSkipUnit)
	}

	change := last.Close.Sub(prev.Close)
	changePct := change.Div(prev.Close).Mul(decimal.NewFromInt(100)).Round(4)

	// Average volume over the sessions before the latest one. Defaults
	// to 1 so the ratio stays defined for fresh symbols.
	avgVolume := 1.0
	if history := bars[:len(bars)-1]; len(history) > 0 {
		var sum float64
		for _, b := range history {
			sum += float64(b.Volume)
		}
		if avg := sum / float64(len(history)); avg > 0 {
			avgVolume = avg
		}
	}
	volumeRatio := float64(last.Volume) / avgVolume

	pct, _ := changePct.Float64()
	row := &models.ScanResult{
		Symbol:          symbol,
		RunAt:           runAt,
		Timeframe:       timeframe,
		Price:           last.Close,
		Change:          change,
		ChangePercent:   changePct,
		Volume:          last.Volume,
		AvgVolume:       avgVolume,
		VolumeRatio:     volumeRatio,
		IsGainer:        pct >= s.cfg.GainerThreshold,
		IsLoser:         pct <= s.cfg.LoserThreshold,
		IsUnusualVolume: volumeRatio >= s.cfg.UnusualVolumeRatio,
		IsBreakout:      pct >= s.cfg.BreakoutThreshold || pct <= -s.cfg.BreakoutThreshold,
	}

	// Sentiment tracks the sign of the move, not the gainer and loser
	// thresholds.
	switch {
	case changePct.IsPositive():
		row.Sentiment = "Bullish"
	case changePct.IsNegative():
		row.Sentiment = "Bearish"
	default:
		row.Sentiment = "Neutral"
	}
	return row, nil
}
