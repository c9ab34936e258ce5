package usecase

import (
	"context"
	"errors"
	"fmt"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	"StockMind/internal/services/indicators"
	applogger "StockMind/pkg/logger"
)

// barWindow is how much history the indicator engine works from. Enough
// for SMA200 plus warmup.
const barWindow = 250

// IndicatorService computes and persists technical snapshots.
type IndicatorService struct {
	store   domrepo.MarketStore
	results domrepo.ResultStore
	backend indicators.Backend
	pub     domrepo.Publisher
	runner  *BatchRunner
	l       *applogger.Logger
}

func NewIndicatorService(store domrepo.MarketStore, results domrepo.ResultStore,
	backend indicators.Backend, pub domrepo.Publisher, runner *BatchRunner, l *applogger.Logger) *IndicatorService {
	return &IndicatorService{store: store, results: results, backend: backend, pub: pub, runner: runner, l: l}
}

// ComputeSymbol builds one snapshot from stored bars. Symbols with too
// little history are skipped, not failed.
func (s *IndicatorService) ComputeSymbol(ctx context.Context, symbol string) (*models.IndicatorSnapshot, error) {
	bars, err := s.store.GetBars(ctx, symbol, barWindow)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}

	snap, err := s.backend.Compute(bars)
	if errors.Is(err, indicators.ErrInsufficientBars) {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrSkipUnit, len(bars), indicators.MinBars)
	}
	if err != nil {
		return nil, fmt.Errorf("compute indicators: %w", err)
	}

	if err := s.results.SaveIndicators(ctx, snap); err != nil {
		return nil, err
	}
	if s.pub != nil {
		if err := s.pub.PublishIndicators(ctx, snap); err != nil {
			s.l.Warn("indicators publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return snap, nil
}

// Latest returns the most recent stored snapshot for a symbol.
func (s *IndicatorService) Latest(ctx context.Context, symbol string) (*models.IndicatorSnapshot, error) {
	return s.results.LatestIndicators(ctx, symbol)
}

// RunAll recomputes snapshots for every symbol through the batch runner.
func (s *IndicatorService) RunAll(ctx context.Context, symbols []string) *models.BatchReport {
	return s.runner.Run(ctx, "indicators", symbols, func(ctx context.Context, symbol string) error {
		_, err := s.ComputeSymbol(ctx, symbol)
		return err
	})
}
