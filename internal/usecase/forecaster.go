package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	"StockMind/internal/services/forecast"
	applogger "StockMind/pkg/logger"
)

// ForecastService projects prices over the configured horizons and
// persists the runs.
type ForecastService struct {
	store      domrepo.MarketStore
	results    domrepo.ResultStore
	pub        domrepo.Publisher
	forecaster *forecast.Forecaster
	minBars    int
	runner     *BatchRunner
	l          *applogger.Logger
}

func NewForecastService(store domrepo.MarketStore, results domrepo.ResultStore, pub domrepo.Publisher,
	forecaster *forecast.Forecaster, minBars int, runner *BatchRunner, l *applogger.Logger) *ForecastService {
	if minBars <= 0 {
		minBars = 60
	}
	return &ForecastService{
		store: store, results: results, pub: pub,
		forecaster: forecaster, minBars: minBars, runner: runner, l: l,
	}
}

// ForecastSymbol projects one symbol from stored history.
func (s *ForecastService) ForecastSymbol(ctx context.Context, symbol string) (*models.Forecast, error) {
	bars, err := s.store.GetBars(ctx, symbol, barWindow)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	if len(bars) < s.minBars {
		return nil, fmt.Errorf("%w: %d bars, need %d", ErrSkipUnit, len(bars), s.minBars)
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], _ = b.Close.Float64()
	}

	f, err := s.forecaster.Forecast(symbol, closes, time.Now().UTC())
	if errors.Is(err, forecast.ErrInsufficientHistory) {
		return nil, fmt.Errorf("%w: %v", ErrSkipUnit, err)
	}
	if err != nil {
		return nil, err
	}

	if err := s.results.SaveForecast(ctx, f); err != nil {
		return nil, err
	}
	if s.pub != nil {
		if err := s.pub.PublishForecast(ctx, f); err != nil {
			s.l.Warn("forecast publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return f, nil
}

// Latest returns the most recent stored forecast for a symbol.
func (s *ForecastService) Latest(ctx context.Context, symbol string) (*models.Forecast, error) {
	return s.results.LatestForecast(ctx, symbol)
}

// RunAll forecasts every symbol through the batch runner.
func (s *ForecastService) RunAll(ctx context.Context, symbols []string) *models.BatchReport {
	return s.runner.Run(ctx, "forecast", symbols, func(ctx context.Context, symbol string) error {
		_, err := s.ForecastSymbol(ctx, symbol)
		return err
	})
}
