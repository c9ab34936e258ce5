package usecase

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	domservice "StockMind/internal/domain/service"
	"StockMind/pkg/cache"
	applogger "StockMind/pkg/logger"
)

// CleanupService deactivates symbols the provider no longer knows.
// Deactivation is soft: history stays queryable, scheduled work stops.
// A provider timeout is inconclusive and never deactivates anything.
type CleanupService struct {
	store    domrepo.MarketStore
	provider domservice.QuoteProvider
	cache    cache.Service
	runner   *BatchRunner
	l        *applogger.Logger
}

func NewCleanupService(store domrepo.MarketStore, provider domservice.QuoteProvider,
	c cache.Service, runner *BatchRunner, l *applogger.Logger) *CleanupService {
	return &CleanupService{store: store, provider: provider, cache: c, runner: runner, l: l}
}

// staleBarWindow is how long a symbol may go without a fresh bar
// before it is considered abandoned by the pipeline.
const staleBarWindow = 7 * 24 * time.Hour

// CheckSymbol probes one symbol against the provider and checks that
// its stored history is still moving.
func (s *CleanupService) CheckSymbol(ctx context.Context, symbol string) error {
	_, err := s.provider.Quote(ctx, symbol)
	if err == nil {
		return s.checkStaleness(ctx, symbol)
	}

	if isInconclusive(err) {
		return fmt.Errorf("%w: provider unreachable", ErrSkipUnit)
	}
	if !errors.Is(err, domrepo.ErrNotFound) {
		return fmt.Errorf("probe quote: %w", err)
	}

	// Provider answered and the symbol is gone.
	return s.deactivate(ctx, symbol, "delisted")
}

// checkStaleness deactivates symbols whose latest bar has fallen
// behind the staleness window. Symbols with no bars yet are left
// alone: they are new, not stale.
func (s *CleanupService) checkStaleness(ctx context.Context, symbol string) error {
	bars, err := s.store.GetBars(ctx, symbol, 1)
	if err != nil {
		return fmt.Errorf("load latest bar: %w", err)
	}
	if len(bars) == 0 {
		return nil
	}
	latest := bars[len(bars)-1].Ts
	if time.Since(latest) <= staleBarWindow {
		return nil
	}
	return s.deactivate(ctx, symbol, "stale")
}

func (s *CleanupService) deactivate(ctx context.Context, symbol, reason string) error {
	if err := s.store.DeactivateSymbol(ctx, symbol); err != nil {
		// A symbol that was never catalogued has nothing to deactivate.
		if !errors.Is(err, domrepo.ErrNotFound) {
			return fmt.Errorf("deactivate: %w", err)
		}
	}
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "*:"+symbol+"*"); err != nil {
			s.l.Warn("cleanup cache purge failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	s.l.Info("symbol deactivated", applogger.String("symbol", symbol), applogger.String("reason", reason))
	return nil
}

// isInconclusive classifies transport-level trouble that says nothing
// about whether the symbol still exists.
func isInconclusive(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// RunAll probes every active symbol through the batch runner.
func (s *CleanupService) RunAll(ctx context.Context, symbols []string) *models.BatchReport {
	return s.runner.Run(ctx, "cleanup", symbols, s.CheckSymbol)
}
