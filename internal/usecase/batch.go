package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	applogger "StockMind/pkg/logger"
)

// ErrSkipUnit marks a unit outcome as skipped rather than failed. Units
// wrap it with a reason, e.g. insufficient history.
var ErrSkipUnit = errors.New("unit skipped")

// UnitFunc runs one symbol within a batch.
type UnitFunc func(ctx context.Context, symbol string) error

// BatchRunner fans a symbol list over a worker pool and aggregates
// per-symbol outcomes. One bad symbol never aborts the run.
type BatchRunner struct {
	workers     int
	unitTimeout time.Duration
	metrics     domrepo.Metrics
	l           *applogger.Logger
}

func NewBatchRunner(workers int, unitTimeout time.Duration, metrics domrepo.Metrics, l *applogger.Logger) *BatchRunner {
	if workers <= 0 {
		workers = 4
	}
	return &BatchRunner{workers: workers, unitTimeout: unitTimeout, metrics: metrics, l: l}
}

// Run executes unit for every symbol and returns the aggregated report.
// Unit results keep the input symbol order.
func (b *BatchRunner) Run(ctx context.Context, task string, symbols []string, unit UnitFunc) *models.BatchReport {
	report := &models.BatchReport{Task: task, StartedAt: time.Now().UTC()}
	if len(symbols) == 0 {
		return report
	}

	results := make([]models.UnitResult, len(symbols))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < b.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = b.runUnit(ctx, task, symbols[i], unit)
			}
		}()
	}

dispatch:
	for i := range symbols {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	for i, r := range results {
		if r.Symbol == "" {
			r = models.UnitResult{Symbol: symbols[i], Status: models.UnitSkipped, Reason: "cancelled"}
		}
		report.Add(r)
	}
	report.Duration = time.Since(report.StartedAt)

	b.l.Info("batch finished",
		applogger.String("task", task),
		applogger.Int("ok", report.Ok),
		applogger.Int("skipped", report.Skipped),
		applogger.Int("failed", report.Failed),
		applogger.Duration("duration_ms", report.Duration),
	)
	return report
}

func (b *BatchRunner) runUnit(ctx context.Context, task, symbol string, unit UnitFunc) models.UnitResult {
	unitCtx := ctx
	if b.unitTimeout > 0 {
		var cancel context.CancelFunc
		unitCtx, cancel = context.WithTimeout(ctx, b.unitTimeout)
		defer cancel()
	}

	start := time.Now()
	err := unit(unitCtx, symbol)
	result := models.UnitResult{Symbol: symbol, Duration: time.Since(start)}

	switch {
	case err == nil:
		result.Status = models.UnitOk
	case errors.Is(err, ErrSkipUnit):
		result.Status = models.UnitSkipped
		result.Reason = err.Error()
	default:
		result.Status = models.UnitFailed
		result.Reason = err.Error()
		b.l.Warn("batch unit failed",
			applogger.String("task", task),
			applogger.String("symbol", symbol),
			applogger.Error(err),
		)
	}

	b.metrics.RecordBatchUnit(task, string(result.Status))
	return result
}
