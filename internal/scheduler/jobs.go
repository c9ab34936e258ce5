package scheduler

import (
	"context"
	"fmt"

	"StockMind/internal/usecase"
	applogger "StockMind/pkg/logger"
	"StockMind/pkg/queue"
)

// TaskPayload is the envelope every scheduled job carries through the
// queue. Symbols are resolved at enqueue time so a job replayed from
// the retry set still works on the set it was scheduled with.
type TaskPayload struct {
	Symbols []string `json:"symbols"`
	Weekly  bool     `json:"weekly,omitempty"`
}

func parseTask(payload interface{}) (*TaskPayload, error) {
	p, err := queue.ParsePayload[TaskPayload](payload)
	if err != nil {
		return nil, fmt.Errorf("parse task payload: %w", err)
	}
	return p, nil
}

// QuotesJob refreshes quotes and session bars for every symbol.
type QuotesJob struct {
	fetcher *usecase.Fetcher
	runner  *usecase.BatchRunner
}

func NewQuotesJob(fetcher *usecase.Fetcher, runner *usecase.BatchRunner) *QuotesJob {
	return &QuotesJob{fetcher: fetcher, runner: runner}
}

func (j *QuotesJob) Name() string { return "refresh_quotes" }
func (j *QuotesJob) Type() string { return "quotes" }

func (j *QuotesJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := parseTask(payload)
	if err != nil {
		return err
	}
	report := j.runner.Run(ctx, "quotes", p.Symbols, func(ctx context.Context, symbol string) error {
		_, err := j.fetcher.RefreshQuote(ctx, symbol)
		return err
	})
	if report.Failed == len(p.Symbols) && len(p.Symbols) > 0 {
		return fmt.Errorf("quotes: all %d symbols failed", report.Failed)
	}
	return nil
}

// IndicatorsJob recomputes technical snapshots.
type IndicatorsJob struct {
	svc *usecase.IndicatorService
}

func NewIndicatorsJob(svc *usecase.IndicatorService) *IndicatorsJob {
	return &IndicatorsJob{svc: svc}
}

func (j *IndicatorsJob) Name() string { return "compute_indicators" }
func (j *IndicatorsJob) Type() string { return "indicators" }

func (j *IndicatorsJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := parseTask(payload)
	if err != nil {
		return err
	}
	j.svc.RunAll(ctx, p.Symbols)
	return nil
}

// ScanJob runs a market scan.
type ScanJob struct {
	scanner *usecase.Scanner
	l       *applogger.Logger
}

func NewScanJob(scanner *usecase.Scanner, l *applogger.Logger) *ScanJob {
	return &ScanJob{scanner: scanner, l: l}
}

func (j *ScanJob) Name() string { return "market_scan" }
func (j *ScanJob) Type() string { return "scan" }

func (j *ScanJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := parseTask(payload)
	if err != nil {
		return err
	}
	timeframe := "daily"
	if p.Weekly {
		timeframe = "weekly"
	}
	_, rows, err := j.scanner.Scan(ctx, timeframe, p.Symbols)
	if err != nil {
		return err
	}
	j.l.Info("scan complete",
		applogger.String("timeframe", timeframe),
		applogger.Int("rows", len(rows)),
	)
	return nil
}

// ForecastJob refreshes statistical forecasts.
type ForecastJob struct {
	svc *usecase.ForecastService
}

func NewForecastJob(svc *usecase.ForecastService) *ForecastJob {
	return &ForecastJob{svc: svc}
}

func (j *ForecastJob) Name() string { return "refresh_forecasts" }
func (j *ForecastJob) Type() string { return "forecast" }

func (j *ForecastJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := parseTask(payload)
	if err != nil {
		return err
	}
	j.svc.RunAll(ctx, p.Symbols)
	return nil
}

// NewsJob ingests and scores fresh articles.
type NewsJob struct {
	svc *usecase.NewsSentimentService
}

func NewNewsJob(svc *usecase.NewsSentimentService) *NewsJob {
	return &NewsJob{svc: svc}
}

func (j *NewsJob) Name() string { return "ingest_news" }
func (j *NewsJob) Type() string { return "news" }

func (j *NewsJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := parseTask(payload)
	if err != nil {
		return err
	}
	j.svc.RunAll(ctx, p.Symbols)
	return nil
}

// CleanupJob probes symbols and soft-deactivates dead ones.
type CleanupJob struct {
	svc *usecase.CleanupService
}

func NewCleanupJob(svc *usecase.CleanupService) *CleanupJob {
	return &CleanupJob{svc: svc}
}

func (j *CleanupJob) Name() string { return "symbol_cleanup" }
func (j *CleanupJob) Type() string { return "cleanup" }

func (j *CleanupJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := parseTask(payload)
	if err != nil {
		return err
	}
	j.svc.RunAll(ctx, p.Symbols)
	return nil
}
