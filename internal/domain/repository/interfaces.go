package repository

import (
	"context"
	"errors"
	"time"

	"StockMind/internal/domain/models"
)

// ErrNotFound is returned by stores and providers when the requested
// entity does not exist.
var ErrNotFound = errors.New("not found")

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// MarketStore persists symbols and OHLCV history.
type MarketStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	UpsertSymbol(ctx context.Context, s *models.Symbol) error
	GetSymbol(ctx context.Context, ticker string) (*models.Symbol, error)
	ListSymbols(ctx context.Context, activeOnly bool) ([]models.Symbol, error)
	SearchSymbols(ctx context.Context, query string, limit int) ([]models.Symbol, error)
	DeactivateSymbol(ctx context.Context, ticker string) error
	UpsertBars(ctx context.Context, bars []models.Bar) error
	GetBars(ctx context.Context, symbol string, n int) ([]models.Bar, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// ResultStore persists derived analysis output.
type ResultStore interface {
	SaveIndicators(ctx context.Context, snap *models.IndicatorSnapshot) error
	LatestIndicators(ctx context.Context, symbol string) (*models.IndicatorSnapshot, error)
	SaveScanResults(ctx context.Context, results []models.ScanResult) error
	LatestScan(ctx context.Context, limit int) ([]models.ScanResult, error)
	SaveForecast(ctx context.Context, f *models.Forecast) error
	LatestForecast(ctx context.Context, symbol string) (*models.Forecast, error)
	SaveArticles(ctx context.Context, articles []models.Article) (int, error)
	RecentArticles(ctx context.Context, symbol string, since time.Time) ([]models.Article, error)
	SaveSentiments(ctx context.Context, results []models.SentimentResult) error
	RecentSentiments(ctx context.Context, symbol string, since time.Time) ([]models.SentimentResult, error)
}

// Publisher emits outbound events for downstream consumers.
type Publisher interface {
	PublishQuote(ctx context.Context, q *models.Quote) error
	PublishIndicators(ctx context.Context, snap *models.IndicatorSnapshot) error
	PublishScanResults(ctx context.Context, results []models.ScanResult) error
	PublishForecast(ctx context.Context, f *models.Forecast) error
	PublishSentiment(ctx context.Context, s *models.SentimentSummary) error
	Close() error
}

type Metrics interface {
	RecordFetch(kind, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
	RecordBatchUnit(task, status string)
	RecordCacheLookup(kind, result string)
}
