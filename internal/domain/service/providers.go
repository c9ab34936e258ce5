package service

import (
	"context"
	"time"

	"StockMind/internal/domain/models"
	"StockMind/internal/domain/repository"
)

// QuoteProvider fetches market data from an upstream source.
type QuoteProvider interface {
	Quote(ctx context.Context, symbol string) (*models.Quote, error)
	History(ctx context.Context, symbol string, rng repository.Range) ([]models.Bar, error)
	Overview(ctx context.Context, symbol string) (*models.Overview, error)
	Search(ctx context.Context, query string) ([]models.SymbolCandidate, error)
}

// NewsProvider fetches recent articles for a symbol.
type NewsProvider interface {
	Fetch(ctx context.Context, symbol string, since time.Time, pageSize int) ([]models.Article, error)
}

// SentimentAnalyzer scores a piece of text. Implementations fill Score,
// Label and Source; the caller attaches symbol and URL.
type SentimentAnalyzer interface {
	Analyze(ctx context.Context, text string) (*models.SentimentResult, error)
}
