package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	"StockMind/internal/service/sentiment"
)

type fakeNews struct {
	articles []models.Article
	calls    int
}

func (f *fakeNews) Fetch(_ context.Context, _ string, _ time.Time, _ int) ([]models.Article, error) {
	f.calls++
	return f.articles, nil
}

type failingAnalyzer struct{ calls int }

func (f *failingAnalyzer) Analyze(context.Context, string) (*models.SentimentResult, error) {
	f.calls++
	return nil, errors.New("quota exhausted")
}

func newsArticle(symbol, url, title string, published time.Time) models.Article {
	return models.Article{Symbol: symbol, URL: url, Title: title, Source: "wire", PublishedAt: published}
}

func TestNewsPipelineScoresFreshArticles(t *testing.T) {
	now := time.Now().UTC()
	news := &fakeNews{articles: []models.Article{
		newsArticle("AAPL", "https://example.com/a", "Shares surge on strong growth", now),
		newsArticle("AAPL", "https://example.com/b", "Outlook dims as losses mount", now),
	}}
	results := newFakeResults()
	runner := NewBatchRunner(1, time.Second, noopMetrics{}, newTestLogger(t))

	svc := NewNewsSentimentService(news, nil, sentiment.NewLexicon(), results, nil, runner, 7, 20, noopMetrics{}, newTestLogger(t))

	if err := svc.ProcessSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(results.articles) != 2 {
		t.Fatalf("expected 2 stored articles, got %d", len(results.articles))
	}
	if len(results.sentiments) != 2 {
		t.Fatalf("expected 2 sentiments, got %d", len(results.sentiments))
	}
	for _, s := range results.sentiments {
		if s.Symbol != "AAPL" || s.URL == "" {
			t.Fatalf("sentiment missing attribution: %+v", s)
		}
		if s.Source != "lexicon" {
			t.Fatalf("source = %s, want lexicon", s.Source)
		}
	}
}

func TestNewsPipelineDedupsSeenURLs(t *testing.T) {
	now := time.Now().UTC()
	article := newsArticle("AAPL", "https://example.com/a", "Shares surge", now)

	news := &fakeNews{articles: []models.Article{article}}
	results := newFakeResults()
	results.articles = append(results.articles, article)
	runner := NewBatchRunner(1, time.Second, noopMetrics{}, newTestLogger(t))

	svc := NewNewsSentimentService(news, nil, sentiment.NewLexicon(), results, nil, runner, 7, 20, noopMetrics{}, newTestLogger(t))

	if err := svc.ProcessSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(results.articles) != 1 {
		t.Fatalf("seen article must not be re-stored, got %d", len(results.articles))
	}
	if len(results.sentiments) != 0 {
		t.Fatalf("seen article must not be re-scored, got %d", len(results.sentiments))
	}
}

func TestNewsPipelineFallsBackWhenModelFails(t *testing.T) {
	now := time.Now().UTC()
	news := &fakeNews{articles: []models.Article{
		newsArticle("AAPL", "https://example.com/a", "Shares surge on strong growth", now),
	}}
	results := newFakeResults()
	model := &failingAnalyzer{}
	runner := NewBatchRunner(1, time.Second, noopMetrics{}, newTestLogger(t))

	svc := NewNewsSentimentService(news, model, sentiment.NewLexicon(), results, nil, runner, 7, 20, noopMetrics{}, newTestLogger(t))

	if err := svc.ProcessSymbol(context.Background(), "AAPL"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if model.calls != 1 {
		t.Fatalf("model should be tried first, calls=%d", model.calls)
	}
	if len(results.sentiments) != 1 || results.sentiments[0].Source != "lexicon" {
		t.Fatalf("expected lexicon fallback, got %+v", results.sentiments)
	}
}

func newSummaryService(t *testing.T, results *fakeResults) *NewsSentimentService {
	t.Helper()
	runner := NewBatchRunner(1, time.Second, noopMetrics{}, newTestLogger(t))
	return NewNewsSentimentService(&fakeNews{}, nil, sentiment.NewLexicon(), results, nil, runner, 7, 20, noopMetrics{}, newTestLogger(t))
}

func storedSentiment(symbol string, score float64, age time.Duration) models.SentimentResult {
	return models.SentimentResult{
		Symbol:     symbol,
		URL:        "https://example.com/" + symbol,
		Score:      score,
		Source:     "lexicon",
		AnalyzedAt: time.Now().UTC().Add(-age),
	}
}

func TestSentimentSummaryAveragesWindow(t *testing.T) {
	results := newFakeResults()
	results.sentiments = []models.SentimentResult{
		storedSentiment("AAPL", 0.9, time.Hour),
		storedSentiment("AAPL", 0.3, 2*time.Hour),
		storedSentiment("AAPL", -0.3, 3*time.Hour),
		storedSentiment("AAPL", 0.8, 30*24*time.Hour), // outside the window
		storedSentiment("MSFT", -1.0, time.Hour),      // other symbol
	}
	svc := newSummaryService(t, results)

	sum, err := svc.Summary(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Articles != 3 {
		t.Fatalf("articles = %d, want 3", sum.Articles)
	}
	if diff := sum.AvgScore - 0.3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("avg = %v, want 0.3", sum.AvgScore)
	}
	if sum.Label != "positive" {
		t.Fatalf("label = %s, want positive", sum.Label)
	}
}

func TestSentimentSummaryNeutralInsideThreshold(t *testing.T) {
	results := newFakeResults()
	results.sentiments = []models.SentimentResult{
		storedSentiment("AAPL", 0.1, time.Hour),
		storedSentiment("AAPL", -0.25, 2*time.Hour),
	}
	svc := newSummaryService(t, results)

	sum, err := svc.Summary(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Label != "neutral" {
		t.Fatalf("label = %s, want neutral", sum.Label)
	}
}

func TestSentimentSummaryNotFoundWithoutCoverage(t *testing.T) {
	svc := newSummaryService(t, newFakeResults())

	if _, err := svc.Summary(context.Background(), "AAPL"); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
