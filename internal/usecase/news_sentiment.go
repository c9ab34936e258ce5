package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	domservice "StockMind/internal/domain/service"
	applogger "StockMind/pkg/logger"
)

// NewsSentimentService ingests articles per symbol and scores new ones.
// The model analyzer is preferred; the lexicon analyzer takes over per
// article when the model is unavailable, so a provider outage degrades
// quality instead of dropping the run.
type NewsSentimentService struct {
	news     domservice.NewsProvider
	model    domservice.SentimentAnalyzer
	fallback domservice.SentimentAnalyzer
	results  domrepo.ResultStore
	pub      domrepo.Publisher
	runner   *BatchRunner
	daysBack int
	pageSize int
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

func NewNewsSentimentService(news domservice.NewsProvider, model, fallback domservice.SentimentAnalyzer,
	results domrepo.ResultStore, pub domrepo.Publisher, runner *BatchRunner, daysBack, pageSize int,
	metrics domrepo.Metrics, l *applogger.Logger) *NewsSentimentService {
	if daysBack <= 0 {
		daysBack = 7
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NewsSentimentService{
		news: news, model: model, fallback: fallback, results: results, pub: pub,
		runner: runner, daysBack: daysBack, pageSize: pageSize, metrics: metrics, l: l,
	}
}

// ProcessSymbol fetches, dedups, stores and scores articles for one
// symbol. Already-seen URLs are neither re-stored nor re-scored.
func (s *NewsSentimentService) ProcessSymbol(ctx context.Context, symbol string) error {
	since := time.Now().UTC().AddDate(0, 0, -s.daysBack)

	articles, err := s.news.Fetch(ctx, symbol, since, s.pageSize)
	if err != nil {
		return fmt.Errorf("fetch news: %w", err)
	}
	if len(articles) == 0 {
		return nil
	}

	known, err := s.results.RecentArticles(ctx, symbol, since.AddDate(0, 0, -1))
	if err != nil {
		return fmt.Errorf("load known articles: %w", err)
	}
	seen := make(map[string]struct{}, len(known))
	for _, a := range known {
		seen[a.URL] = struct{}{}
	}

	fresh := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.URL]; ok {
			continue
		}
		seen[a.URL] = struct{}{}
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		return nil
	}

	if _, err := s.results.SaveArticles(ctx, fresh); err != nil {
		return fmt.Errorf("save articles: %w", err)
	}

	scored := make([]models.SentimentResult, 0, len(fresh))
	for _, a := range fresh {
		res := s.analyze(ctx, a)
		if res == nil {
			continue
		}
		res.Symbol = a.Symbol
		res.URL = a.URL
		scored = append(scored, *res)
	}
	if len(scored) == 0 {
		return nil
	}

	if err := s.results.SaveSentiments(ctx, scored); err != nil {
		return fmt.Errorf("save sentiments: %w", err)
	}

	if s.pub != nil {
		if sum, err := s.Summary(ctx, symbol); err == nil {
			if err := s.pub.PublishSentiment(ctx, sum); err != nil {
				s.l.Warn("sentiment publish failed", applogger.String("symbol", symbol), applogger.Error(err))
			}
		}
	}

	s.l.Info("news scored",
		applogger.String("symbol", symbol),
		applogger.Int("articles", len(fresh)),
		applogger.Int("scored", len(scored)),
	)
	return nil
}

func (s *NewsSentimentService) analyze(ctx context.Context, a models.Article) *models.SentimentResult {
	text := a.Title
	if a.Summary != "" {
		text = strings.TrimSpace(a.Title + ". " + a.Summary)
	}

	if s.model != nil {
		if res, err := s.model.Analyze(ctx, text); err == nil {
			return res
		} else {
			s.metrics.RecordError("sentiment_model")
			s.l.Warn("model sentiment failed, falling back",
				applogger.String("symbol", a.Symbol), applogger.Error(err))
		}
	}
	if s.fallback == nil {
		return nil
	}
	res, err := s.fallback.Analyze(ctx, text)
	if err != nil {
		s.metrics.RecordError("sentiment_fallback")
		return nil
	}
	return res
}

// summaryThreshold turns an average article score into an overall
// label: beyond it either way the symbol's news skews, inside it the
// coverage reads neutral.
const summaryThreshold = 0.2

// Summary aggregates the symbol's article scores over the lookback
// window into one average and label.
func (s *NewsSentimentService) Summary(ctx context.Context, symbol string) (*models.SentimentSummary, error) {
	since := time.Now().UTC().AddDate(0, 0, -s.daysBack)

	scored, err := s.results.RecentSentiments(ctx, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("load sentiments: %w", err)
	}
	if len(scored) == 0 {
		return nil, fmt.Errorf("sentiment summary %s: %w", symbol, domrepo.ErrNotFound)
	}

	var total float64
	for _, r := range scored {
		total += r.Score
	}
	avg := total / float64(len(scored))

	label := "neutral"
	switch {
	case avg >= summaryThreshold:
		label = "positive"
	case avg <= -summaryThreshold:
		label = "negative"
	}

	return &models.SentimentSummary{
		Symbol:    symbol,
		Articles:  len(scored),
		AvgScore:  avg,
		Label:     label,
		Since:     since,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// RunAll processes news for every symbol through the batch runner.
func (s *NewsSentimentService) RunAll(ctx context.Context, symbols []string) *models.BatchReport {
	return s.runner.Run(ctx, "news", symbols, s.ProcessSymbol)
}
