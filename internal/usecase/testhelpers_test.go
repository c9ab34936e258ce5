package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	applogger "StockMind/pkg/logger"
)

func newTestLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type noopMetrics struct{}

func (noopMetrics) RecordFetch(string, string)       {}
func (noopMetrics) RecordError(string)               {}
func (noopMetrics) RecordLastPrice(string, float64)  {}
func (noopMetrics) RecordLatency(string, float64)    {}
func (noopMetrics) RecordBatchUnit(string, string)   {}
func (noopMetrics) RecordCacheLookup(string, string) {}

// fakeStore is an in-memory MarketStore.
type fakeStore struct {
	mu          sync.Mutex
	symbols     map[string]*models.Symbol
	bars        map[string][]models.Bar
	searchHits  []models.Symbol
	searchCalls int
	deactivated []string
	barsErr     error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		symbols: make(map[string]*models.Symbol),
		bars:    make(map[string][]models.Bar),
	}
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) UpsertSymbol(_ context.Context, sym *models.Symbol) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.symbols[sym.Ticker] = sym
	return nil
}

func (s *fakeStore) GetSymbol(_ context.Context, ticker string) (*models.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sym, ok := s.symbols[ticker]
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	return sym, nil
}

func (s *fakeStore) ListSymbols(_ context.Context, activeOnly bool) ([]models.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Symbol, 0, len(s.symbols))
	for _, sym := range s.symbols {
		if activeOnly && !sym.Active {
			continue
		}
		out = append(out, *sym)
	}
	return out, nil
}

func (s *fakeStore) SearchSymbols(context.Context, string, int) ([]models.Symbol, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchCalls++
	return s.searchHits, nil
}

func (s *fakeStore) DeactivateSymbol(_ context.Context, ticker string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sym, ok := s.symbols[ticker]
	if !ok {
		return domrepo.ErrNotFound
	}
	sym.Active = false
	s.deactivated = append(s.deactivated, ticker)
	return nil
}

func (s *fakeStore) UpsertBars(_ context.Context, bars []models.Bar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range bars {
		s.bars[b.Symbol] = append(s.bars[b.Symbol], b)
	}
	return nil
}

func (s *fakeStore) GetBars(_ context.Context, symbol string, n int) ([]models.Bar, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.barsErr != nil {
		return nil, s.barsErr
	}
	bars := s.bars[symbol]
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func (s *fakeStore) Health(context.Context) error { return nil }
func (s *fakeStore) Close() error                 { return nil }

// fakeResults records derived output.
type fakeResults struct {
	mu         sync.Mutex
	snapshots  map[string]*models.IndicatorSnapshot
	scans      []models.ScanResult
	forecasts  map[string]*models.Forecast
	articles   []models.Article
	sentiments []models.SentimentResult
}

func newFakeResults() *fakeResults {
	return &fakeResults{
		snapshots: make(map[string]*models.IndicatorSnapshot),
		forecasts: make(map[string]*models.Forecast),
	}
}

func (r *fakeResults) SaveIndicators(_ context.Context, snap *models.IndicatorSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.Symbol] = snap
	return nil
}

func (r *fakeResults) LatestIndicators(_ context.Context, symbol string) (*models.IndicatorSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap, ok := r.snapshots[symbol]
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	return snap, nil
}

func (r *fakeResults) SaveScanResults(_ context.Context, rows []models.ScanResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scans = append(r.scans, rows...)
	return nil
}

func (r *fakeResults) LatestScan(_ context.Context, limit int) ([]models.ScanResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := r.scans
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (r *fakeResults) SaveForecast(_ context.Context, f *models.Forecast) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forecasts[f.Symbol] = f
	return nil
}

func (r *fakeResults) LatestForecast(_ context.Context, symbol string) (*models.Forecast, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forecasts[symbol]
	if !ok {
		return nil, domrepo.ErrNotFound
	}
	return f, nil
}

func (r *fakeResults) SaveArticles(_ context.Context, articles []models.Article) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.articles = append(r.articles, articles...)
	return len(articles), nil
}

func (r *fakeResults) RecentArticles(_ context.Context, symbol string, since time.Time) ([]models.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Article, 0)
	for _, a := range r.articles {
		if a.Symbol == symbol && !a.PublishedAt.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeResults) SaveSentiments(_ context.Context, results []models.SentimentResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sentiments = append(r.sentiments, results...)
	return nil
}

func (r *fakeResults) RecentSentiments(_ context.Context, symbol string, since time.Time) ([]models.SentimentResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.SentimentResult, 0)
	for _, s := range r.sentiments {
		if s.Symbol == symbol && !s.AnalyzedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeProvider counts calls and serves canned answers.
type fakeProvider struct {
	mu          sync.Mutex
	quoteCalls  int
	searchCalls int
	quote       *models.Quote
	quoteErr    error
	candidates  []models.SymbolCandidate
}

func (p *fakeProvider) Quote(context.Context, string) (*models.Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quoteCalls++
	if p.quoteErr != nil {
		return nil, p.quoteErr
	}
	return p.quote, nil
}

func (p *fakeProvider) History(context.Context, string, domrepo.Range) ([]models.Bar, error) {
	return nil, nil
}

func (p *fakeProvider) Overview(context.Context, string) (*models.Overview, error) {
	return nil, domrepo.ErrNotFound
}

func (p *fakeProvider) Search(context.Context, string) ([]models.SymbolCandidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.searchCalls++
	return p.candidates, nil
}

// fakePublisher counts published events.
type fakePublisher struct {
	mu         sync.Mutex
	quotes     int
	indicators int
	scans      int
	forecasts  int
	sentiments int
}

func (p *fakePublisher) PublishQuote(context.Context, *models.Quote) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quotes++
	return nil
}

func (p *fakePublisher) PublishIndicators(context.Context, *models.IndicatorSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indicators++
	return nil
}

func (p *fakePublisher) PublishScanResults(context.Context, []models.ScanResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scans++
	return nil
}

func (p *fakePublisher) PublishForecast(context.Context, *models.Forecast) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.forecasts++
	return nil
}

func (p *fakePublisher) PublishSentiment(context.Context, *models.SentimentSummary) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sentiments++
	return nil
}

func (p *fakePublisher) Close() error { return nil }
