package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	pkgch "StockMind/pkg/clickhouse"
	applogger "StockMind/pkg/logger"
)

// CHResultStore persists derived analysis output in ClickHouse. Indicator
// snapshots are last-write-wins per (symbol, ts); scan, forecast and
// sentiment rows are append-only run history.
type CHResultStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHResultStore(ch *pkgch.Client) *CHResultStore {
	return &CHResultStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHResultStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHResultStore) SaveIndicators(ctx context.Context, snap *models.IndicatorSnapshot) error {
	const q = `INSERT INTO indicator_snapshots
		(symbol, ts, close, sma_20, sma_50, sma_200, ema_12, ema_26, rsi_14,
		 macd, macd_signal, macd_hist, bb_upper, bb_middle, bb_lower,
		 atr_14, obv, support, resistance, backend, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		snap.Symbol, snap.Ts, snap.Close,
		snap.SMA20, snap.SMA50, snap.SMA200,
		snap.EMA12, snap.EMA26, snap.RSI14,
		snap.MACD, snap.MACDSignal, snap.MACDHist,
		snap.BBUpper, snap.BBMiddle, snap.BBLower,
		snap.ATR14, snap.OBV, snap.Support, snap.Resistance,
		snap.Backend, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save indicators %s: %w", snap.Symbol, err)
	}
	return nil
}

func (s *CHResultStore) LatestIndicators(ctx context.Context, symbol string) (*models.IndicatorSnapshot, error) {
	const q = `SELECT symbol, ts, close, sma_20, sma_50, sma_200, ema_12, ema_26, rsi_14,
		macd, macd_signal, macd_hist, bb_upper, bb_middle, bb_lower,
		atr_14, obv, support, resistance, backend
		FROM indicator_snapshots FINAL
		WHERE symbol = ?
		ORDER BY ts DESC
		LIMIT 1`
	row := s.db.QueryRowContext(ctx, q, symbol)

	var snap models.IndicatorSnapshot
	err := row.Scan(&snap.Symbol, &snap.Ts, &snap.Close,
		&snap.SMA20, &snap.SMA50, &snap.SMA200,
		&snap.EMA12, &snap.EMA26, &snap.RSI14,
		&snap.MACD, &snap.MACDSignal, &snap.MACDHist,
		&snap.BBUpper, &snap.BBMiddle, &snap.BBLower,
		&snap.ATR14, &snap.OBV, &snap.Support, &snap.Resistance,
		&snap.Backend,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("latest indicators %s: %w", symbol, err)
	}
	return &snap, nil
}

func (s *CHResultStore) SaveScanResults(ctx context.Context, results []models.ScanResult) error {
	if len(results) == 0 {
		return nil
	}

	values := make([]string, 0, len(results))
	args := make([]interface{}, 0, len(results)*14)
	for _, r := range results {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, r.Symbol, r.RunAt, r.Timeframe, r.Price, r.Change, r.ChangePercent,
			r.Volume, r.AvgVolume, r.VolumeRatio,
			boolToU8(r.IsGainer), boolToU8(r.IsLoser), boolToU8(r.IsUnusualVolume), boolToU8(r.IsBreakout),
			r.Sentiment)
	}

	q := `INSERT INTO scan_results
		(symbol, run_at, timeframe, price, change, change_percent, volume, avg_volume, volume_ratio,
		 is_gainer, is_loser, is_unusual_volume, is_breakout, sentiment) VALUES ` +
		strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save scan results: %w", err)
	}

	if s.l != nil {
		s.l.Debug("scan results saved", applogger.Int("rows", len(results)))
	}
	return nil
}

// LatestScan returns the rows of the most recent scan run.
func (s *CHResultStore) LatestScan(ctx context.Context, limit int) ([]models.ScanResult, error) {
	const q = `SELECT symbol, run_at, timeframe, price, change, change_percent, volume, avg_volume, volume_ratio,
		is_gainer, is_loser, is_unusual_volume, is_breakout, sentiment
		FROM scan_results
		WHERE run_at = (SELECT max(run_at) FROM scan_results)
		ORDER BY change_percent DESC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("latest scan: %w", err)
	}
	defer rows.Close()

	out := make([]models.ScanResult, 0, limit)
	for rows.Next() {
		var r models.ScanResult
		var gainer, loser, unusual, breakout uint8
		if err := rows.Scan(&r.Symbol, &r.RunAt, &r.Timeframe, &r.Price, &r.Change, &r.ChangePercent,
			&r.Volume, &r.AvgVolume, &r.VolumeRatio,
			&gainer, &loser, &unusual, &breakout, &r.Sentiment); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		r.IsGainer = gainer == 1
		r.IsLoser = loser == 1
		r.IsUnusualVolume = unusual == 1
		r.IsBreakout = breakout == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHResultStore) SaveForecast(ctx context.Context, f *models.Forecast) error {
	if len(f.Horizons) == 0 {
		return nil
	}

	values := make([]string, 0, len(f.Horizons))
	args := make([]interface{}, 0, len(f.Horizons)*13)
	for _, h := range f.Horizons {
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, f.Symbol, f.GeneratedAt, f.CurrentPrice,
			h.Name, h.Days, h.Price, h.ChangePercent, h.Trend,
			f.BullishScore, f.Sentiment, f.Confidence, f.Risk, f.Volatility)
	}

	q := `INSERT INTO forecasts
		(symbol, generated_at, current_price, horizon_name, horizon_days, price, change_percent, trend,
		 bullish_score, sentiment, confidence, risk, volatility) VALUES ` +
		strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save forecast %s: %w", f.Symbol, err)
	}
	return nil
}

func (s *CHResultStore) LatestForecast(ctx context.Context, symbol string) (*models.Forecast, error) {
	const q = `SELECT symbol, generated_at, current_price, horizon_name, horizon_days, price, change_percent, trend,
		bullish_score, sentiment, confidence, risk, volatility
		FROM forecasts
		WHERE symbol = ? AND generated_at = (SELECT max(generated_at) FROM forecasts WHERE symbol = ?)
		ORDER BY horizon_days ASC`
	rows, err := s.db.QueryContext(ctx, q, symbol, symbol)
	if err != nil {
		return nil, fmt.Errorf("latest forecast %s: %w", symbol, err)
	}
	defer rows.Close()

	var out *models.Forecast
	for rows.Next() {
		var h models.HorizonForecast
		var f models.Forecast
		if err := rows.Scan(&f.Symbol, &f.GeneratedAt, &f.CurrentPrice,
			&h.Name, &h.Days, &h.Price, &h.ChangePercent, &h.Trend,
			&f.BullishScore, &f.Sentiment, &f.Confidence, &f.Risk, &f.Volatility); err != nil {
			return nil, fmt.Errorf("forecast row: %w", err)
		}
		if out == nil {
			out = &f
		}
		out.Horizons = append(out.Horizons, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if out == nil {
		return nil, domrepo.ErrNotFound
	}
	return out, nil
}

// SaveArticles inserts articles, skipping URLs already stored for the
// symbol. Returns the number of new rows.
func (s *CHResultStore) SaveArticles(ctx context.Context, articles []models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	symbol := articles[0].Symbol
	existing, err := s.knownURLs(ctx, symbol)
	if err != nil {
		return 0, err
	}

	values := make([]string, 0, len(articles))
	args := make([]interface{}, 0, len(articles)*6)
	for _, a := range articles {
		if _, seen := existing[a.URL]; seen {
			continue
		}
		existing[a.URL] = struct{}{}
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, a.Symbol, a.URL, a.Title, a.Source, a.Summary, a.PublishedAt)
	}
	if len(values) == 0 {
		return 0, nil
	}

	q := `INSERT INTO news (symbol, url, title, source, summary, published_at) VALUES ` +
		strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return 0, fmt.Errorf("save articles %s: %w", symbol, err)
	}
	return len(values), nil
}

func (s *CHResultStore) knownURLs(ctx context.Context, symbol string) (map[string]struct{}, error) {
	const q = `SELECT url FROM news FINAL WHERE symbol = ?`
	rows, err := s.db.QueryContext(ctx, q, symbol)
	if err != nil {
		return nil, fmt.Errorf("known urls %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make(map[string]struct{}, 256)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("scan url: %w", err)
		}
		out[url] = struct{}{}
	}
	return out, rows.Err()
}

func (s *CHResultStore) RecentArticles(ctx context.Context, symbol string, since time.Time) ([]models.Article, error) {
	const q = `SELECT symbol, url, title, source, summary, published_at
		FROM news FINAL
		WHERE symbol = ? AND published_at >= ?
		ORDER BY published_at DESC`
	rows, err := s.db.QueryContext(ctx, q, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("recent articles %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.Article, 0, 64)
	for rows.Next() {
		var a models.Article
		if err := rows.Scan(&a.Symbol, &a.URL, &a.Title, &a.Source, &a.Summary, &a.PublishedAt); err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *CHResultStore) SaveSentiments(ctx context.Context, results []models.SentimentResult) error {
	if len(results) == 0 {
		return nil
	}

	values := make([]string, 0, len(results))
	args := make([]interface{}, 0, len(results)*6)
	for _, r := range results {
		values = append(values, "(?, ?, ?, ?, ?, ?)")
		args = append(args, r.Symbol, r.URL, r.Score, r.Label, r.Source, r.AnalyzedAt)
	}

	q := `INSERT INTO sentiments (symbol, url, score, label, source, analyzed_at) VALUES ` +
		strings.Join(values, ",")
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("save sentiments: %w", err)
	}
	return nil
}

func (s *CHResultStore) RecentSentiments(ctx context.Context, symbol string, since time.Time) ([]models.SentimentResult, error) {
	const q = `SELECT symbol, url, score, label, source, analyzed_at
		FROM sentiments
		WHERE symbol = ? AND analyzed_at >= ?
		ORDER BY analyzed_at DESC`
	rows, err := s.db.QueryContext(ctx, q, symbol, since)
	if err != nil {
		return nil, fmt.Errorf("recent sentiments %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.SentimentResult, 0, 64)
	for rows.Next() {
		var r models.SentimentResult
		if err := rows.Scan(&r.Symbol, &r.URL, &r.Score, &r.Label, &r.Source, &r.AnalyzedAt); err != nil {
			return nil, fmt.Errorf("scan sentiment: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToU8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
