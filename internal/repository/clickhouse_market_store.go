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

// CHMarketStore implements MarketStore backed by ClickHouse. Symbols and
// bars live in ReplacingMergeTree tables so re-fetching a session is an
// idempotent upsert keyed by (symbol, ts).
type CHMarketStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHMarketStore(ch *pkgch.Client) *CHMarketStore {
	return &CHMarketStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHMarketStore) SetLogger(l *applogger.Logger) { s.l = l }

// SchemaStatements returns the DDL this store depends on.
func SchemaStatements(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.symbols (
			ticker String,
			name String,
			exchange String,
			currency String,
			kind String,
			active UInt8,
			created_at DateTime,
			updated_at DateTime
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY ticker`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.bars (
			symbol String,
			ts DateTime,
			open Decimal(18, 6),
			high Decimal(18, 6),
			low Decimal(18, 6),
			close Decimal(18, 6),
			volume Int64,
			updated_at DateTime
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY (symbol, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.indicator_snapshots (
			symbol String,
			ts DateTime,
			close Float64,
			sma_20 Nullable(Float64),
			sma_50 Nullable(Float64),
			sma_200 Nullable(Float64),
			ema_12 Nullable(Float64),
			ema_26 Nullable(Float64),
			rsi_14 Nullable(Float64),
			macd Nullable(Float64),
			macd_signal Nullable(Float64),
			macd_hist Nullable(Float64),
			bb_upper Nullable(Float64),
			bb_middle Nullable(Float64),
			bb_lower Nullable(Float64),
			atr_14 Nullable(Float64),
			obv Nullable(Float64),
			support Nullable(Float64),
			resistance Nullable(Float64),
			backend String,
			updated_at DateTime
		) ENGINE = ReplacingMergeTree(updated_at) ORDER BY (symbol, ts)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.scan_results (
			symbol String,
			run_at DateTime,
			timeframe String,
			price Decimal(18, 6),
			change Decimal(18, 6),
			change_percent Decimal(10, 4),
			volume Int64,
			avg_volume Float64,
			volume_ratio Float64,
			is_gainer UInt8,
			is_loser UInt8,
			is_unusual_volume UInt8,
			is_breakout UInt8,
			sentiment String
		) ENGINE = MergeTree ORDER BY (timeframe, run_at, symbol)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.forecasts (
			symbol String,
			generated_at DateTime,
			current_price Float64,
			horizon_name String,
			horizon_days Int32,
			price Float64,
			change_percent Float64,
			trend String,
			bullish_score Float64,
			sentiment String,
			confidence String,
			risk String,
			volatility Float64
		) ENGINE = MergeTree ORDER BY (symbol, generated_at, horizon_days)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.news (
			symbol String,
			url String,
			title String,
			source String,
			summary String,
			published_at DateTime
		) ENGINE = ReplacingMergeTree ORDER BY (symbol, url)`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.sentiments (
			symbol String,
			url String,
			score Float64,
			label String,
			source String,
			analyzed_at DateTime
		) ENGINE = MergeTree ORDER BY (symbol, analyzed_at)`, database),
	}
}

func (s *CHMarketStore) Init(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHMarketStore) UpsertSymbol(ctx context.Context, sym *models.Symbol) error {
	now := time.Now().UTC()
	if sym.CreatedAt.IsZero() {
		sym.CreatedAt = now
	}
	sym.UpdatedAt = now

	active := uint8(0)
	if sym.Active {
		active = 1
	}
	const q = `INSERT INTO symbols (ticker, name, exchange, currency, kind, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, sym.Ticker, sym.Name, sym.Exchange, sym.Currency,
		sym.Kind, active, sym.CreatedAt, sym.UpdatedAt); err != nil {
		return fmt.Errorf("upsert symbol %s: %w", sym.Ticker, err)
	}
	return nil
}

func (s *CHMarketStore) GetSymbol(ctx context.Context, ticker string) (*models.Symbol, error) {
	const q = `SELECT ticker, name, exchange, currency, kind, active, created_at, updated_at
		FROM symbols FINAL WHERE ticker = ?`
	row := s.db.QueryRowContext(ctx, q, ticker)

	var sym models.Symbol
	var active uint8
	err := row.Scan(&sym.Ticker, &sym.Name, &sym.Exchange, &sym.Currency, &sym.Kind, &active, &sym.CreatedAt, &sym.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domrepo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get symbol %s: %w", ticker, err)
	}
	sym.Active = active == 1
	return &sym, nil
}

func (s *CHMarketStore) ListSymbols(ctx context.Context, activeOnly bool) ([]models.Symbol, error) {
	q := `SELECT ticker, name, exchange, currency, kind, active, created_at, updated_at FROM symbols FINAL`
	if activeOnly {
		q += ` WHERE active = 1`
	}
	q += ` ORDER BY ticker ASC`

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}
	defer rows.Close()

	return scanSymbols(rows)
}

func (s *CHMarketStore) SearchSymbols(ctx context.Context, query string, limit int) ([]models.Symbol, error) {
	const q = `SELECT ticker, name, exchange, currency, kind, active, created_at, updated_at
		FROM symbols FINAL
		WHERE positionCaseInsensitive(ticker, ?) > 0 OR positionCaseInsensitive(name, ?) > 0
		ORDER BY ticker ASC
		LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, query, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search symbols %q: %w", query, err)
	}
	defer rows.Close()

	return scanSymbols(rows)
}

func scanSymbols(rows *sql.Rows) ([]models.Symbol, error) {
	out := make([]models.Symbol, 0, 64)
	for rows.Next() {
		var sym models.Symbol
		var active uint8
		if err := rows.Scan(&sym.Ticker, &sym.Name, &sym.Exchange, &sym.Currency,
			&sym.Kind, &active, &sym.CreatedAt, &sym.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		sym.Active = active == 1
		out = append(out, sym)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

// DeactivateSymbol soft-disables a symbol. History stays queryable.
func (s *CHMarketStore) DeactivateSymbol(ctx context.Context, ticker string) error {
	sym, err := s.GetSymbol(ctx, ticker)
	if err != nil {
		return err
	}
	sym.Active = false
	return s.UpsertSymbol(ctx, sym)
}

func (s *CHMarketStore) UpsertBars(ctx context.Context, bars []models.Bar) error {
	if len(bars) == 0 {
		return nil
	}
	start := time.Now()
	now := start.UTC()

	// Multi-row VALUES to reduce round-trips. ReplacingMergeTree makes
	// replays idempotent per (symbol, ts).
	const chunkSize = 2000
	for lo := 0; lo < len(bars); lo += chunkSize {
		hi := lo + chunkSize
		if hi > len(bars) {
			hi = len(bars)
		}

		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*8)
		for _, b := range bars[lo:hi] {
			if b.Symbol == "" || b.Ts.IsZero() {
				continue
			}
			updated := b.UpdatedAt
			if updated.IsZero() {
				updated = now
			}
			values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?)")
			args = append(args, b.Symbol, b.Ts, b.Open, b.High, b.Low, b.Close, b.Volume, updated)
		}
		if len(values) == 0 {
			continue
		}

		q := "INSERT INTO bars (symbol, ts, open, high, low, close, volume, updated_at) VALUES " +
			strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("upsert bars: %w", err)
		}
	}

	if s.l != nil {
		s.l.Debug("bars upserted",
			applogger.String("symbol", bars[0].Symbol),
			applogger.Int("rows", len(bars)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

// GetBars returns the latest n bars in ascending time order.
func (s *CHMarketStore) GetBars(ctx context.Context, symbol string, n int) ([]models.Bar, error) {
	const q = `SELECT symbol, ts, open, high, low, close, volume, updated_at
		FROM (
			SELECT symbol, ts, open, high, low, close, volume, updated_at
			FROM bars FINAL
			WHERE symbol = ?
			ORDER BY ts DESC
			LIMIT ?
		)
		ORDER BY ts ASC`
	rows, err := s.db.QueryContext(ctx, q, symbol, n)
	if err != nil {
		return nil, fmt.Errorf("get bars %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]models.Bar, 0, n)
	for rows.Next() {
		var b models.Bar
		if err := rows.Scan(&b.Symbol, &b.Ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHMarketStore) Close() error {
	return nil // Client lifetime is owned by DI
}
