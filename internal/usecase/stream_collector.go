package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"StockMind/internal/domain/models"
	drepo "StockMind/internal/domain/repository"
	mid "StockMind/internal/middleware"
	"StockMind/pkg/util"
)

// TickProcessor folds realtime ticks into the current session's daily
// bar. The bars table is last-write-wins per (symbol, ts), so each
// flush simply replaces today's row.
type TickProcessor struct {
	store   drepo.MarketStore
	metrics drepo.Metrics

	mu      sync.Mutex
	session map[string]*models.Bar
}

func NewTickProcessor(store drepo.MarketStore, metrics drepo.Metrics) *TickProcessor {
	return &TickProcessor{store: store, metrics: metrics, session: make(map[string]*models.Bar)}
}

func (p *TickProcessor) Process(ctx context.Context, t *models.Tick) error {
	day := util.SessionStart(t.Timestamp)
	price := decimal.NewFromFloat(t.Price)

	p.mu.Lock()
	bar, ok := p.session[t.Symbol]
	if !ok || !bar.Ts.Equal(day) {
		bar = &models.Bar{
			Symbol: t.Symbol,
			Ts:     day,
			Open:   price,
			High:   price,
			Low:    price,
		}
		p.session[t.Symbol] = bar
	}
	if price.GreaterThan(bar.High) {
		bar.High = price
	}
	if price.LessThan(bar.Low) {
		bar.Low = price
	}
	bar.Close = price
	bar.Volume += int64(t.Volume)
	bar.UpdatedAt = time.Now().UTC()
	snapshot := *bar
	p.mu.Unlock()

	p.metrics.RecordLastPrice(t.Symbol, t.Price)

	if err := p.store.UpsertBars(ctx, []models.Bar{snapshot}); err != nil {
		p.metrics.RecordError("tick_store")
		return err
	}
	return nil
}

// StreamCollector pulls ticks from the market stream through the ingest
// pipeline.
type StreamCollector struct {
	stream  drepo.MarketStream
	proc    *TickProcessor
	metrics drepo.Metrics
	pipe    *mid.IngestPipeline
}

func NewStreamCollector(stream drepo.MarketStream, proc *TickProcessor, metrics drepo.Metrics, pipe *mid.IngestPipeline) *StreamCollector {
	return &StreamCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *StreamCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *StreamCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *StreamCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
				_ = c.stream.Reconnect(ctx)
			}
		case t := <-tickCh:
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.proc.Process(ctx, t)
			}
		}
	}
}

// Shutdown stops the pipeline and closes the stream.
func (c *StreamCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
