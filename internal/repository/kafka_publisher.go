package repository

import (
	"context"
	"fmt"
	"time"

	"StockMind/internal/domain/models"
	"StockMind/internal/domain/repository"
	pkgkafka "StockMind/pkg/kafka"
)

// KafkaPublisher emits market events to the outbound events topic. Every
// event carries a kind tag so a single topic can multiplex quote,
// indicator, scan, forecast and sentiment payloads; keying by symbol
// keeps per-symbol ordering.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

type event struct {
	Kind      string      `json:"kind"`
	EmittedAt time.Time   `json:"emitted_at"`
	Payload   interface{} `json:"payload"`
}

func (p *KafkaPublisher) PublishQuote(ctx context.Context, q *models.Quote) error {
	e := event{Kind: "quote", EmittedAt: time.Now().UTC(), Payload: q}
	if err := p.producer.Publish(ctx, p.topic, []byte(q.Symbol), e); err != nil {
		return fmt.Errorf("publish quote %s: %w", q.Symbol, err)
	}
	return nil
}

func (p *KafkaPublisher) PublishIndicators(ctx context.Context, snap *models.IndicatorSnapshot) error {
	e := event{Kind: "indicators", EmittedAt: time.Now().UTC(), Payload: snap}
	if err := p.producer.Publish(ctx, p.topic, []byte(snap.Symbol), e); err != nil {
		return fmt.Errorf("publish indicators %s: %w", snap.Symbol, err)
	}
	return nil
}

func (p *KafkaPublisher) PublishScanResults(ctx context.Context, results []models.ScanResult) error {
	if len(results) == 0 {
		return nil
	}
	e := event{Kind: "scan", EmittedAt: time.Now().UTC(), Payload: results}
	if err := p.producer.Publish(ctx, p.topic, []byte("scan"), e); err != nil {
		return fmt.Errorf("publish scan results: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) PublishForecast(ctx context.Context, f *models.Forecast) error {
	e := event{Kind: "forecast", EmittedAt: time.Now().UTC(), Payload: f}
	if err := p.producer.Publish(ctx, p.topic, []byte(f.Symbol), e); err != nil {
		return fmt.Errorf("publish forecast %s: %w", f.Symbol, err)
	}
	return nil
}

func (p *KafkaPublisher) PublishSentiment(ctx context.Context, s *models.SentimentSummary) error {
	e := event{Kind: "sentiment", EmittedAt: time.Now().UTC(), Payload: s}
	if err := p.producer.Publish(ctx, p.topic, []byte(s.Symbol), e); err != nil {
		return fmt.Errorf("publish sentiment %s: %w", s.Symbol, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
