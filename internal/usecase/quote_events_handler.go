package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockMind/internal/domain/models"
	domrepo "StockMind/internal/domain/repository"
	pkgkafka "StockMind/pkg/kafka"
)

// KafkaTicksHandler consumes inbound tick events and upserts them into
// the current session's bar. This is the path for external feeds that
// publish to Kafka instead of the WebSocket stream.
type KafkaTicksHandler struct {
	topic   string
	proc    *TickProcessor
	metrics domrepo.Metrics
}

func NewKafkaTicksHandler(topic string, proc *TickProcessor, metrics domrepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, proc: proc, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {symbol, t, c, v}
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Symbol string  `json:"symbol"`
		T      int64   `json:"t"`
		C      float64 `json:"c"`
		V      float64 `json:"v"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T > 1e11 { // ms
		m.T = m.T / 1000
	}
	// E2E latency from event time to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.T, 0)).Seconds())

	start := time.Now()
	err := h.proc.Process(ctx, &models.Tick{
		Symbol:    m.Symbol,
		Price:     m.C,
		Volume:    m.V,
		Timestamp: time.Unix(m.T, 0).UTC(),
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordFetch("tick_event", m.Symbol)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
