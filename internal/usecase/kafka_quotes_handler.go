package usecase

import (
	"context"
	"encoding/json"
	"time"

	"Zephyr/internal/domain/models"
	domrepo "Zephyr/internal/domain/repository"
)

// KafkaQuotesHandler consumes tick messages from Kafka and writes them
// to tick storage.
type KafkaQuotesHandler struct {
	topic   string
	storage domrepo.TickStorage
	metrics domrepo.Metrics
}

func NewKafkaQuotesHandler(topic string, storage domrepo.TickStorage, metrics domrepo.Metrics) *KafkaQuotesHandler {
	return &KafkaQuotesHandler{topic: topic, storage: storage, metrics: metrics}
}

func (h *KafkaQuotesHandler) Topic() string { return h.topic }

// incoming message schema: {contract_ticker, timestamp, yes_price, size}
func (h *KafkaQuotesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		ContractTicker string  `json:"contract_ticker"`
		Timestamp      int64   `json:"timestamp"`
		YesPrice       float64 `json:"yes_price"`
		Size           float64 `json:"size"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Timestamp > 1e11 { // ms
		m.Timestamp = m.Timestamp / 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.Unix(m.Timestamp, 0)).Seconds())

	start := time.Now()
	err := h.storage.Store(ctx, &models.QuoteTick{
		ContractTicker: m.ContractTicker,
		Timestamp:      m.Timestamp,
		YesPrice:       m.YesPrice,
		Size:           m.Size,
	})
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordTickStored("clickhouse", m.ContractTicker)
	return nil
}
