package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"Zephyr/internal/domain/models"
	"Zephyr/internal/domain/repository"
	pkgkafka "Zephyr/pkg/kafka"
)

// TickSchema returns idempotent DDL for the streamed quote tick table.
func TickSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS quote_ticks (
			ts DateTime,
			contract_ticker String,
			yes_price Float64,
			size Float64,
			source String
		) ENGINE = MergeTree
		PARTITION BY toYYYYMMDD(ts)
		ORDER BY (contract_ticker, ts)`,
	}
}

// ClickHouseTickStorage implements TickStorage on ClickHouse.
type ClickHouseTickStorage struct {
	db     *sql.DB
	table  string
	source string
}

// NewClickHouseTickStorage creates tick storage over an existing pool.
func NewClickHouseTickStorage(db *sql.DB, table, source string) repository.TickStorage {
	if table == "" {
		table = "quote_ticks"
	}
	return &ClickHouseTickStorage{db: db, table: table, source: source}
}

func (s *ClickHouseTickStorage) Store(ctx context.Context, t *models.QuoteTick) error {
	q := fmt.Sprintf("INSERT INTO %s (ts, contract_ticker, yes_price, size, source) VALUES (?, ?, ?, ?, ?)", s.table)
	_, err := s.db.ExecContext(ctx, q,
		time.Unix(t.Timestamp, 0),
		t.ContractTicker,
		t.YesPrice,
		t.Size,
		s.source,
	)
	return err
}

func (s *ClickHouseTickStorage) StoreBatch(ctx context.Context, ticks []*models.QuoteTick) error {
	if len(ticks) == 0 {
		return nil
	}
	// Multi-row VALUES insert to keep round-trips down.
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*5)
		for _, t := range ticks[start:end] {
			if t == nil || t.ContractTicker == "" || t.Timestamp == 0 {
				continue
			}
			values = append(values, "(?, ?, ?, ?, ?)")
			args = append(args,
				time.Unix(t.Timestamp, 0),
				t.ContractTicker,
				t.YesPrice,
				t.Size,
				s.source,
			)
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO %s (ts, contract_ticker, yes_price, size, source) VALUES %s",
			s.table, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (s *ClickHouseTickStorage) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *ClickHouseTickStorage) Close() error {
	return nil // pool is managed by pkg/clickhouse
}

// KafkaQuotePublisher implements Publisher on Kafka.
type KafkaQuotePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaQuotePublisher creates the publisher.
func NewKafkaQuotePublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaQuotePublisher{producer: producer, topic: topic}
}

func (p *KafkaQuotePublisher) Publish(ctx context.Context, t *models.QuoteTick) error {
	return p.producer.Publish(ctx, p.topic, []byte(t.ContractTicker), map[string]interface{}{
		"contract_ticker": t.ContractTicker,
		"timestamp":       t.Timestamp,
		"yes_price":       t.YesPrice,
		"size":            t.Size,
	})
}

func (p *KafkaQuotePublisher) PublishBatch(ctx context.Context, ticks []*models.QuoteTick) error {
	if len(ticks) == 0 {
		return nil
	}
	messages := make([]pkgkafka.Message, 0, len(ticks))
	for _, t := range ticks {
		if t == nil {
			continue
		}
		messages = append(messages, pkgkafka.Message{
			Key: []byte(t.ContractTicker),
			Value: map[string]interface{}{
				"contract_ticker": t.ContractTicker,
				"timestamp":       t.Timestamp,
				"yes_price":       t.YesPrice,
				"size":            t.Size,
			},
		})
	}
	return p.producer.PublishBatch(ctx, p.topic, messages)
}

func (p *KafkaQuotePublisher) Close() error {
	return p.producer.Close()
}
