package usecase

import (
	"context"
	"fmt"
	"time"

	"Zephyr/internal/domain/models"
	drepo "Zephyr/internal/domain/repository"
)

// QuoteProcessor routes quote ticks to the configured backend.
type QuoteProcessor struct {
	pub     drepo.Publisher
	store   drepo.TickStorage
	metrics drepo.Metrics
	backend string
}

// NewQuoteProcessor creates a new QuoteProcessor instance.
func NewQuoteProcessor(
	pub drepo.Publisher,
	store drepo.TickStorage,
	metrics drepo.Metrics,
	backend string,
) *QuoteProcessor {
	return &QuoteProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// Close releases the backend the processor routes to.
func (p *QuoteProcessor) Close() {
	switch p.backend {
	case "kafka":
		if p.pub != nil {
			_ = p.pub.Close()
		}
	case "clickhouse":
		if p.store != nil {
			_ = p.store.Close()
		}
	}
}

// Process routes a single tick to the configured backend.
func (p *QuoteProcessor) Process(ctx context.Context, t *models.QuoteTick) error {
	if t == nil {
		return fmt.Errorf("tick is nil")
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.Publish(ctx, t)
	case "clickhouse":
		err = p.store.Store(ctx, t)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process tick: %w", err)
	}

	p.metrics.RecordTickStored(p.backend, t.ContractTicker)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())

	return nil
}

// ProcessBatch routes multiple ticks in a batch.
func (p *QuoteProcessor) ProcessBatch(ctx context.Context, ticks []*models.QuoteTick) error {
	if len(ticks) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, ticks)
	case "clickhouse":
		err = p.store.StoreBatch(ctx, ticks)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process tick batch: %w", err)
	}

	for _, t := range ticks {
		p.metrics.RecordTickStored(p.backend, t.ContractTicker)
	}
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}
