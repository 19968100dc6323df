package repository

import (
	"context"
	"time"

	"Zephyr/internal/domain/models"
)

// QuoteStream is a live feed of contract price updates.
type QuoteStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.QuoteTick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher emits quote ticks to the message bus.
type Publisher interface {
	Publish(ctx context.Context, t *models.QuoteTick) error
	PublishBatch(ctx context.Context, ticks []*models.QuoteTick) error
	Close() error
}

// TickStorage persists streamed quote ticks.
type TickStorage interface {
	Store(ctx context.Context, t *models.QuoteTick) error
	StoreBatch(ctx context.Context, ticks []*models.QuoteTick) error
	Health(ctx context.Context) error
	Close() error
}

// SnapshotStore persists discovered markets, forecast/market snapshots,
// and resolved outcomes. Uniqueness of one snapshot per model+run+market
// is the store's concern, not the caller's.
type SnapshotStore interface {
	UpsertMarket(ctx context.Context, m *models.MarketMetadata) error
	InsertSnapshot(ctx context.Context, s *models.SnapshotRow) (bool, error)
	RecordOutcome(ctx context.Context, marketSlug string, outcome int, eventDate, resolvedAtUTC string) error
	BacktestRows(ctx context.Context, model string, start, end *time.Time) ([]models.BacktestRow, error)
}

// QuoteFetcher returns the current tradable quote for one market.
type QuoteFetcher interface {
	FetchQuote(ctx context.Context, id string) (*models.MarketQuote, error)
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordSnapshot(model, city string)
	RecordTickStored(backend, ticker string)
	RecordError(kind string)
	RecordProbability(eventID string, p float64)
	RecordLatency(op string, seconds float64)
}
