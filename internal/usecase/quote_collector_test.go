package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"Zephyr/internal/domain/models"
)

type recordingMetrics struct {
	mu     sync.Mutex
	errors []string
}

func (m *recordingMetrics) RecordSnapshot(model, city string)      {}
func (m *recordingMetrics) RecordTickStored(backend, tk string)    {}
func (m *recordingMetrics) RecordProbability(id string, p float64) {}
func (m *recordingMetrics) RecordLatency(op string, s float64)     {}
func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors = append(m.errors, kind)
	m.mu.Unlock()
}

// flakyStream fails its first read, then delivers one tick on the
// channels handed out after Reconnect.
type flakyStream struct {
	mu         sync.Mutex
	reads      int
	reconnects int
	tick       *models.QuoteTick
}

func (s *flakyStream) Connect(ctx context.Context) error   { return nil }
func (s *flakyStream) Subscribe(ctx context.Context) error { return nil }
func (s *flakyStream) Close() error                        { return nil }
func (s *flakyStream) IsConnected() bool                   { return true }

func (s *flakyStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.mu.Unlock()
	return nil
}

func (s *flakyStream) Read(ctx context.Context) (<-chan *models.QuoteTick, <-chan error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()

	ticks := make(chan *models.QuoteTick, 1)
	errs := make(chan error, 1)
	if first {
		errs <- fmt.Errorf("connection reset")
		close(ticks)
		close(errs)
		return ticks, errs
	}
	ticks <- s.tick
	return ticks, errs
}

type captureStorage struct {
	stored chan *models.QuoteTick
}

func (c *captureStorage) Store(ctx context.Context, t *models.QuoteTick) error {
	c.stored <- t
	return nil
}

func (c *captureStorage) StoreBatch(ctx context.Context, ts []*models.QuoteTick) error {
	for _, t := range ts {
		c.stored <- t
	}
	return nil
}

func (c *captureStorage) Health(ctx context.Context) error { return nil }
func (c *captureStorage) Close() error                     { return nil }

func TestQuoteCollectorReconnectResumesConsuming(t *testing.T) {
	stream := &flakyStream{tick: &models.QuoteTick{ContractTicker: "0xabc", YesPrice: 0.42, Timestamp: 1}}
	storage := &captureStorage{stored: make(chan *models.QuoteTick, 1)}
	m := &recordingMetrics{}
	proc := NewQuoteProcessor(nil, storage, m, "clickhouse")
	col := NewQuoteCollector(stream, proc, m, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := col.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case got := <-storage.stored:
		if got.ContractTicker != "0xabc" {
			t.Fatalf("stored tick for %q", got.ContractTicker)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tick from the reconnected stream was never processed")
	}

	stream.mu.Lock()
	reconnects, reads := stream.reconnects, stream.reads
	stream.mu.Unlock()
	if reconnects != 1 {
		t.Fatalf("reconnects = %d, want 1", reconnects)
	}
	if reads != 2 {
		t.Fatalf("reads = %d, want 2", reads)
	}
}
