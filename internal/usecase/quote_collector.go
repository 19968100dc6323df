package usecase

import (
	"context"

	"Zephyr/internal/domain/models"
	drepo "Zephyr/internal/domain/repository"
	mid "Zephyr/internal/middleware"
)

// QuoteCollector collects ticks from the venue stream and processes them.
type QuoteCollector struct {
	stream  drepo.QuoteStream
	proc    *QuoteProcessor
	metrics drepo.Metrics
	pipe    *mid.QuotePipeline
}

// NewQuoteCollector creates a new QuoteCollector instance.
func NewQuoteCollector(stream drepo.QuoteStream, proc *QuoteProcessor, metrics drepo.Metrics, pipe *mid.QuotePipeline) *QuoteCollector {
	return &QuoteCollector{stream: stream, proc: proc, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the venue stream is connected.
func (c *QuoteCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *QuoteCollector) Start(ctx context.Context) error {
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

func (c *QuoteCollector) consume(ctx context.Context, tickCh <-chan *models.QuoteTick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err == nil {
				continue
			}
			if ok {
				c.metrics.RecordError("stream")
			}
			if ctx.Err() != nil || c.stream.Reconnect(ctx) != nil {
				return
			}
			// The failed reader closed its channels; read from the new
			// connection instead of spinning on the old ones.
			tickCh, errCh = c.stream.Read(ctx)
		case t, ok := <-tickCh:
			if !ok {
				// Reader ended; the cause, if any, arrives on errCh.
				tickCh = nil
				continue
			}
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

// Processor exposes the underlying processor for resource cleanup.
func (c *QuoteCollector) Processor() *QuoteProcessor {
	return c.proc
}

// Stop closes the stream and pipeline.
func (c *QuoteCollector) Stop() error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
