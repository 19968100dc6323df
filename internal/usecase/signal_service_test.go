package usecase

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"Zephyr/internal/domain/models"
	"Zephyr/internal/execution"
	"Zephyr/internal/market"
	"Zephyr/internal/risk"
	"Zephyr/internal/service/cache"
)

type fakeForecaster struct {
	p       float64
	eventID string
}

func (f *fakeForecaster) TemperatureProbability(ctx context.Context, req models.TemperatureEventRequest) (*models.ForecastSnapshot, error) {
	return &models.ForecastSnapshot{EventID: f.eventID, Probability: f.p}, nil
}

func (f *fakeForecaster) PrecipProbability(ctx context.Context, req models.PrecipEventRequest) (*models.ForecastSnapshot, error) {
	return &models.ForecastSnapshot{EventID: f.eventID, Probability: f.p}, nil
}

type fakeFetcher struct {
	price float64
	calls int
}

func (f *fakeFetcher) FetchQuote(ctx context.Context, id string) (*models.MarketQuote, error) {
	f.calls++
	return &models.MarketQuote{
		Source:         "polymarket",
		ContractTicker: "0xdeadbeef",
		YesProbability: f.price,
		FetchedAtUTC:   time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}, nil
}

func newTestService(t *testing.T, fc *fakeForecaster, pf *fakeFetcher, c cache.BytesCache) *SignalService {
	t.Helper()
	exec, err := execution.NewPaperExecutor(filepath.Join(t.TempDir(), "orders.csv"))
	if err != nil {
		t.Fatalf("NewPaperExecutor: %v", err)
	}
	return NewSignalService(fc, pf, nil, exec, c, time.Minute, risk.DefaultConfig(), nil, nil)
}

func TestGenerateProducesSizedSignal(t *testing.T) {
	fc := &fakeForecaster{p: 0.72, eventID: "tmp2m_max::nyc::2026-08-30::ge_90.0F"}
	pf := &fakeFetcher{price: 0.54}
	svc := newTestService(t, fc, pf, nil)

	res, err := svc.Generate(context.Background(), SignalRequest{
		EventType:  market.EventTypeTempMax,
		Lat:        40.7128,
		Lon:        -74.0060,
		ThresholdF: 90,
		MarketSlug: "nyc-high-temp",
		Bankroll:   10000,
		PaperTrade: true,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Signal == nil || res.Sized == nil {
		t.Fatalf("expected signal and sized, got %+v", res)
	}
	if res.Signal.Side != "buy_yes" {
		t.Fatalf("side = %q, want buy_yes", res.Signal.Side)
	}
	if math.Abs(res.Signal.Edge-0.18) > 1e-12 {
		t.Fatalf("edge = %v, want 0.18", res.Signal.Edge)
	}
	// Kelly 0.18/0.46*0.25 exceeds the 3% cap, so the cap binds.
	if math.Abs(res.Sized.StakeDollars-300) > 1e-9 {
		t.Fatalf("stake = %v, want 300", res.Sized.StakeDollars)
	}
	if res.Order == nil || res.Order.ContractTicker != "0xdeadbeef" {
		t.Fatalf("expected paper order, got %+v", res.Order)
	}
}

func TestGenerateNoTradeInsideBand(t *testing.T) {
	fc := &fakeForecaster{p: 0.55, eventID: "ev"}
	pf := &fakeFetcher{price: 0.50}
	svc := newTestService(t, fc, pf, nil)

	res, err := svc.Generate(context.Background(), SignalRequest{
		EventType:  market.EventTypeTempMax,
		MarketSlug: "some-market",
		Bankroll:   10000,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Signal != nil || res.Order != nil {
		t.Fatalf("expected no trade, got signal %+v", res.Signal)
	}
	if res.Forecast == nil || res.Quote == nil {
		t.Fatal("forecast and quote should still be reported")
	}
}

func TestGenerateManualProbabilitySkipsVenue(t *testing.T) {
	fc := &fakeForecaster{p: 0.30, eventID: "ev"}
	pf := &fakeFetcher{price: 0.99}
	svc := newTestService(t, fc, pf, nil)

	res, err := svc.Generate(context.Background(), SignalRequest{
		EventType:  market.EventTypePrecipTotal,
		MarketProb: 0.48,
		Bankroll:   10000,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if pf.calls != 0 {
		t.Fatalf("venue fetched %d times despite manual probability", pf.calls)
	}
	if res.Quote.Source != "manual" || res.Quote.YesProbability != 0.48 {
		t.Fatalf("quote = %+v", res.Quote)
	}
	if res.Signal == nil || res.Signal.Side != "buy_no" {
		t.Fatalf("expected buy_no signal, got %+v", res.Signal)
	}
}

func TestGenerateQuoteCache(t *testing.T) {
	fc := &fakeForecaster{p: 0.72, eventID: "ev"}
	pf := &fakeFetcher{price: 0.54}
	svc := newTestService(t, fc, pf, cache.NewTTLCache())

	req := SignalRequest{
		EventType:  market.EventTypeTempMax,
		MarketSlug: "cached-market",
		Bankroll:   10000,
	}
	for i := 0; i < 3; i++ {
		if _, err := svc.Generate(context.Background(), req); err != nil {
			t.Fatalf("Generate #%d: %v", i, err)
		}
	}
	if pf.calls != 1 {
		t.Fatalf("venue fetched %d times, want 1 (cache)", pf.calls)
	}
}

func TestGenerateUnknownEventType(t *testing.T) {
	svc := newTestService(t, &fakeForecaster{}, &fakeFetcher{}, nil)
	if _, err := svc.Generate(context.Background(), SignalRequest{EventType: "humidity"}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
