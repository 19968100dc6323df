package risk

import (
	"math"
	"testing"

	"Zephyr/internal/domain/models"
)

func yesSignal(forecast, market float64) *models.Signal {
	return &models.Signal{
		EventID:             "ev1",
		ContractTicker:      "c1",
		Side:                models.SideBuyYes,
		ForecastProbability: forecast,
		MarketProbability:   market,
		Edge:                forecast - market,
	}
}

func TestSizeSignalCapBindsBeforeRawKelly(t *testing.T) {
	cfg := Config{MaxFractionPerContract: 0.03, KellyScale: 1.0}
	sized := SizeSignal(yesSignal(0.80, 0.50), 10000, cfg)
	if sized == nil {
		t.Fatalf("expected a sized signal")
	}
	// Raw Kelly = (0.80-0.50)/0.50 = 0.60; the cap binds at 0.03.
	if sized.FractionOfBankroll != 0.03 {
		t.Fatalf("fraction = %v, want 0.03", sized.FractionOfBankroll)
	}
	if math.Abs(sized.StakeDollars-300.0) > 1e-9 {
		t.Fatalf("stake = %v, want 300", sized.StakeDollars)
	}
}

func TestSizeSignalScaledBelowCap(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxFractionPerContract != 0.03 || cfg.KellyScale != 0.25 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	sized := SizeSignal(yesSignal(0.60, 0.50), 10000, cfg)
	if sized == nil {
		t.Fatalf("expected a sized signal")
	}
	// Raw Kelly = 0.2, scaled by 0.25 = 0.05, still capped at 0.03.
	if sized.FractionOfBankroll != 0.03 {
		t.Fatalf("fraction = %v, want 0.03", sized.FractionOfBankroll)
	}

	sized = SizeSignal(yesSignal(0.55, 0.50), 10000, cfg)
	if sized == nil {
		t.Fatalf("expected a sized signal")
	}
	// Raw Kelly = 0.1, scaled = 0.025, under the cap.
	if math.Abs(sized.FractionOfBankroll-0.025) > 1e-12 {
		t.Fatalf("fraction = %v, want 0.025", sized.FractionOfBankroll)
	}
}

func TestSizeSignalBuyNo(t *testing.T) {
	sig := yesSignal(0.30, 0.50)
	sig.Side = models.SideBuyNo
	sized := SizeSignal(sig, 1000, Config{MaxFractionPerContract: 1.0, KellyScale: 1.0})
	if sized == nil {
		t.Fatalf("expected a sized signal")
	}
	// Raw Kelly no = (0.50-0.30)/0.50 = 0.40.
	if math.Abs(sized.FractionOfBankroll-0.40) > 1e-12 {
		t.Fatalf("fraction = %v, want 0.40", sized.FractionOfBankroll)
	}
}

func TestSizeSignalRejections(t *testing.T) {
	cfg := DefaultConfig()
	if sized := SizeSignal(yesSignal(0.80, 0.50), 0, cfg); sized != nil {
		t.Fatalf("zero bankroll should not size, got %+v", sized)
	}
	if sized := SizeSignal(yesSignal(0.80, 0.50), -100, cfg); sized != nil {
		t.Fatalf("negative bankroll should not size, got %+v", sized)
	}
	if sized := SizeSignal(nil, 10000, cfg); sized != nil {
		t.Fatalf("nil signal should not size, got %+v", sized)
	}

	floor := Config{MaxFractionPerContract: 0.03, KellyScale: 0.25, MinFractionIfTrade: 0.05}
	if sized := SizeSignal(yesSignal(0.60, 0.50), 10000, floor); sized != nil {
		t.Fatalf("fraction below floor should not size, got %+v", sized)
	}

	// Degenerate price gives a zero Kelly fraction and thus a zero stake.
	if sized := SizeSignal(yesSignal(0.80, 1.0), 10000, cfg); sized != nil {
		t.Fatalf("degenerate price should not size, got %+v", sized)
	}
}
