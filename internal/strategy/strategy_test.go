package strategy

import (
	"math"
	"testing"

	"Zephyr/internal/domain/models"
)

func TestBuildSignalBuyYes(t *testing.T) {
	sig := BuildSignal("ev1", "KXHIGHNY-1", 0.72, 0.54, 0.10)
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if sig.Side != models.SideBuyYes {
		t.Fatalf("side = %q, want buy_yes", sig.Side)
	}
	if sig.ExpectedValuePerDollar <= 0 {
		t.Fatalf("expected positive EV, got %v", sig.ExpectedValuePerDollar)
	}
	if math.Abs(sig.Edge-0.18) > 1e-9 {
		t.Fatalf("edge = %v, want 0.18", sig.Edge)
	}
	want := "Forecast=0.720, Market=0.540, Edge=+0.180, EV=$ +0.333 per $1 staked."
	if sig.Rationale != want {
		t.Fatalf("rationale = %q, want %q", sig.Rationale, want)
	}
}

func TestBuildSignalBuyNo(t *testing.T) {
	sig := BuildSignal("ev1", "KXHIGHNY-1", 0.31, 0.48, 0.10)
	if sig == nil {
		t.Fatalf("expected a signal")
	}
	if sig.Side != models.SideBuyNo {
		t.Fatalf("side = %q, want buy_no", sig.Side)
	}
	if sig.ExpectedValuePerDollar <= 0 {
		t.Fatalf("expected positive EV, got %v", sig.ExpectedValuePerDollar)
	}
}

func TestBuildSignalEdgeInsideBand(t *testing.T) {
	if sig := BuildSignal("ev1", "c", 0.55, 0.50, 0.10); sig != nil {
		t.Fatalf("expected no signal, got %+v", sig)
	}
	if sig := BuildSignal("ev1", "c", 0.45, 0.50, 0.10); sig != nil {
		t.Fatalf("expected no signal, got %+v", sig)
	}
}

func TestBuildSignalDegeneratePrice(t *testing.T) {
	// Edge clears the threshold but EV collapses to zero at the boundary.
	if sig := BuildSignal("ev1", "c", 0.80, 1.0, 0.10); sig != nil {
		t.Fatalf("expected no signal at degenerate price, got %+v", sig)
	}
	if sig := BuildSignal("ev1", "c", 0.20, 0.0, 0.10); sig != nil {
		t.Fatalf("expected no signal at zero price, got %+v", sig)
	}
}

func TestExpectedValuePerDollar(t *testing.T) {
	if got := ExpectedValuePerDollar(models.SideBuyYes, 0.72, 0.54); math.Abs(got-(0.72/0.54-1)) > 1e-12 {
		t.Fatalf("buy_yes EV = %v", got)
	}
	if got := ExpectedValuePerDollar(models.SideBuyNo, 0.31, 0.48); math.Abs(got-(0.69/0.52-1)) > 1e-12 {
		t.Fatalf("buy_no EV = %v", got)
	}
	if got := ExpectedValuePerDollar("hold", 0.5, 0.5); got != 0 {
		t.Fatalf("unknown side EV = %v, want 0", got)
	}
}
