package backtest

import (
	"math"
	"strings"
	"testing"

	"Zephyr/internal/domain/models"
	"Zephyr/internal/risk"
)

func TestRunCompoundsBankroll(t *testing.T) {
	rows := []models.BacktestRow{
		{EventID: "e1", ContractTicker: "c1", ForecastProbability: 0.70, MarketProbability: 0.50, Outcome: 1},
		{EventID: "e2", ContractTicker: "c2", ForecastProbability: 0.30, MarketProbability: 0.45, Outcome: 0},
		{EventID: "e3", ContractTicker: "c3", ForecastProbability: 0.57, MarketProbability: 0.50, Outcome: 1},
	}
	cfg := risk.Config{MaxFractionPerContract: 0.03, KellyScale: 0.25}
	result := Run(rows, 10000, 0.10, cfg)

	// Row 3's edge (0.07) is inside the minimum band.
	if result.TotalTrades != 2 {
		t.Fatalf("total trades = %d, want 2", result.TotalTrades)
	}
	if result.EndingBankroll <= 10000 {
		t.Fatalf("ending bankroll = %v, want > 10000", result.EndingBankroll)
	}
	if result.WinRate <= 0 {
		t.Fatalf("win rate = %v, want > 0", result.WinRate)
	}
	if math.Abs(result.TotalPnL-(result.EndingBankroll-result.StartingBankroll)) > 1e-9 {
		t.Fatalf("total pnl %v inconsistent with bankrolls", result.TotalPnL)
	}

	// Second trade is sized against the already-compounded bankroll:
	// the first wins 300 on a 300 stake, so the cap yields 0.03 * 10300.
	first, second := result.Trades[0], result.Trades[1]
	if math.Abs(first.BankrollAfter-10300) > 1e-9 {
		t.Fatalf("first trade bankroll = %v, want 10300", first.BankrollAfter)
	}
	if math.Abs(second.StakeDollars-309) > 1e-9 {
		t.Fatalf("second stake = %v, want 309", second.StakeDollars)
	}
	if second.BankrollAfter != result.EndingBankroll {
		t.Fatalf("last trade bankroll %v != ending %v", second.BankrollAfter, result.EndingBankroll)
	}

	if math.Abs(result.AverageEdge-(0.20+0.15)/2) > 1e-12 {
		t.Fatalf("average edge = %v", result.AverageEdge)
	}
}

func TestRunNoTrades(t *testing.T) {
	rows := []models.BacktestRow{
		{EventID: "e1", ForecastProbability: 0.52, MarketProbability: 0.50, Outcome: 1},
	}
	result := Run(rows, 5000, 0.10, risk.DefaultConfig())
	if result.TotalTrades != 0 {
		t.Fatalf("total trades = %d, want 0", result.TotalTrades)
	}
	if result.EndingBankroll != 5000 {
		t.Fatalf("bankroll moved with no trades: %v", result.EndingBankroll)
	}
	if result.WinRate != 0 || result.AverageEdge != 0 {
		t.Fatalf("empty aggregates should be zero: %+v", result)
	}
}

func TestSettlePnL(t *testing.T) {
	if got := settlePnL(models.SideBuyYes, 0.50, 100, 1); math.Abs(got-100) > 1e-9 {
		t.Fatalf("yes win = %v, want 100", got)
	}
	if got := settlePnL(models.SideBuyYes, 0.50, 100, 0); got != -100 {
		t.Fatalf("yes loss = %v, want -100", got)
	}
	if got := settlePnL(models.SideBuyNo, 0.40, 100, 0); math.Abs(got-100*(1/0.6-1)) > 1e-9 {
		t.Fatalf("no win = %v", got)
	}
	if got := settlePnL(models.SideBuyNo, 0.40, 100, 1); got != -100 {
		t.Fatalf("no loss = %v, want -100", got)
	}
	if got := settlePnL(models.SideBuyYes, 1.0, 100, 1); got != 0 {
		t.Fatalf("degenerate price pnl = %v, want 0", got)
	}
}

func TestReadRows(t *testing.T) {
	csv := strings.Join([]string{
		"event_id,contract_ticker,forecast_probability,market_probability,outcome,timestamp",
		"e1,c1,0.70,0.50,1,2026-03-01T00:00:00Z",
		"e2,,0.30,0.45,0,",
	}, "\n")
	rows, err := ReadRows(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].EventID != "e1" || rows[0].Outcome != 1 || rows[0].Timestamp == "" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].ContractTicker != "" || rows[1].Timestamp != "" {
		t.Fatalf("unexpected second row: %+v", rows[1])
	}
}

func TestReadRowsRejectsMalformed(t *testing.T) {
	csv := "event_id,forecast_probability,market_probability,outcome\ne1,not-a-number,0.5,1\n"
	if _, err := ReadRows(strings.NewReader(csv)); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := ReadRows(strings.NewReader("event_id,outcome\ne1,1\n")); err == nil {
		t.Fatalf("expected a missing-column error")
	}
}
