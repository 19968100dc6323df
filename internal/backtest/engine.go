// Package backtest replays the signal and sizing pipeline over ordered
// historical rows with a compounding bankroll.
package backtest

import (
	"math"

	"Zephyr/internal/domain/models"
	"Zephyr/internal/risk"
	"Zephyr/internal/strategy"
)

// settlePnL applies the side-specific payout: a winning yes at price p
// pays stake*(1/p - 1), a winning no pays stake*(1/(1-p) - 1), a loss
// forfeits the stake. Degenerate prices settle flat.
func settlePnL(side string, priceYes, stake float64, outcome int) float64 {
	if stake <= 0.0 {
		return 0.0
	}
	if priceYes <= 0.0 || priceYes >= 1.0 {
		return 0.0
	}

	switch side {
	case models.SideBuyYes:
		if outcome == 1 {
			return stake * (1.0/priceYes - 1.0)
		}
		return -stake
	case models.SideBuyNo:
		priceNo := 1.0 - priceYes
		if priceNo <= 0.0 {
			return 0.0
		}
		if outcome == 0 {
			return stake * (1.0/priceNo - 1.0)
		}
		return -stake
	default:
		return 0.0
	}
}

// Run replays rows in the order given; callers guarantee chronological
// order, the engine does not sort. Rows that produce no signal or no
// stake are skipped without touching the bankroll.
func Run(rows []models.BacktestRow, startingBankroll, minEdge float64, cfg risk.Config) *models.BacktestResult {
	bankroll := startingBankroll
	var settled []models.SettledTrade

	for _, row := range rows {
		signal := strategy.BuildSignal(row.EventID, row.ContractTicker,
			row.ForecastProbability, row.MarketProbability, minEdge)
		if signal == nil {
			continue
		}

		sized := risk.SizeSignal(signal, bankroll, cfg)
		if sized == nil {
			continue
		}

		pnl := settlePnL(signal.Side, row.MarketProbability, sized.StakeDollars, row.Outcome)
		bankroll += pnl
		settled = append(settled, models.SettledTrade{
			EventID:             row.EventID,
			ContractTicker:      row.ContractTicker,
			Side:                signal.Side,
			ForecastProbability: row.ForecastProbability,
			MarketProbability:   row.MarketProbability,
			Edge:                signal.Edge,
			StakeDollars:        sized.StakeDollars,
			PnLDollars:          pnl,
			Outcome:             row.Outcome,
			BankrollAfter:       bankroll,
			Timestamp:           row.Timestamp,
		})
	}

	totalTrades := len(settled)
	wins, losses := 0, 0
	var edgeSum float64
	for _, trade := range settled {
		if trade.PnLDollars > 0.0 {
			wins++
		}
		if trade.PnLDollars < 0.0 {
			losses++
		}
		edgeSum += math.Abs(trade.Edge)
	}

	winRate, averageEdge := 0.0, 0.0
	if totalTrades > 0 {
		winRate = float64(wins) / float64(totalTrades)
		averageEdge = edgeSum / float64(totalTrades)
	}
	returnPct := 0.0
	if startingBankroll > 0.0 {
		returnPct = bankroll/startingBankroll - 1.0
	}

	return &models.BacktestResult{
		StartingBankroll: startingBankroll,
		EndingBankroll:   bankroll,
		TotalTrades:      totalTrades,
		WinningTrades:    wins,
		LosingTrades:     losses,
		WinRate:          winRate,
		TotalPnL:         bankroll - startingBankroll,
		ReturnPct:        returnPct,
		AverageEdge:      averageEdge,
		Trades:           settled,
	}
}
