// Package strategy turns a forecast-vs-market probability gap into a
// trade recommendation.
package strategy

import (
	"fmt"

	"Zephyr/internal/domain/models"
)

// DefaultMinEdge is the minimum forecast-vs-market gap worth acting on.
const DefaultMinEdge = 0.10

// ExpectedValuePerDollar returns the expected profit per dollar staked on
// the given side at the given yes-price. Degenerate prices at or outside
// (0, 1) yield zero.
func ExpectedValuePerDollar(side string, forecastProbability, yesPrice float64) float64 {
	switch side {
	case models.SideBuyYes:
		if yesPrice <= 0.0 || yesPrice >= 1.0 {
			return 0.0
		}
		return forecastProbability/yesPrice - 1.0
	case models.SideBuyNo:
		noPrice := 1.0 - yesPrice
		if noPrice <= 0.0 || noPrice >= 1.0 {
			return 0.0
		}
		return (1.0-forecastProbability)/noPrice - 1.0
	default:
		return 0.0
	}
}

// BuildSignal compares the forecast probability against the market's
// implied probability. It returns nil when the edge is inside the minimum
// band or when the expected value is not strictly positive; crossing the
// edge threshold alone is not enough.
func BuildSignal(eventID, contractTicker string, forecastProbability, marketProbability, minEdge float64) *models.Signal {
	edge := forecastProbability - marketProbability

	var side string
	switch {
	case edge >= minEdge:
		side = models.SideBuyYes
	case edge <= -minEdge:
		side = models.SideBuyNo
	default:
		return nil
	}

	ev := ExpectedValuePerDollar(side, forecastProbability, marketProbability)
	if ev <= 0.0 {
		return nil
	}

	return &models.Signal{
		EventID:                eventID,
		ContractTicker:         contractTicker,
		Side:                   side,
		ForecastProbability:    forecastProbability,
		MarketProbability:      marketProbability,
		Edge:                   edge,
		ExpectedValuePerDollar: ev,
		Rationale: fmt.Sprintf("Forecast=%.3f, Market=%.3f, Edge=%+.3f, EV=$ %+.3f per $1 staked.",
			forecastProbability, marketProbability, edge, ev),
	}
}
