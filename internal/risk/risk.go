// Package risk sizes signals with fractional Kelly under a hard
// per-contract cap.
package risk

import (
	"github.com/creasty/defaults"

	"Zephyr/internal/domain/models"
)

// Config bounds position sizing. MaxFractionPerContract caps the bankroll
// fraction regardless of the Kelly scale.
type Config struct {
	MaxFractionPerContract float64 `yaml:"max_fraction_per_contract" default:"0.03"`
	KellyScale             float64 `yaml:"kelly_scale" default:"0.25"`
	MinFractionIfTrade     float64 `yaml:"min_fraction_if_trade" default:"0.0"`
}

// DefaultConfig returns a Config with the defaults applied.
func DefaultConfig() Config {
	var cfg Config
	_ = defaults.Set(&cfg)
	return cfg
}

func kellyFractionYes(forecastProbability, yesPrice float64) float64 {
	if yesPrice <= 0.0 || yesPrice >= 1.0 {
		return 0.0
	}
	raw := (forecastProbability - yesPrice) / (1.0 - yesPrice)
	if raw < 0.0 {
		return 0.0
	}
	return raw
}

func kellyFractionNo(forecastProbability, yesPrice float64) float64 {
	if yesPrice <= 0.0 || yesPrice >= 1.0 {
		return 0.0
	}
	raw := (yesPrice - forecastProbability) / yesPrice
	if raw < 0.0 {
		return 0.0
	}
	return raw
}

// SizeSignal converts a signal into a bankroll fraction and dollar stake.
// It returns nil when the bankroll is not positive, the bounded fraction
// falls below the minimum-to-trade floor, or the stake comes out to zero.
func SizeSignal(signal *models.Signal, bankroll float64, cfg Config) *models.SizedSignal {
	if signal == nil || bankroll <= 0.0 {
		return nil
	}

	var rawFraction float64
	switch signal.Side {
	case models.SideBuyYes:
		rawFraction = kellyFractionYes(signal.ForecastProbability, signal.MarketProbability)
	case models.SideBuyNo:
		rawFraction = kellyFractionNo(signal.ForecastProbability, signal.MarketProbability)
	default:
		return nil
	}

	boundedFraction := rawFraction * cfg.KellyScale
	if boundedFraction > cfg.MaxFractionPerContract {
		boundedFraction = cfg.MaxFractionPerContract
	}
	if boundedFraction < cfg.MinFractionIfTrade {
		return nil
	}

	stake := bankroll * boundedFraction
	if stake <= 0.0 {
		return nil
	}

	return &models.SizedSignal{
		Signal:             *signal,
		FractionOfBankroll: boundedFraction,
		StakeDollars:       stake,
	}
}
