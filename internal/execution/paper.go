// Package execution records orders without touching a live venue.
package execution

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"Zephyr/internal/domain/models"
	applogger "Zephyr/pkg/logger"
)

// PaperOrder is one simulated fill appended to the ledger.
type PaperOrder struct {
	PlacedAtUTC            time.Time
	EventID                string
	ContractTicker         string
	Side                   string
	ForecastProbability    float64
	MarketProbability      float64
	Edge                   float64
	ExpectedValuePerDollar float64
	FractionOfBankroll     float64
	StakeDollars           float64
}

var ledgerHeader = []string{
	"placed_at_utc",
	"event_id",
	"contract_ticker",
	"side",
	"forecast_probability",
	"market_probability",
	"edge",
	"expected_value_per_dollar",
	"fraction_of_bankroll",
	"stake_dollars",
}

// PaperExecutor appends sized signals to a CSV ledger instead of routing
// them to a venue.
type PaperExecutor struct {
	ledgerPath string
	l          *applogger.Logger
	now        func() time.Time
}

// PaperOption configures PaperExecutor.
type PaperOption func(*PaperExecutor)

// NewPaperExecutor creates the executor and its ledger directory.
func NewPaperExecutor(ledgerPath string, opts ...PaperOption) (*PaperExecutor, error) {
	if ledgerPath == "" {
		ledgerPath = "data/paper_orders.csv"
	}
	if err := os.MkdirAll(filepath.Dir(ledgerPath), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	e := &PaperExecutor{
		ledgerPath: ledgerPath,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// WithPaperLogger injects a structured logger.
func WithPaperLogger(l *applogger.Logger) PaperOption {
	return func(e *PaperExecutor) { e.l = l }
}

// WithPaperClock overrides the wall clock (tests).
func WithPaperClock(now func() time.Time) PaperOption {
	return func(e *PaperExecutor) { e.now = now }
}

// Execute appends one order to the ledger and returns it.
func (e *PaperExecutor) Execute(sized *models.SizedSignal) (*PaperOrder, error) {
	signal := sized.Signal
	order := &PaperOrder{
		PlacedAtUTC:            e.now().UTC(),
		EventID:                signal.EventID,
		ContractTicker:         signal.ContractTicker,
		Side:                   signal.Side,
		ForecastProbability:    signal.ForecastProbability,
		MarketProbability:      signal.MarketProbability,
		Edge:                   signal.Edge,
		ExpectedValuePerDollar: signal.ExpectedValuePerDollar,
		FractionOfBankroll:     sized.FractionOfBankroll,
		StakeDollars:           sized.StakeDollars,
	}
	if err := e.append(order); err != nil {
		return nil, err
	}
	if e.l != nil {
		e.l.Info("paper order placed",
			applogger.String("contract", order.ContractTicker),
			applogger.String("side", order.Side),
			applogger.Float64("stake_dollars", order.StakeDollars),
		)
	}
	return order, nil
}

func (e *PaperExecutor) append(order *PaperOrder) error {
	_, statErr := os.Stat(e.ledgerPath)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(e.ledgerPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(ledgerHeader); err != nil {
			return fmt.Errorf("write ledger header: %w", err)
		}
	}
	record := []string{
		order.PlacedAtUTC.Format(time.RFC3339),
		order.EventID,
		order.ContractTicker,
		order.Side,
		fmt.Sprintf("%.6f", order.ForecastProbability),
		fmt.Sprintf("%.6f", order.MarketProbability),
		fmt.Sprintf("%.6f", order.Edge),
		fmt.Sprintf("%.6f", order.ExpectedValuePerDollar),
		fmt.Sprintf("%.6f", order.FractionOfBankroll),
		fmt.Sprintf("%.2f", order.StakeDollars),
	}
	if err := w.Write(record); err != nil {
		return fmt.Errorf("write ledger record: %w", err)
	}
	w.Flush()
	return w.Error()
}
