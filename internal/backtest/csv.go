package backtest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"Zephyr/internal/domain/models"
)

// LoadCSV reads backtest rows from a headered CSV file with columns
// event_id, contract_ticker, forecast_probability, market_probability,
// outcome and an optional timestamp. A malformed row fails the whole load.
func LoadCSV(path string) ([]models.BacktestRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backtest csv: %w", err)
	}
	defer f.Close()

	return ReadRows(f)
}

// ReadRows parses backtest rows from CSV content.
func ReadRows(r io.Reader) ([]models.BacktestRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"event_id", "forecast_probability", "market_probability", "outcome"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("backtest csv missing column %q", required)
		}
	}

	var rows []models.BacktestRow
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record: %w", err)
		}
		line++

		field := func(name string) string {
			idx, ok := col[name]
			if !ok || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		forecast, err := strconv.ParseFloat(field("forecast_probability"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: forecast_probability: %w", line, err)
		}
		market, err := strconv.ParseFloat(field("market_probability"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: market_probability: %w", line, err)
		}
		outcome, err := strconv.Atoi(field("outcome"))
		if err != nil {
			return nil, fmt.Errorf("line %d: outcome: %w", line, err)
		}

		rows = append(rows, models.BacktestRow{
			EventID:             field("event_id"),
			ContractTicker:      field("contract_ticker"),
			ForecastProbability: forecast,
			MarketProbability:   market,
			Outcome:             outcome,
			Timestamp:           field("timestamp"),
		})
	}
	return rows, nil
}
