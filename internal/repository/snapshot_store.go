// Package repository implements the domain storage interfaces on
// ClickHouse and Kafka.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"Zephyr/internal/domain/models"
	"Zephyr/internal/domain/repository"
)

// SnapshotSchema returns idempotent DDL for the snapshot store tables.
// Markets and outcomes deduplicate by slug via ReplacingMergeTree; the
// snapshots table keeps every accepted row and relies on the store's
// insert-time uniqueness check.
func SnapshotSchema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS markets (
			market_slug String,
			condition_id String,
			question String,
			event_title String,
			event_type String,
			city_label String,
			event_date String,
			threshold_value Float64,
			threshold_unit String,
			yes_label String,
			volume Float64,
			liquidity Float64,
			last_seen_utc String
		) ENGINE = ReplacingMergeTree(last_seen_utc)
		ORDER BY market_slug`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			collected_at_utc String,
			model String,
			run_date String,
			run_cycle_hour_utc Int32,
			market_slug String,
			contract_ticker String,
			event_id String,
			forecast_probability Float64,
			market_probability Float64,
			edge Float64,
			details_json String
		) ENGINE = MergeTree
		ORDER BY (model, run_date, run_cycle_hour_utc, market_slug)`,
		`CREATE TABLE IF NOT EXISTS outcomes (
			market_slug String,
			event_date String,
			outcome UInt8,
			resolved_at_utc String
		) ENGINE = ReplacingMergeTree(resolved_at_utc)
		ORDER BY market_slug`,
	}
}

// ClickHouseSnapshotStore persists markets, snapshots, and outcomes.
type ClickHouseSnapshotStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewClickHouseSnapshotStore creates the store.
func NewClickHouseSnapshotStore(db *sql.DB) repository.SnapshotStore {
	return &ClickHouseSnapshotStore{db: db, now: time.Now}
}

func (s *ClickHouseSnapshotStore) UpsertMarket(ctx context.Context, m *models.MarketMetadata) error {
	lastSeen := m.LastSeenUTC
	if lastSeen == "" {
		lastSeen = s.now().UTC().Format(time.RFC3339)
	}
	q := `INSERT INTO markets (
		market_slug, condition_id, question, event_title, event_type,
		city_label, event_date, threshold_value, threshold_unit,
		yes_label, volume, liquidity, last_seen_utc
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		m.MarketSlug, m.ConditionID, m.Question, m.EventTitle, m.EventType,
		m.CityLabel, m.EventDate, m.ThresholdValue, m.ThresholdUnit,
		m.YesLabel, m.Volume, m.Liquidity, lastSeen,
	)
	if err != nil {
		return fmt.Errorf("upsert market %s: %w", m.MarketSlug, err)
	}
	return nil
}

// InsertSnapshot stores one snapshot unless an equal
// (model, run_date, run_cycle_hour_utc, market_slug) row already exists.
// Returns false when the row was a duplicate.
func (s *ClickHouseSnapshotStore) InsertSnapshot(ctx context.Context, row *models.SnapshotRow) (bool, error) {
	var count uint64
	check := `SELECT count() FROM snapshots
		WHERE model = ? AND run_date = ? AND run_cycle_hour_utc = ? AND market_slug = ?`
	err := s.db.QueryRowContext(ctx, check,
		row.Model, row.RunDate, row.RunCycleHourUTC, row.MarketSlug,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check snapshot: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	detailsJSON, err := json.Marshal(row.Details)
	if err != nil {
		return false, fmt.Errorf("marshal snapshot details: %w", err)
	}

	q := `INSERT INTO snapshots (
		collected_at_utc, model, run_date, run_cycle_hour_utc, market_slug,
		contract_ticker, event_id, forecast_probability, market_probability,
		edge, details_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		row.CollectedAtUTC, row.Model, row.RunDate, row.RunCycleHourUTC, row.MarketSlug,
		row.ContractTicker, row.EventID, row.ForecastProbability, row.MarketProbability,
		row.Edge, string(detailsJSON),
	)
	if err != nil {
		return false, fmt.Errorf("insert snapshot: %w", err)
	}
	return true, nil
}

func (s *ClickHouseSnapshotStore) RecordOutcome(ctx context.Context, marketSlug string, outcome int, eventDate, resolvedAtUTC string) error {
	if outcome != 0 && outcome != 1 {
		return fmt.Errorf("outcome must be 0 or 1, got %d", outcome)
	}
	if resolvedAtUTC == "" {
		resolvedAtUTC = s.now().UTC().Format(time.RFC3339)
	}
	q := `INSERT INTO outcomes (market_slug, event_date, outcome, resolved_at_utc) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, q, marketSlug, eventDate, outcome, resolvedAtUTC); err != nil {
		return fmt.Errorf("record outcome %s: %w", marketSlug, err)
	}
	return nil
}

// backtestRowsQuery builds the snapshot/outcome join. collected_at_utc is
// stored as RFC3339 text, so the window bounds must be bound in the same
// form for the comparison to be meaningful.
func backtestRowsQuery(model string, start, end *time.Time) (string, []interface{}) {
	q := `SELECT
		sn.event_id, sn.contract_ticker, sn.forecast_probability,
		sn.market_probability, o.outcome, sn.collected_at_utc
	FROM snapshots AS sn
	INNER JOIN (SELECT market_slug, argMax(outcome, resolved_at_utc) AS outcome
		FROM outcomes GROUP BY market_slug) AS o
		ON sn.market_slug = o.market_slug
	WHERE sn.model = ?`
	args := []interface{}{model}
	if start != nil {
		q += " AND sn.collected_at_utc >= ?"
		args = append(args, start.UTC().Format(time.RFC3339))
	}
	if end != nil {
		q += " AND sn.collected_at_utc < ?"
		args = append(args, end.UTC().Format(time.RFC3339))
	}
	q += " ORDER BY sn.collected_at_utc ASC"
	return q, args
}

// BacktestRows joins snapshots against resolved outcomes in collection
// order, producing the engine's replay input.
func (s *ClickHouseSnapshotStore) BacktestRows(ctx context.Context, model string, start, end *time.Time) ([]models.BacktestRow, error) {
	q, args := backtestRowsQuery(model, start, end)
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query backtest rows: %w", err)
	}
	defer rows.Close()

	var out []models.BacktestRow
	for rows.Next() {
		var r models.BacktestRow
		var outcome uint8
		if err := rows.Scan(&r.EventID, &r.ContractTicker, &r.ForecastProbability,
			&r.MarketProbability, &outcome, &r.Timestamp); err != nil {
			return nil, fmt.Errorf("scan backtest row: %w", err)
		}
		r.Outcome = int(outcome)
		out = append(out, r)
	}
	return out, rows.Err()
}
