package usecase

import (
	"context"
	"fmt"
	"time"

	"Zephyr/internal/backtest"
	"Zephyr/internal/domain/models"
	domrepo "Zephyr/internal/domain/repository"
	"Zephyr/internal/risk"
	applogger "Zephyr/pkg/logger"
)

// BacktestRequest selects the row source and the replay parameters.
// Inline Rows win over CSVPath, which wins over the snapshot store.
type BacktestRequest struct {
	Rows             []models.BacktestRow
	CSVPath          string
	Model            string
	Start            *time.Time
	End              *time.Time
	StartingBankroll float64
	MinEdge          float64
	Risk             *risk.Config
}

// BacktestService replays resolved snapshots through the strategy.
type BacktestService struct {
	store   domrepo.SnapshotStore
	riskCfg risk.Config
	l       *applogger.Logger
}

func NewBacktestService(store domrepo.SnapshotStore, riskCfg risk.Config, l *applogger.Logger) *BacktestService {
	return &BacktestService{store: store, riskCfg: riskCfg, l: l}
}

func (s *BacktestService) Run(ctx context.Context, req BacktestRequest) (*models.BacktestResult, error) {
	rows, err := s.rows(ctx, req)
	if err != nil {
		return nil, err
	}

	cfg := s.riskCfg
	if req.Risk != nil {
		cfg = *req.Risk
	}
	result := backtest.Run(rows, req.StartingBankroll, req.MinEdge, cfg)

	if s.l != nil {
		s.l.Info("backtest finished",
			applogger.Int("rows", len(rows)),
			applogger.Int("trades", result.TotalTrades),
			applogger.Float64("ending_bankroll", result.EndingBankroll),
		)
	}
	return result, nil
}

// RecordOutcome marks a market as resolved so its snapshots become
// replayable. The event date pins resolution to one daily market when a
// slug is reused across days.
func (s *BacktestService) RecordOutcome(ctx context.Context, marketSlug string, outcome int, eventDate string) error {
	if s.store == nil {
		return fmt.Errorf("no snapshot store configured")
	}
	if err := s.store.RecordOutcome(ctx, marketSlug, outcome, eventDate, ""); err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	if s.l != nil {
		s.l.Info("outcome recorded",
			applogger.String("market_slug", marketSlug),
			applogger.Int("outcome", outcome),
		)
	}
	return nil
}

func (s *BacktestService) rows(ctx context.Context, req BacktestRequest) ([]models.BacktestRow, error) {
	if len(req.Rows) > 0 {
		return req.Rows, nil
	}
	if req.CSVPath != "" {
		rows, err := backtest.LoadCSV(req.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("load csv: %w", err)
		}
		return rows, nil
	}
	if s.store == nil {
		return nil, fmt.Errorf("no csv path and no snapshot store configured")
	}
	rows, err := s.store.BacktestRows(ctx, req.Model, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("load resolved snapshots: %w", err)
	}
	return rows, nil
}
