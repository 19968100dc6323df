package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"Zephyr/internal/domain/models"
	domrepo "Zephyr/internal/domain/repository"
	domsvc "Zephyr/internal/domain/service"
	"Zephyr/internal/market"
	applogger "Zephyr/pkg/logger"
)

// MarketLister pages venue listings and derives quotes from them.
type MarketLister interface {
	ListMarkets(ctx context.Context, params map[string]string) ([]market.GammaMarket, error)
	QuoteFromMarket(m market.GammaMarket, yesLabel string) (*models.MarketQuote, error)
}

// SnapshotSummary reports one logging pass.
type SnapshotSummary struct {
	Selected int
	Inserted int
	Skipped  int
}

// SnapshotLogger pairs forecast probabilities with market quotes for every
// market the universe filters accept, and persists the result. One pass is
// fully sequential; a failed market is skipped, not fatal.
type SnapshotLogger struct {
	lister     MarketLister
	forecaster domsvc.Forecaster
	store      domrepo.SnapshotStore
	metrics    domrepo.Metrics
	l          *applogger.Logger
	universe   market.UniverseConfig
	maxPages   int
	pageSize   int
	lookback   int
	now        func() time.Time
}

// NewSnapshotLogger creates the logger.
func NewSnapshotLogger(
	lister MarketLister,
	forecaster domsvc.Forecaster,
	store domrepo.SnapshotStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	universe market.UniverseConfig,
	maxPages, pageSize, lookbackDays int,
) *SnapshotLogger {
	if maxPages <= 0 {
		maxPages = 5
	}
	if pageSize <= 0 {
		pageSize = 200
	}
	if lookbackDays <= 0 {
		lookbackDays = 2
	}
	return &SnapshotLogger{
		lister:     lister,
		forecaster: forecaster,
		store:      store,
		metrics:    metrics,
		l:          l,
		universe:   universe,
		maxPages:   maxPages,
		pageSize:   pageSize,
		lookback:   lookbackDays,
		now:        time.Now,
	}
}

// Run executes one discovery and snapshot pass.
func (s *SnapshotLogger) Run(ctx context.Context) (*SnapshotSummary, error) {
	nowUTC := s.now().UTC()
	raw, err := s.discover(ctx, nowUTC)
	if err != nil {
		return nil, err
	}

	selected := market.SelectMarkets(raw, s.universe, nowUTC)
	summary := &SnapshotSummary{Selected: len(selected)}
	if len(selected) == 0 {
		return summary, nil
	}

	bySlug := make(map[string]market.GammaMarket, len(raw))
	for _, m := range raw {
		bySlug[m.Slug] = m
	}

	for _, spec := range selected {
		if err := s.logOne(ctx, spec, bySlug, nowUTC, summary); err != nil {
			summary.Skipped++
			s.metrics.RecordError("snapshot")
			if s.l != nil {
				s.l.Warn("snapshot skipped",
					applogger.String("market_slug", spec.MarketSlug),
					applogger.Error(err),
				)
			}
		}
	}
	return summary, nil
}

// DiscoverMarkets returns the current tradable universe without
// persisting anything.
func (s *SnapshotLogger) DiscoverMarkets(ctx context.Context) ([]models.MarketSpec, error) {
	nowUTC := s.now().UTC()
	raw, err := s.discover(ctx, nowUTC)
	if err != nil {
		return nil, err
	}
	return market.SelectMarkets(raw, s.universe, nowUTC), nil
}

// discover pages listings ordered by volume, bounded to end dates inside
// the universe window.
func (s *SnapshotLogger) discover(ctx context.Context, nowUTC time.Time) ([]market.GammaMarket, error) {
	endMin := nowUTC.AddDate(0, 0, s.universe.WindowDaysMin).Format(time.RFC3339)
	endMax := nowUTC.AddDate(0, 0, s.universe.WindowDaysMax+1).Format(time.RFC3339)

	var raw []market.GammaMarket
	offset := 0
	for page := 0; page < s.maxPages; page++ {
		params := map[string]string{
			"closed":         "false",
			"limit":          strconv.Itoa(s.pageSize),
			"offset":         strconv.Itoa(offset),
			"order":          "volume",
			"ascending":      "false",
			"volume_num_min": strconv.FormatFloat(s.universe.MinVolumeUSD, 'f', -1, 64),
			"end_date_min":   endMin,
			"end_date_max":   endMax,
		}
		batch, err := s.lister.ListMarkets(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("discover markets: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		raw = append(raw, batch...)
		offset += s.pageSize
	}
	return raw, nil
}

func (s *SnapshotLogger) logOne(ctx context.Context, spec models.MarketSpec, bySlug map[string]market.GammaMarket, nowUTC time.Time, summary *SnapshotSummary) error {
	rawMarket, ok := bySlug[spec.MarketSlug]
	if !ok {
		return fmt.Errorf("raw market missing for slug %s", spec.MarketSlug)
	}

	quote, err := s.lister.QuoteFromMarket(rawMarket, spec.YesLabel)
	if err != nil {
		return fmt.Errorf("quote: %w", err)
	}
	if quote.YesProbability <= 0.0 || quote.YesProbability >= 1.0 {
		return fmt.Errorf("quote probability %v not tradable", quote.YesProbability)
	}

	forecast, err := s.forecast(ctx, spec)
	if err != nil {
		return fmt.Errorf("forecast: %w", err)
	}

	if err := s.store.UpsertMarket(ctx, marketMetadata(spec, nowUTC)); err != nil {
		return err
	}

	details := map[string]any{
		"forecast_details": forecast.Details,
		"market_question":  spec.Question,
		"market_slug":      spec.MarketSlug,
		"market_volume":    deref(spec.Volume),
		"market_liquidity": deref(spec.Liquidity),
		"event_type":       spec.EventType,
		"threshold_value":  spec.ThresholdValue,
		"threshold_unit":   spec.ThresholdUnit,
	}

	row := &models.SnapshotRow{
		CollectedAtUTC:      nowUTC.Format(time.RFC3339),
		Model:               forecast.Model,
		RunDate:             detailString(forecast.Details, "run_date"),
		RunCycleHourUTC:     detailInt(forecast.Details, "run_cycle_hour_utc"),
		MarketSlug:          spec.MarketSlug,
		ContractTicker:      quote.ContractTicker,
		EventID:             forecast.EventID,
		ForecastProbability: forecast.Probability,
		MarketProbability:   quote.YesProbability,
		Edge:                forecast.Probability - quote.YesProbability,
		Details:             details,
	}

	inserted, err := s.store.InsertSnapshot(ctx, row)
	if err != nil {
		return err
	}
	if !inserted {
		summary.Skipped++
		return nil
	}
	summary.Inserted++
	s.metrics.RecordSnapshot(forecast.Model, spec.City.Label)
	return nil
}

func (s *SnapshotLogger) forecast(ctx context.Context, spec models.MarketSpec) (*models.ForecastSnapshot, error) {
	eventDate := spec.EventDate
	switch spec.EventType {
	case market.EventTypeTempMax:
		return s.forecaster.TemperatureProbability(ctx, models.TemperatureEventRequest{
			Lat:           spec.City.Lat,
			Lon:           spec.City.Lon,
			ThresholdF:    spec.ThresholdValue,
			TimezoneName:  spec.City.Timezone,
			EventDate:     &eventDate,
			LocationLabel: spec.City.Label,
			LookbackDays:  s.lookback,
		})
	case market.EventTypePrecipTotal:
		return s.forecaster.PrecipProbability(ctx, models.PrecipEventRequest{
			Lat:           spec.City.Lat,
			Lon:           spec.City.Lon,
			ThresholdIn:   spec.ThresholdValue,
			TimezoneName:  spec.City.Timezone,
			EventDate:     &eventDate,
			LocationLabel: spec.City.Label,
			LookbackDays:  s.lookback,
		})
	default:
		return nil, fmt.Errorf("unsupported event type %q", spec.EventType)
	}
}

func marketMetadata(spec models.MarketSpec, nowUTC time.Time) *models.MarketMetadata {
	return &models.MarketMetadata{
		MarketSlug:     spec.MarketSlug,
		ConditionID:    spec.ConditionID,
		Question:       spec.Question,
		EventTitle:     spec.EventTitle,
		EventType:      spec.EventType,
		CityLabel:      spec.City.Label,
		EventDate:      spec.EventDate.Format("2006-01-02"),
		ThresholdValue: spec.ThresholdValue,
		ThresholdUnit:  spec.ThresholdUnit,
		YesLabel:       spec.YesLabel,
		Volume:         deref(spec.Volume),
		Liquidity:      deref(spec.Liquidity),
		LastSeenUTC:    nowUTC.Format(time.RFC3339),
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func detailString(details map[string]any, key string) string {
	if details == nil {
		return ""
	}
	if v, ok := details[key].(string); ok {
		return v
	}
	return ""
}

func detailInt(details map[string]any, key string) int {
	if details == nil {
		return 0
	}
	switch v := details[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
