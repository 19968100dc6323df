package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Zephyr/internal/domain/models"
	domrepo "Zephyr/internal/domain/repository"
	domsvc "Zephyr/internal/domain/service"
	"Zephyr/internal/execution"
	"Zephyr/internal/market"
	"Zephyr/internal/risk"
	"Zephyr/internal/service/cache"
	"Zephyr/internal/strategy"
	applogger "Zephyr/pkg/logger"
)

// SignalRequest describes one live signal computation.
type SignalRequest struct {
	EventType      string // "temp_max" | "precip_total"
	Lat            float64
	Lon            float64
	ThresholdF     float64
	ThresholdIn    float64
	TimezoneName   string
	EventDate      *time.Time
	LocationLabel  string
	LookbackDays   int
	MarketSlug     string  // Polymarket slug; empty with MarketProbability set skips the venue
	KalshiTicker   string  // Kalshi contract ticker, used when MarketSlug is empty
	YesLabel       string
	MarketProb     float64 // manual override, used when > 0
	MinEdge        float64
	Bankroll       float64
	PaperTrade     bool
	Risk           *risk.Config // overrides the service default when set
}

// SignalResult carries everything the computation produced; Signal and
// Sized are nil when no trade is recommended.
type SignalResult struct {
	Forecast *models.ForecastSnapshot
	Quote    *models.MarketQuote
	Signal   *models.Signal
	Sized    *models.SizedSignal
	Order    *execution.PaperOrder
}

// SignalService runs the forecast -> quote -> signal -> sizing pipeline.
type SignalService struct {
	forecaster domsvc.Forecaster
	polymarket domrepo.QuoteFetcher
	kalshi     domrepo.QuoteFetcher
	executor   *execution.PaperExecutor
	quoteCache cache.BytesCache
	quoteTTL   time.Duration
	riskCfg    risk.Config
	metrics    domrepo.Metrics
	l          *applogger.Logger
}

// NewSignalService creates the service. quoteCache may be nil to disable
// quote caching.
func NewSignalService(
	forecaster domsvc.Forecaster,
	polymarket domrepo.QuoteFetcher,
	kalshi domrepo.QuoteFetcher,
	executor *execution.PaperExecutor,
	quoteCache cache.BytesCache,
	quoteTTL time.Duration,
	riskCfg risk.Config,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *SignalService {
	if quoteTTL <= 0 {
		quoteTTL = 30 * time.Second
	}
	return &SignalService{
		forecaster: forecaster,
		polymarket: polymarket,
		kalshi:     kalshi,
		executor:   executor,
		quoteCache: quoteCache,
		quoteTTL:   quoteTTL,
		riskCfg:    riskCfg,
		metrics:    metrics,
		l:          l,
	}
}

// Generate computes one signal end to end.
func (s *SignalService) Generate(ctx context.Context, req SignalRequest) (*SignalResult, error) {
	started := time.Now()
	forecast, err := s.forecast(ctx, req)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordError("forecast")
		}
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordProbability(forecast.EventID, forecast.Probability)
		s.metrics.RecordLatency("forecast", time.Since(started).Seconds())
	}

	quote, err := s.quote(ctx, req)
	if err != nil {
		return nil, err
	}

	minEdge := req.MinEdge
	if minEdge <= 0 {
		minEdge = strategy.DefaultMinEdge
	}

	result := &SignalResult{Forecast: forecast, Quote: quote}
	signal := strategy.BuildSignal(forecast.EventID, quote.ContractTicker,
		forecast.Probability, quote.YesProbability, minEdge)
	if signal == nil {
		return result, nil
	}
	result.Signal = signal

	riskCfg := s.riskCfg
	if req.Risk != nil {
		riskCfg = *req.Risk
	}
	sized := risk.SizeSignal(signal, req.Bankroll, riskCfg)
	if sized == nil {
		return result, nil
	}
	result.Sized = sized

	if req.PaperTrade && s.executor != nil {
		order, err := s.executor.Execute(sized)
		if err != nil {
			return nil, fmt.Errorf("paper execute: %w", err)
		}
		result.Order = order
	}

	if s.l != nil {
		s.l.Info("signal generated",
			applogger.String("event_id", signal.EventID),
			applogger.String("side", signal.Side),
			applogger.Float64("edge", signal.Edge),
			applogger.Float64("stake_dollars", sized.StakeDollars),
		)
	}
	return result, nil
}

func (s *SignalService) forecast(ctx context.Context, req SignalRequest) (*models.ForecastSnapshot, error) {
	switch req.EventType {
	case market.EventTypeTempMax:
		return s.forecaster.TemperatureProbability(ctx, models.TemperatureEventRequest{
			Lat:           req.Lat,
			Lon:           req.Lon,
			ThresholdF:    req.ThresholdF,
			TimezoneName:  req.TimezoneName,
			EventDate:     req.EventDate,
			LocationLabel: req.LocationLabel,
			LookbackDays:  req.LookbackDays,
		})
	case market.EventTypePrecipTotal:
		return s.forecaster.PrecipProbability(ctx, models.PrecipEventRequest{
			Lat:           req.Lat,
			Lon:           req.Lon,
			ThresholdIn:   req.ThresholdIn,
			TimezoneName:  req.TimezoneName,
			EventDate:     req.EventDate,
			LocationLabel: req.LocationLabel,
			LookbackDays:  req.LookbackDays,
		})
	default:
		return nil, fmt.Errorf("unsupported event type %q", req.EventType)
	}
}

// quote resolves the market probability: manual override first, then the
// configured venue with a short cache in front.
func (s *SignalService) quote(ctx context.Context, req SignalRequest) (*models.MarketQuote, error) {
	if req.MarketProb > 0 {
		if req.MarketProb >= 1 {
			return nil, fmt.Errorf("market probability %v not in (0,1)", req.MarketProb)
		}
		return &models.MarketQuote{
			Source:         "manual",
			ContractTicker: req.KalshiTicker,
			YesProbability: req.MarketProb,
			FetchedAtUTC:   time.Now().UTC(),
		}, nil
	}

	var fetcher domrepo.QuoteFetcher
	var id string
	switch {
	case req.MarketSlug != "" && s.polymarket != nil:
		fetcher, id = s.polymarket, req.MarketSlug
	case req.KalshiTicker != "" && s.kalshi != nil:
		fetcher, id = s.kalshi, req.KalshiTicker
	default:
		return nil, fmt.Errorf("no market identifier or probability given")
	}

	cacheKey := "quote:" + id
	if s.quoteCache != nil {
		if b, ok, err := s.quoteCache.GetBytes(cacheKey); err == nil && ok {
			var cached models.MarketQuote
			if err := json.Unmarshal(b, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	quote, err := fetcher.FetchQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.quoteCache != nil {
		if b, err := json.Marshal(quote); err == nil {
			_ = s.quoteCache.SetBytes(cacheKey, b, s.quoteTTL)
		}
	}
	return quote, nil
}
