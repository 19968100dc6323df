package api

import (
	"fmt"
	"net/http"
	"time"

	models "Zephyr/internal/domain/models"
	domsvc "Zephyr/internal/domain/service"
	"Zephyr/internal/risk"
	"Zephyr/internal/service/ratelimit"
	"Zephyr/internal/usecase"
	xhttp "Zephyr/pkg/http"
	xlogger "Zephyr/pkg/logger"

	"github.com/labstack/echo/v4"
)

// WeatherEchoHandler exposes the forecast, signal, and backtest
// operations over HTTP.
type WeatherEchoHandler struct {
	logger     *xlogger.Logger
	forecaster domsvc.Forecaster
	signals    *usecase.SignalService
	backtests  *usecase.BacktestService
	snapshots  *usecase.SnapshotLogger
	rl         *ratelimit.Limiter
}

func NewWeatherEchoHandler(
	logger *xlogger.Logger,
	forecaster domsvc.Forecaster,
	signals *usecase.SignalService,
	backtests *usecase.BacktestService,
	snapshots *usecase.SnapshotLogger,
) *WeatherEchoHandler {
	return &WeatherEchoHandler{
		logger:     logger,
		forecaster: forecaster,
		signals:    signals,
		backtests:  backtests,
		snapshots:  snapshots,
		rl:         ratelimit.New(),
	}
}

// throttle consumes one token for the client and operation pair. Forecast
// and signal calls fan out to NOMADS, so the buckets are small.
func (h *WeatherEchoHandler) throttle(c echo.Context, op string, capacity, refillPerSec float64) error {
	if h.rl.Allow(c.RealIP()+":"+op, capacity, refillPerSec) {
		return nil
	}
	if h.logger != nil {
		h.logger.Warn(op+" rate_limited", xlogger.String("remote", c.RealIP()))
	}
	return echo.NewHTTPError(http.StatusTooManyRequests, "rate limited")
}

func (h *WeatherEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/forecast", h.Forecast)
	g.POST("/signal", h.Signal)
	g.POST("/backtest", h.Backtest)
	g.GET("/markets", h.Markets)
	g.POST("/snapshots/run", h.RunSnapshots)
	g.POST("/outcomes", h.Outcome)
}

func (h *WeatherEchoHandler) Forecast(c echo.Context) error {
	if err := h.throttle(c, "forecast", 5, 2); err != nil {
		return err
	}
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	ctx := c.Request().Context()
	var snapshot *models.ForecastSnapshot
	switch req.EventType {
	case "temp_max":
		snapshot, err = h.forecaster.TemperatureProbability(ctx, models.TemperatureEventRequest{
			Lat:           req.Lat,
			Lon:           req.Lon,
			ThresholdF:    req.ThresholdF,
			TimezoneName:  req.Timezone,
			EventDate:     eventDate,
			LocationLabel: req.LocationLabel,
			LookbackDays:  req.LookbackDays,
		})
	default:
		snapshot, err = h.forecaster.PrecipProbability(ctx, models.PrecipEventRequest{
			Lat:           req.Lat,
			Lon:           req.Lon,
			ThresholdIn:   req.ThresholdIn,
			TimezoneName:  req.Timezone,
			EventDate:     eventDate,
			LocationLabel: req.LocationLabel,
			LookbackDays:  req.LookbackDays,
		})
	}
	if err != nil {
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, snapshot)
}

func (h *WeatherEchoHandler) Signal(c echo.Context) error {
	if err := h.throttle(c, "signal", 5, 2); err != nil {
		return err
	}
	req := &models.SignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	eventDate, err := parseEventDate(req.EventDate)
	if err != nil {
		return xhttp.BadRequestResponse(c, err.Error())
	}

	riskCfg := risk.Config{
		MaxFractionPerContract: req.MaxFraction,
		KellyScale:             req.KellyScale,
	}
	res, err := h.signals.Generate(c.Request().Context(), usecase.SignalRequest{
		EventType:     req.EventType,
		Lat:           req.Lat,
		Lon:           req.Lon,
		ThresholdF:    req.ThresholdF,
		ThresholdIn:   req.ThresholdIn,
		TimezoneName:  req.Timezone,
		EventDate:     eventDate,
		LocationLabel: req.LocationLabel,
		LookbackDays:  req.LookbackDays,
		MarketSlug:    req.PolymarketSlug,
		YesLabel:      req.YesLabel,
		MarketProb:    req.MarketProbability,
		MinEdge:       req.MinEdge,
		Bankroll:      req.Bankroll,
		Risk:          &riskCfg,
	})
	if err != nil {
		h.logger.Error("signal usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *WeatherEchoHandler) Backtest(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows := make([]models.BacktestRow, 0, len(req.Rows))
	for _, r := range req.Rows {
		rows = append(rows, models.BacktestRow{
			EventID:             r.EventID,
			ContractTicker:      r.ContractTicker,
			ForecastProbability: r.ForecastProbability,
			MarketProbability:   r.MarketProbability,
			Outcome:             r.Outcome,
			Timestamp:           r.Timestamp,
		})
	}
	var from, to *time.Time
	if t, ok := xhttp.ParseTime(req.From); ok {
		from = &t
	}
	if t, ok := xhttp.ParseTime(req.To); ok {
		to = &t
	}
	riskCfg := risk.Config{
		MaxFractionPerContract: req.MaxFraction,
		KellyScale:             req.KellyScale,
	}
	res, err := h.backtests.Run(c.Request().Context(), usecase.BacktestRequest{
		Rows:             rows,
		Model:            req.Model,
		Start:            from,
		End:              to,
		StartingBankroll: req.StartingBankroll,
		MinEdge:          req.MinEdge,
		Risk:             &riskCfg,
	})
	if err != nil {
		h.logger.Error("backtest usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *WeatherEchoHandler) Markets(c echo.Context) error {
	if err := h.throttle(c, "markets", 3, 1); err != nil {
		return err
	}
	specs, err := h.snapshots.DiscoverMarkets(c.Request().Context())
	if err != nil {
		h.logger.Error("market discovery error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	total := int64(len(specs))
	if limit := xhttp.ParseIntDefault(c.QueryParam("limit"), 0); limit > 0 && limit < len(specs) {
		specs = specs[:limit]
	}
	return xhttp.ListResponse(c, specs, total)
}

func (h *WeatherEchoHandler) RunSnapshots(c echo.Context) error {
	if err := h.throttle(c, "snapshots", 2, 0.2); err != nil {
		return err
	}
	summary, err := h.snapshots.Run(c.Request().Context())
	if err != nil {
		h.logger.Error("snapshot pass error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, summary)
}

func (h *WeatherEchoHandler) Outcome(c echo.Context) error {
	req := &models.OutcomeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.EventDate != "" {
		if _, err := parseEventDate(req.EventDate); err != nil {
			return xhttp.BadRequestResponse(c, err.Error())
		}
	}
	if err := h.backtests.RecordOutcome(c.Request().Context(), req.MarketSlug, *req.Outcome, req.EventDate); err != nil {
		h.logger.Error("record outcome error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, req)
}

func parseEventDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("event_date must be YYYY-MM-DD: %w", err)
	}
	return &t, nil
}
