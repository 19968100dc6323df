package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"Zephyr/internal/domain/models"
	xhttp "Zephyr/pkg/http"
	applogger "Zephyr/pkg/logger"
)

const (
	// DefaultKalshiBaseURL is the unauthenticated public trade API root.
	DefaultKalshiBaseURL = "https://api.elections.kalshi.com/trade-api/v2"

	kalshiSource    = "kalshi"
	kalshiUserAgent = "zephyr-kalshi-client/1.0"
)

// flexFloat decodes a JSON number or a numeric JSON string.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flex float %q: %w", s, err)
	}
	*f = flexFloat(v)
	return nil
}

func (f *flexFloat) value() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

// kalshiMarket mirrors the quote fields of one Kalshi market object.
// Price fields come in cents (integers) with optional dollar-string twins.
type kalshiMarket struct {
	Ticker           string     `json:"ticker"`
	EventTicker      string     `json:"event_ticker"`
	Title            string     `json:"title"`
	Subtitle         string     `json:"subtitle"`
	YesBid           *flexFloat `json:"yes_bid"`
	YesAsk           *flexFloat `json:"yes_ask"`
	LastPrice        *flexFloat `json:"last_price"`
	YesBidDollars    *flexFloat `json:"yes_bid_dollars"`
	YesAskDollars    *flexFloat `json:"yes_ask_dollars"`
	LastPriceDollars *flexFloat `json:"last_price_dollars"`
}

// KalshiClient reads quotes from Kalshi's public market endpoints.
type KalshiClient struct {
	baseURL string
	http    *xhttp.Client
	l       *applogger.Logger
	now     func() time.Time
}

// KalshiOption configures KalshiClient.
type KalshiOption func(*KalshiClient)

// NewKalshiClient creates a Kalshi public API client.
func NewKalshiClient(opts ...KalshiOption) *KalshiClient {
	c := &KalshiClient{
		baseURL: DefaultKalshiBaseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(20 * time.Second)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithKalshiBaseURL overrides the API root (tests).
func WithKalshiBaseURL(u string) KalshiOption {
	return func(c *KalshiClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithKalshiLogger injects a structured logger.
func WithKalshiLogger(l *applogger.Logger) KalshiOption {
	return func(c *KalshiClient) { c.l = l }
}

// WithKalshiClock overrides the wall clock (tests).
func WithKalshiClock(now func() time.Time) KalshiOption {
	return func(c *KalshiClient) { c.now = now }
}

// FetchMarket resolves one contract by ticker. The derived probability
// must land strictly inside (0,1) or the fetch fails.
func (c *KalshiClient) FetchMarket(ctx context.Context, contractTicker string) (*models.MarketQuote, error) {
	var payload struct {
		Market *kalshiMarket `json:"market"`
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets/" + contractTicker,
		Headers: map[string]string{
			"User-Agent": kalshiUserAgent,
			"Accept":     "application/json",
		},
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("kalshi fetch market %s: %w", contractTicker, err)
	}
	if payload.Market == nil {
		return nil, fmt.Errorf("%w: ticker %q", ErrNoMarket, contractTicker)
	}

	quote := c.toQuote(payload.Market)
	if quote.YesProbability <= 0.0 || quote.YesProbability >= 1.0 {
		return nil, fmt.Errorf("%w: ticker %q probability %v", ErrUntradableQuote, contractTicker, quote.YesProbability)
	}
	return quote, nil
}

// FetchEventMarkets lists every tradable contract under one event ticker.
// Contracts without a usable probability are dropped silently.
func (c *KalshiClient) FetchEventMarkets(ctx context.Context, eventTicker string, limit int) ([]*models.MarketQuote, error) {
	if limit <= 0 {
		limit = 200
	}
	var payload struct {
		Markets []json.RawMessage `json:"markets"`
	}
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets",
		Headers: map[string]string{
			"User-Agent": kalshiUserAgent,
			"Accept":     "application/json",
		},
		QueryParams: map[string][]string{
			"event_ticker": {eventTicker},
			"limit":        {strconv.Itoa(limit)},
		},
	}, &payload)
	if err != nil {
		return nil, fmt.Errorf("kalshi fetch event markets %s: %w", eventTicker, err)
	}

	quotes := make([]*models.MarketQuote, 0, len(payload.Markets))
	for _, raw := range payload.Markets {
		var m kalshiMarket
		if err := json.Unmarshal(raw, &m); err != nil {
			continue
		}
		quote := c.toQuote(&m)
		if quote.YesProbability > 0.0 && quote.YesProbability < 1.0 {
			quotes = append(quotes, quote)
		}
	}
	return quotes, nil
}

// normalizeProbability prefers the dollar field, falling back to the cents
// field scaled into the unit interval.
func normalizeProbability(dollars, cents *flexFloat) *float64 {
	if v := dollars.value(); v != nil && *v >= 0.0 && *v <= 1.0 {
		return v
	}
	if v := cents.value(); v != nil {
		if *v >= 0.0 && *v <= 1.0 {
			return v
		}
		if *v >= 0.0 && *v <= 100.0 {
			scaled := *v / 100.0
			return &scaled
		}
	}
	return nil
}

// toQuote derives the yes-probability with a fixed fallback chain:
// bid/ask midpoint, then ask, then bid, then last trade.
func (c *KalshiClient) toQuote(m *kalshiMarket) *models.MarketQuote {
	yesBid := normalizeProbability(m.YesBidDollars, m.YesBid)
	yesAsk := normalizeProbability(m.YesAskDollars, m.YesAsk)
	lastPrice := normalizeProbability(m.LastPriceDollars, m.LastPrice)

	var probability float64
	switch {
	case positive(yesBid) && positive(yesAsk):
		probability = (*yesBid + *yesAsk) / 2.0
	case positive(yesAsk):
		probability = *yesAsk
	case positive(yesBid):
		probability = *yesBid
	case positive(lastPrice):
		probability = *lastPrice
	}

	return &models.MarketQuote{
		Source:         kalshiSource,
		ContractTicker: m.Ticker,
		EventTicker:    m.EventTicker,
		Title:          m.Title,
		Subtitle:       m.Subtitle,
		YesProbability: probability,
		YesBid:         yesBid,
		YesAsk:         yesAsk,
		LastPrice:      lastPrice,
		FetchedAtUTC:   c.now().UTC(),
	}
}

func positive(v *float64) bool {
	return v != nil && *v > 0.0
}
