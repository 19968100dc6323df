// Package market talks to prediction-market venues and filters their
// listings down to tradable weather contracts.
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
	// DefaultPolymarketBaseURL is the public Gamma REST API root.
	DefaultPolymarketBaseURL = "https://gamma-api.polymarket.com"

	// DefaultYesLabel is the outcome label treated as the yes side.
	DefaultYesLabel = "Yes"

	polymarketSource    = "polymarket"
	polymarketUserAgent = "zephyr-polymarket-client/1.0"
)

// GammaMarket mirrors the fields of one Gamma market object this system
// reads. Outcomes and outcome prices arrive either as JSON arrays or as
// strings containing JSON arrays, so both are kept raw until decoded.
type GammaMarket struct {
	ID            string          `json:"id"`
	Slug          string          `json:"slug"`
	ConditionID   string          `json:"conditionId"`
	Question      string          `json:"question"`
	Title         string          `json:"title"`
	EventSlug     string          `json:"eventSlug"`
	EventID       string          `json:"eventId"`
	EventTitle    string          `json:"eventTitle"`
	Closed        bool            `json:"closed"`
	EndDate       string          `json:"endDate"`
	Outcomes      json.RawMessage `json:"outcomes"`
	OutcomePrices json.RawMessage `json:"outcomePrices"`
	Volume        *flexFloat      `json:"volume"`
	VolumeNum     *flexFloat      `json:"volumeNum"`
	Liquidity     *flexFloat      `json:"liquidity"`
	LiquidityNum  *flexFloat      `json:"liquidityNum"`
}

// PolymarketClient reads market data from the Gamma REST API. Read-only,
// no authentication.
type PolymarketClient struct {
	baseURL string
	http    *xhttp.Client
	l       *applogger.Logger
	now     func() time.Time
}

// PolymarketOption configures PolymarketClient.
type PolymarketOption func(*PolymarketClient)

// NewPolymarketClient creates a Gamma API client.
func NewPolymarketClient(opts ...PolymarketOption) *PolymarketClient {
	c := &PolymarketClient{
		baseURL: DefaultPolymarketBaseURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(20 * time.Second)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithPolymarketBaseURL overrides the API root (tests).
func WithPolymarketBaseURL(u string) PolymarketOption {
	return func(c *PolymarketClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithPolymarketLogger injects a structured logger.
func WithPolymarketLogger(l *applogger.Logger) PolymarketOption {
	return func(c *PolymarketClient) { c.l = l }
}

// WithPolymarketClock overrides the wall clock (tests).
func WithPolymarketClock(now func() time.Time) PolymarketOption {
	return func(c *PolymarketClient) { c.now = now }
}

// FetchMarketBySlug resolves one market by its slug and derives a quote.
// The quote must land strictly inside (0,1) or the fetch fails with
// ErrUntradableQuote.
func (c *PolymarketClient) FetchMarketBySlug(ctx context.Context, slug, yesLabel string) (*models.MarketQuote, error) {
	markets, err := c.ListMarkets(ctx, map[string]string{"slug": slug})
	if err != nil {
		return nil, err
	}
	if len(markets) == 0 {
		return nil, fmt.Errorf("%w: slug %q", ErrNoMarket, slug)
	}

	quote, err := c.QuoteFromMarket(markets[0], yesLabel)
	if err != nil {
		return nil, err
	}
	if quote.YesProbability <= 0.0 || quote.YesProbability >= 1.0 {
		return nil, fmt.Errorf("%w: slug %q probability %v", ErrUntradableQuote, slug, quote.YesProbability)
	}
	return quote, nil
}

// ListMarkets queries /markets with the given parameters. The API answers
// with either a bare array or a {"markets": [...]} wrapper.
func (c *PolymarketClient) ListMarkets(ctx context.Context, params map[string]string) ([]GammaMarket, error) {
	query := make(map[string][]string, len(params))
	for k, v := range params {
		if v != "" {
			query[k] = []string{v}
		}
	}

	var raw json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/markets",
		Headers: map[string]string{
			"User-Agent": polymarketUserAgent,
			"Accept":     "application/json",
		},
		QueryParams: query,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("polymarket list markets: %w", err)
	}

	var markets []GammaMarket
	if err := json.Unmarshal(raw, &markets); err == nil {
		return markets, nil
	}
	var wrapper struct {
		Markets []GammaMarket `json:"markets"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && wrapper.Markets != nil {
		return wrapper.Markets, nil
	}
	return nil, fmt.Errorf("%w: polymarket markets response", ErrBadPayload)
}

// QuoteFromMarket derives a MarketQuote from one already-fetched market.
func (c *PolymarketClient) QuoteFromMarket(m GammaMarket, yesLabel string) (*models.MarketQuote, error) {
	if yesLabel == "" {
		yesLabel = DefaultYesLabel
	}

	outcomes := decodeStringArray(m.Outcomes)
	if len(outcomes) == 0 {
		return nil, fmt.Errorf("%w: market has no outcomes", ErrBadPayload)
	}
	prices, err := decodeFloatArray(m.OutcomePrices)
	if err != nil {
		return nil, fmt.Errorf("%w: outcome prices: %v", ErrBadPayload, err)
	}
	if len(prices) != len(outcomes) {
		return nil, fmt.Errorf("%w: %d prices for %d outcomes", ErrBadPayload, len(prices), len(outcomes))
	}

	yesIdx := -1
	for i, outcome := range outcomes {
		if strings.EqualFold(strings.TrimSpace(outcome), strings.TrimSpace(yesLabel)) {
			yesIdx = i
			break
		}
	}
	if yesIdx < 0 {
		return nil, fmt.Errorf("%w: outcome label %q not in %v", ErrBadPayload, yesLabel, outcomes)
	}

	contract := m.ConditionID
	if contract == "" {
		contract = m.ID
	}
	if contract == "" {
		contract = m.Slug
	}
	eventTicker := m.EventSlug
	if eventTicker == "" {
		eventTicker = m.EventID
	}
	title := m.Question
	if title == "" {
		title = m.Title
	}

	return &models.MarketQuote{
		Source:         polymarketSource,
		ContractTicker: contract,
		EventTicker:    eventTicker,
		Title:          title,
		YesProbability: prices[yesIdx],
		FetchedAtUTC:   c.now().UTC(),
	}, nil
}

// decodeStringArray accepts a JSON array of strings or a JSON string
// containing one.
func decodeStringArray(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err == nil {
		return items
	}
	var nested string
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil
	}
	if err := json.Unmarshal([]byte(nested), &items); err != nil {
		return nil
	}
	return items
}

func decodeFloatArray(raw json.RawMessage) ([]float64, error) {
	items := decodeStringArrayLoose(raw)
	if items == nil {
		return nil, fmt.Errorf("not an array")
	}
	out := make([]float64, len(items))
	for i, item := range items {
		v, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			return nil, fmt.Errorf("non-numeric element %q", item)
		}
		out[i] = v
	}
	return out, nil
}

// decodeStringArrayLoose is decodeStringArray but also accepts arrays of
// numbers, normalizing every element to its string form.
func decodeStringArrayLoose(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var anyItems []any
	data := raw
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		data = []byte(nested)
	}
	if err := json.Unmarshal(data, &anyItems); err != nil {
		return nil
	}
	out := make([]string, len(anyItems))
	for i, item := range anyItems {
		out[i] = fmt.Sprint(item)
	}
	return out
}
