package market

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const gammaSlugResponse = `[
  {
    "id": "501234",
    "slug": "nyc-high-temp-aug-30",
    "conditionId": "0xabc123",
    "question": "Will NYC hit 90°F on August 30?",
    "eventSlug": "nyc-weather-aug-30",
    "outcomes": "[\"Yes\", \"No\"]",
    "outcomePrices": "[\"0.42\", \"0.58\"]",
    "volume": "15234.5"
  }
]`

func TestFetchMarketBySlug(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("slug"); got != "nyc-high-temp-aug-30" {
			t.Errorf("slug param = %q", got)
		}
		fmt.Fprint(w, gammaSlugResponse)
	}))
	defer srv.Close()

	c := NewPolymarketClient(WithPolymarketBaseURL(srv.URL))
	quote, err := c.FetchMarketBySlug(context.Background(), "nyc-high-temp-aug-30", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Source != "polymarket" {
		t.Fatalf("source = %q", quote.Source)
	}
	if quote.ContractTicker != "0xabc123" {
		t.Fatalf("contract = %q, want condition id", quote.ContractTicker)
	}
	if quote.EventTicker != "nyc-weather-aug-30" {
		t.Fatalf("event ticker = %q", quote.EventTicker)
	}
	if quote.YesProbability != 0.42 {
		t.Fatalf("probability = %v, want 0.42", quote.YesProbability)
	}
}

func TestFetchMarketBySlugNoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "[]")
	}))
	defer srv.Close()

	c := NewPolymarketClient(WithPolymarketBaseURL(srv.URL))
	if _, err := c.FetchMarketBySlug(context.Background(), "missing", ""); !errors.Is(err, ErrNoMarket) {
		t.Fatalf("expected ErrNoMarket, got %v", err)
	}
}

func TestFetchMarketBySlugUntradable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"slug":"s","outcomes":"[\"Yes\",\"No\"]","outcomePrices":"[\"1\",\"0\"]"}]`)
	}))
	defer srv.Close()

	c := NewPolymarketClient(WithPolymarketBaseURL(srv.URL))
	if _, err := c.FetchMarketBySlug(context.Background(), "s", ""); !errors.Is(err, ErrUntradableQuote) {
		t.Fatalf("expected ErrUntradableQuote, got %v", err)
	}
}

func TestListMarketsWrappedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"markets": [{"slug": "a"}, {"slug": "b"}]}`)
	}))
	defer srv.Close()

	c := NewPolymarketClient(WithPolymarketBaseURL(srv.URL))
	markets, err := c.ListMarkets(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(markets) != 2 || markets[0].Slug != "a" {
		t.Fatalf("unexpected markets: %+v", markets)
	}
}

func TestQuoteFromMarketMissingYesLabel(t *testing.T) {
	c := NewPolymarketClient()
	m := gammaFixture("q", "s", 100, "")
	if _, err := c.QuoteFromMarket(m, "Over"); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}
