package market

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestKalshiFetchMarketMidpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/KXHIGHNY-26AUG30-B90" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"market": {
			"ticker": "KXHIGHNY-26AUG30-B90",
			"event_ticker": "KXHIGHNY-26AUG30",
			"title": "Highest temperature in NYC on Aug 30",
			"subtitle": "90° or above",
			"yes_bid": 40,
			"yes_ask": 44,
			"last_price": 41
		}}`)
	}))
	defer srv.Close()

	c := NewKalshiClient(WithKalshiBaseURL(srv.URL))
	quote, err := c.FetchMarket(context.Background(), "KXHIGHNY-26AUG30-B90")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Source != "kalshi" {
		t.Fatalf("source = %q", quote.Source)
	}
	// Cents scale to dollars; the midpoint of 0.40/0.44 is 0.42.
	if math.Abs(quote.YesProbability-0.42) > 1e-12 {
		t.Fatalf("probability = %v, want 0.42", quote.YesProbability)
	}
	if quote.YesBid == nil || *quote.YesBid != 0.40 {
		t.Fatalf("yes bid = %v", quote.YesBid)
	}
}

func TestKalshiFallbackChain(t *testing.T) {
	c := NewKalshiClient()

	ask := flexFloat(44)
	q := c.toQuote(&kalshiMarket{Ticker: "t", YesAsk: &ask})
	if math.Abs(q.YesProbability-0.44) > 1e-12 {
		t.Fatalf("ask-only probability = %v, want 0.44", q.YesProbability)
	}

	bid := flexFloat(40)
	q = c.toQuote(&kalshiMarket{Ticker: "t", YesBid: &bid})
	if math.Abs(q.YesProbability-0.40) > 1e-12 {
		t.Fatalf("bid-only probability = %v, want 0.40", q.YesProbability)
	}

	last := flexFloat(37)
	q = c.toQuote(&kalshiMarket{Ticker: "t", LastPrice: &last})
	if math.Abs(q.YesProbability-0.37) > 1e-12 {
		t.Fatalf("last-only probability = %v, want 0.37", q.YesProbability)
	}

	q = c.toQuote(&kalshiMarket{Ticker: "t"})
	if q.YesProbability != 0 {
		t.Fatalf("empty quote probability = %v, want 0", q.YesProbability)
	}
}

func TestKalshiDollarFieldsWin(t *testing.T) {
	c := NewKalshiClient()
	bidDollars := flexFloat(0.41)
	bidCents := flexFloat(40)
	askDollars := flexFloat(0.45)
	q := c.toQuote(&kalshiMarket{
		Ticker:        "t",
		YesBid:        &bidCents,
		YesBidDollars: &bidDollars,
		YesAskDollars: &askDollars,
	})
	if math.Abs(q.YesProbability-0.43) > 1e-12 {
		t.Fatalf("probability = %v, want 0.43", q.YesProbability)
	}
}

func TestKalshiFetchMarketNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"market": null}`)
	}))
	defer srv.Close()

	c := NewKalshiClient(WithKalshiBaseURL(srv.URL))
	if _, err := c.FetchMarket(context.Background(), "missing"); !errors.Is(err, ErrNoMarket) {
		t.Fatalf("expected ErrNoMarket, got %v", err)
	}
}

func TestKalshiFetchEventMarketsDropsUntradable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("event_ticker"); got != "KXHIGHNY-26AUG30" {
			t.Errorf("event_ticker = %q", got)
		}
		fmt.Fprint(w, `{"markets": [
			{"ticker": "a", "yes_bid": 40, "yes_ask": 44},
			{"ticker": "b"},
			{"ticker": "c", "last_price": 99}
		]}`)
	}))
	defer srv.Close()

	c := NewKalshiClient(WithKalshiBaseURL(srv.URL))
	quotes, err := c.FetchEventMarkets(context.Background(), "KXHIGHNY-26AUG30", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want 2", len(quotes))
	}
	if quotes[0].ContractTicker != "a" || quotes[1].ContractTicker != "c" {
		t.Fatalf("unexpected tickers: %+v", quotes)
	}
}
