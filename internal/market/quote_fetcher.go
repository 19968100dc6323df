package market

import (
	"context"

	"Zephyr/internal/domain/models"
)

// PolymarketQuoteFetcher adapts PolymarketClient to the single-id quote
// interface, fixing the yes label up front.
type PolymarketQuoteFetcher struct {
	Client   *PolymarketClient
	YesLabel string
}

func (f *PolymarketQuoteFetcher) FetchQuote(ctx context.Context, slug string) (*models.MarketQuote, error) {
	label := f.YesLabel
	if label == "" {
		label = "Yes"
	}
	return f.Client.FetchMarketBySlug(ctx, slug, label)
}

// KalshiQuoteFetcher adapts KalshiClient to the single-id quote interface.
type KalshiQuoteFetcher struct {
	Client *KalshiClient
}

func (f *KalshiQuoteFetcher) FetchQuote(ctx context.Context, contractTicker string) (*models.MarketQuote, error) {
	return f.Client.FetchMarket(ctx, contractTicker)
}
