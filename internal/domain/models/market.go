package models

import "time"

// MarketQuote is a venue's view of one binary contract.
// YesProbability must sit strictly inside (0,1) for the quote to be tradable.
type MarketQuote struct {
	Source         string // "polymarket" | "kalshi"
	ContractTicker string
	EventTicker    string
	Title          string
	Subtitle       string
	YesProbability float64
	YesBid         *float64
	YesAsk         *float64
	LastPrice      *float64
	FetchedAtUTC   time.Time
}

// QuoteTick is one streamed price update for a contract.
type QuoteTick struct {
	ContractTicker string
	Timestamp      int64 // unix seconds
	YesPrice       float64
	Size           float64
}

// CitySpec describes one city the market universe can match against.
type CitySpec struct {
	Label    string
	Name     string
	Aliases  []string
	Lat      float64
	Lon      float64
	Timezone string
}

// MarketSpec is a discovered weather market bound to a city and threshold.
type MarketSpec struct {
	MarketSlug     string
	ConditionID    string
	Question       string
	EventType      string // "temp_max" | "precip_total"
	ThresholdValue float64
	ThresholdUnit  string // "F" | "in"
	EventDate      time.Time
	City           CitySpec
	YesLabel       string
	Volume         *float64
	Liquidity      *float64
	EventTitle     string
}

// MarketMetadata is the persisted form of a discovered market.
type MarketMetadata struct {
	MarketSlug     string
	ConditionID    string
	Question       string
	EventTitle     string
	EventType      string
	CityLabel      string
	EventDate      string
	ThresholdValue float64
	ThresholdUnit  string
	YesLabel       string
	Volume         float64
	Liquidity      float64
	LastSeenUTC    string
}

// SnapshotRow pairs one forecast with the market quote taken at the same
// moment; the flat fields are indexed, Details is stored as a JSON document.
type SnapshotRow struct {
	CollectedAtUTC      string
	Model               string
	RunDate             string
	RunCycleHourUTC     int
	MarketSlug          string
	ContractTicker      string
	EventID             string
	ForecastProbability float64
	MarketProbability   float64
	Edge                float64
	Details             map[string]any
}
