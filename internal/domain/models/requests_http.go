package models

// ForecastRequest is the API payload for a single probability computation.
type ForecastRequest struct {
	EventType     string  `json:"event_type" validate:"required,oneof=temp_max precip_total"`
	Lat           float64 `json:"lat" default:"40.7128" validate:"gte=-90,lte=90"`
	Lon           float64 `json:"lon" default:"-74.0060"`
	ThresholdF    float64 `json:"threshold_f" default:"85.0"`
	ThresholdIn   float64 `json:"threshold_in" default:"0.1"`
	Timezone      string  `json:"timezone" default:"America/New_York"`
	EventDate     string  `json:"event_date,omitempty"` // YYYY-MM-DD, empty = tomorrow
	LocationLabel string  `json:"location_label" default:"NYC"`
	LookbackDays  int     `json:"lookback_days" default:"2" validate:"gte=0,lte=7"`
}

// SignalRequest extends ForecastRequest with market and risk parameters.
type SignalRequest struct {
	ForecastRequest
	PolymarketSlug    string  `json:"polymarket_slug,omitempty"`
	YesLabel          string  `json:"yes_label" default:"Yes"`
	MarketProbability float64 `json:"market_probability,omitempty" validate:"gte=0,lte=1"`
	MinEdge           float64 `json:"min_edge" default:"0.10" validate:"gte=0,lt=1"`
	Bankroll          float64 `json:"bankroll" default:"200.0" validate:"gt=0"`
	MaxFraction       float64 `json:"max_fraction_per_contract" default:"0.03" validate:"gt=0,lte=1"`
	KellyScale        float64 `json:"kelly_scale" default:"0.25" validate:"gt=0,lte=1"`
}

// BacktestRequest replays rows through the strategy and sizer. Inline
// rows take precedence; with no rows the stored resolved snapshots for
// Model inside [From, To) are replayed instead.
type BacktestRequest struct {
	Rows             []BacktestRowRequest `json:"rows,omitempty" validate:"dive"`
	Model            string               `json:"model,omitempty"`
	From             string               `json:"from,omitempty"`
	To               string               `json:"to,omitempty"`
	StartingBankroll float64              `json:"starting_bankroll" default:"10000.0" validate:"gt=0"`
	MinEdge          float64              `json:"min_edge" default:"0.10" validate:"gte=0,lt=1"`
	MaxFraction      float64              `json:"max_fraction_per_contract" default:"0.03" validate:"gt=0,lte=1"`
	KellyScale       float64              `json:"kelly_scale" default:"0.25" validate:"gt=0,lte=1"`
}

// OutcomeRequest resolves one market so its snapshots can be replayed.
type OutcomeRequest struct {
	MarketSlug string `json:"market_slug" validate:"required"`
	Outcome    *int   `json:"outcome" validate:"required,gte=0,lte=1"`
	EventDate  string `json:"event_date,omitempty"` // YYYY-MM-DD
}

// BacktestRowRequest is the wire form of one historical observation.
type BacktestRowRequest struct {
	EventID             string  `json:"event_id" validate:"required"`
	ContractTicker      string  `json:"contract_ticker"`
	ForecastProbability float64 `json:"forecast_probability" validate:"gte=0,lte=1"`
	MarketProbability   float64 `json:"market_probability" validate:"gte=0,lte=1"`
	Outcome             int     `json:"outcome" validate:"gte=0,lte=1"`
	Timestamp           string  `json:"timestamp,omitempty"`
}
