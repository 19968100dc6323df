package models

// Trade sides.
const (
	SideBuyYes = "buy_yes"
	SideBuyNo  = "buy_no"
)

// Signal recommends a side on one contract. It only exists when the
// forecast-vs-market edge cleared the minimum and the expected value per
// dollar staked is strictly positive.
type Signal struct {
	EventID                string
	ContractTicker         string
	Side                   string
	ForecastProbability    float64
	MarketProbability      float64
	Edge                   float64
	ExpectedValuePerDollar float64
	Rationale              string
}

// SizedSignal is a Signal with a bounded bankroll fraction and dollar stake.
type SizedSignal struct {
	Signal             Signal
	FractionOfBankroll float64
	StakeDollars       float64
}

// BacktestRow is one immutable historical observation.
type BacktestRow struct {
	EventID             string
	ContractTicker      string
	ForecastProbability float64
	MarketProbability   float64
	Outcome             int // 0 or 1
	Timestamp           string
}

// SettledTrade is a row that produced a sized signal, settled against its
// outcome. BankrollAfter is the bankroll immediately after settlement.
type SettledTrade struct {
	EventID             string
	ContractTicker      string
	Side                string
	ForecastProbability float64
	MarketProbability   float64
	Edge                float64
	StakeDollars        float64
	PnLDollars          float64
	Outcome             int
	BankrollAfter       float64
	Timestamp           string
}

// BacktestResult aggregates one replay.
type BacktestResult struct {
	StartingBankroll float64
	EndingBankroll   float64
	TotalTrades      int
	WinningTrades    int
	LosingTrades     int
	WinRate          float64
	TotalPnL         float64
	ReturnPct        float64
	AverageEdge      float64 // mean |edge| over settled trades
	Trades           []SettledTrade
}
