package models

import "time"

// ForecastRun identifies one GEFS ensemble cycle on NOMADS.
// Immutable once discovered.
type ForecastRun struct {
	RunDate     time.Time // calendar date of the cycle (UTC)
	CycleHour   int       // 0, 6, 12, 18
	DatasetBase string    // base URL for .dds / .ascii queries
}

// TemperatureEventRequest asks for the probability that the daily max
// 2m temperature at (Lat, Lon) reaches ThresholdF on EventDate.
type TemperatureEventRequest struct {
	Lat           float64
	Lon           float64
	ThresholdF    float64
	TimezoneName  string     // IANA name, e.g. "America/New_York"
	EventDate     *time.Time // local calendar date; nil means tomorrow in TimezoneName
	LocationLabel string
	LookbackDays  int
}

// PrecipEventRequest asks for the probability that accumulated
// precipitation at (Lat, Lon) reaches ThresholdIn on EventDate.
type PrecipEventRequest struct {
	Lat           float64
	Lon           float64
	ThresholdIn   float64
	TimezoneName  string
	EventDate     *time.Time
	LocationLabel string
	LookbackDays  int
}

// ForecastSnapshot is the calculator's output: one event probability plus
// the supporting detail that callers persist alongside it. Details holds
// scalars, strings, booleans, and lists thereof only, so it round-trips
// through JSON unchanged.
type ForecastSnapshot struct {
	EventID        string
	Model          string
	Probability    float64
	GeneratedAtUTC time.Time
	Details        map[string]any
}
