package market

import (
	"encoding/json"
	"testing"
	"time"

	"Zephyr/internal/domain/models"
)

var testCities = []models.CitySpec{
	{
		Label:    "nyc",
		Name:     "New York City",
		Aliases:  []string{"NYC", "New York"},
		Lat:      40.7128,
		Lon:      -74.0060,
		Timezone: "America/New_York",
	},
	{
		Label:    "chi",
		Name:     "Chicago",
		Aliases:  []string{"Chicago"},
		Lat:      41.8781,
		Lon:      -87.6298,
		Timezone: "America/Chicago",
	},
}

func TestMatchCity(t *testing.T) {
	city := MatchCity("Will NYC hit 90°F on July 4?", testCities)
	if city == nil || city.Label != "nyc" {
		t.Fatalf("unexpected city: %+v", city)
	}
	city = MatchCity("Will it rain in Chicago tomorrow?", testCities)
	if city == nil || city.Label != "chi" {
		t.Fatalf("unexpected city: %+v", city)
	}
	if city := MatchCity("Will Boston hit 90°F?", testCities); city != nil {
		t.Fatalf("expected no match, got %+v", city)
	}
	// Whole-word only: "NYCB" must not match the NYC alias.
	if city := MatchCity("Will NYCB stock rise?", testCities); city != nil {
		t.Fatalf("expected no partial-word match, got %+v", city)
	}
}

func TestParseQuestionDate(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	d, ok := ParseQuestionDate("Will NYC hit 90°F on September 3, 2026?", today)
	if !ok || d.Format("2006-01-02") != "2026-09-03" {
		t.Fatalf("got %v ok=%v", d, ok)
	}

	// No year: future date stays in the current year.
	d, ok = ParseQuestionDate("highest temperature on Sep 3?", today)
	if !ok || d.Format("2006-01-02") != "2026-09-03" {
		t.Fatalf("got %v ok=%v", d, ok)
	}

	// No year and already past: rolls to next year.
	d, ok = ParseQuestionDate("highest temperature on Jan 15?", today)
	if !ok || d.Format("2006-01-02") != "2027-01-15" {
		t.Fatalf("got %v ok=%v", d, ok)
	}

	if _, ok := ParseQuestionDate("no date here", today); ok {
		t.Fatalf("expected no date")
	}
}

func TestParseThresholds(t *testing.T) {
	v, ok := ParseTemperatureThreshold("Will NYC reach 95°F on July 4?")
	if !ok || v != 95 {
		t.Fatalf("temp threshold = %v ok=%v", v, ok)
	}
	v, ok = ParseTemperatureThreshold("Will it drop below -10 F?")
	if !ok || v != -10 {
		t.Fatalf("temp threshold = %v ok=%v", v, ok)
	}
	if _, ok := ParseTemperatureThreshold("no threshold"); ok {
		t.Fatalf("expected no temp threshold")
	}

	v, ok = ParsePrecipThreshold("Will NYC get at least 0.5 inches of rain?")
	if !ok || v != 0.5 {
		t.Fatalf("precip threshold = %v ok=%v", v, ok)
	}
	v, ok = ParsePrecipThreshold(`more than 1 inch of snow`)
	if !ok || v != 1 {
		t.Fatalf("precip threshold = %v ok=%v", v, ok)
	}
	if _, ok := ParsePrecipThreshold("Will it rain?"); ok {
		t.Fatalf("expected no precip threshold")
	}
}

func gammaFixture(question, slug string, volume float64, endDate string) GammaMarket {
	vol := flexFloat(volume)
	return GammaMarket{
		Slug:          slug,
		ConditionID:   "0xcond-" + slug,
		Question:      question,
		EndDate:       endDate,
		Outcomes:      json.RawMessage(`["Yes","No"]`),
		OutcomePrices: json.RawMessage(`["0.42","0.58"]`),
		Volume:        &vol,
	}
}

func TestSelectMarkets(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	cfg := UniverseConfig{
		Cities:              testCities,
		MinVolumeUSD:        1000,
		WindowDaysMin:       0,
		WindowDaysMax:       7,
		MaxMarkets:          10,
		SupportedEventTypes: []string{EventTypeTempMax, EventTypePrecipTotal},
	}

	markets := []GammaMarket{
		gammaFixture("Will NYC hit 90°F on August 30?", "nyc-temp", 5000, ""),
		gammaFixture("Will Chicago get at least 0.25 inches of rain on August 31?", "chi-rain", 2000, ""),
		gammaFixture("Will NYC hit 90°F on August 30?", "low-volume", 10, ""),
		gammaFixture("Will Boston hit 90°F on August 30?", "no-city", 5000, ""),
		gammaFixture("Will NYC hit 90°F on December 25?", "outside-window", 5000, ""),
		gammaFixture("Will NYC have a parade on August 30?", "no-threshold", 5000, ""),
	}

	specs := SelectMarkets(markets, cfg, today)
	if len(specs) != 2 {
		t.Fatalf("selected %d markets, want 2: %+v", len(specs), specs)
	}

	first := specs[0]
	if first.MarketSlug != "nyc-temp" || first.EventType != EventTypeTempMax {
		t.Fatalf("unexpected first spec: %+v", first)
	}
	if first.ThresholdValue != 90 || first.ThresholdUnit != "F" {
		t.Fatalf("unexpected threshold: %+v", first)
	}
	if first.City.Label != "nyc" {
		t.Fatalf("unexpected city: %+v", first.City)
	}
	if first.EventDate.Format("2006-01-02") != "2026-08-30" {
		t.Fatalf("unexpected event date: %v", first.EventDate)
	}

	second := specs[1]
	if second.EventType != EventTypePrecipTotal || second.ThresholdValue != 0.25 || second.ThresholdUnit != "in" {
		t.Fatalf("unexpected second spec: %+v", second)
	}
}

func TestSelectMarketsClosedAndMalformed(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	cfg := UniverseConfig{
		Cities:              testCities,
		SupportedEventTypes: []string{EventTypeTempMax},
		WindowDaysMax:       7,
		MaxMarkets:          10,
	}

	closed := gammaFixture("Will NYC hit 90°F on August 30?", "closed", 5000, "")
	closed.Closed = true
	threeOutcomes := gammaFixture("Will NYC hit 90°F on August 30?", "ternary", 5000, "")
	threeOutcomes.Outcomes = json.RawMessage(`["Yes","No","Maybe"]`)

	specs := SelectMarkets([]GammaMarket{closed, threeOutcomes}, cfg, today)
	if len(specs) != 0 {
		t.Fatalf("expected nothing selected, got %+v", specs)
	}
}

func TestInferEventDateFallsBackToEndDate(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)
	m := gammaFixture("Will NYC hit 90°F this week?", "enddate", 5000, "2026-09-01T12:00:00Z")
	d, ok := InferEventDate(m.Question, m, today)
	if !ok || d.Format("2006-01-02") != "2026-09-01" {
		t.Fatalf("got %v ok=%v", d, ok)
	}
}
