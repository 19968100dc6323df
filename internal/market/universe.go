package market

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"Zephyr/internal/domain/models"
	xutil "Zephyr/pkg/util"
)

// Event types emitted by universe selection.
const (
	EventTypeTempMax     = "temp_max"
	EventTypePrecipTotal = "precip_total"
)

const monthPattern = `(Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|` +
	`Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?)`

var (
	dateRe            = regexp.MustCompile(`(?i)` + monthPattern + `\s+(\d{1,2})(?:,?\s*(\d{4}))?`)
	tempThresholdRe   = regexp.MustCompile(`(?i)(-?\d{2,3})\s*°?\s*F`)
	precipThresholdRe = regexp.MustCompile(`(?i)(?:at least|>=|\x{2265}|over|more than|greater than)\s*` +
		`(\d+(?:\.\d+)?)\s*(?:(?:inches|inch|in\.|in)\b|")`)
)

// UniverseConfig bounds which discovered markets are worth quoting.
type UniverseConfig struct {
	Cities              []models.CitySpec
	MinVolumeUSD        float64
	WindowDaysMin       int
	WindowDaysMax       int
	MaxMarkets          int
	SupportedEventTypes []string
	YesLabel            string
}

// MatchCity returns the first city whose alias appears as a whole word in
// the question, or nil.
func MatchCity(question string, cities []models.CitySpec) *models.CitySpec {
	for i := range cities {
		for _, alias := range cities[i].Aliases {
			if alias == "" {
				continue
			}
			re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(alias) + `\b`)
			if err != nil {
				continue
			}
			if re.MatchString(question) {
				return &cities[i]
			}
		}
	}
	return nil
}

// ParseQuestionDate extracts an explicit "Month day[, year]" date from the
// question text. A year-less date in the past rolls forward a year.
func ParseQuestionDate(question string, today time.Time) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(question)
	if m == nil {
		return time.Time{}, false
	}
	monthName, dayStr, yearStr := m[1], m[2], m[3]
	// time.Parse wants canonical casing.
	monthName = strings.ToUpper(monthName[:1]) + strings.ToLower(monthName[1:])

	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, false
	}
	year := today.Year()
	hasYear := yearStr != ""
	if hasYear {
		year, err = strconv.Atoi(yearStr)
		if err != nil {
			return time.Time{}, false
		}
	}

	var parsed time.Time
	for _, layout := range []string{"Jan 2 2006", "January 2 2006"} {
		parsed, err = time.Parse(layout, fmt.Sprintf("%s %d %d", monthName, day, year))
		if err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, false
	}
	if !hasYear && parsed.Before(xutil.DateOnly(today)) {
		parsed = parsed.AddDate(1, 0, 0)
	}
	return parsed, true
}

// ParseTemperatureThreshold extracts a Fahrenheit threshold like "90°F".
func ParseTemperatureThreshold(question string) (float64, bool) {
	m := tempThresholdRe.FindStringSubmatch(question)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParsePrecipThreshold extracts an inches threshold like "at least 0.5 inches".
func ParsePrecipThreshold(question string) (float64, bool) {
	m := precipThresholdRe.FindStringSubmatch(question)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// InferEventDate prefers an explicit date in the question, then the
// market's end date.
func InferEventDate(question string, m GammaMarket, today time.Time) (time.Time, bool) {
	if d, ok := ParseQuestionDate(question, today); ok {
		return d, true
	}
	if m.EndDate == "" {
		return time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, m.EndDate)
	if err != nil {
		return time.Time{}, false
	}
	return xutil.DateOnly(end), true
}

// IsWithinWindow checks target against [today+min, today+max] in days.
func IsWithinWindow(target, today time.Time, minDays, maxDays int) bool {
	delta := int(xutil.DateOnly(target).Sub(xutil.DateOnly(today)).Hours() / 24)
	return delta >= minDays && delta <= maxDays
}

// SelectMarkets filters raw Gamma listings to weather markets worth
// quoting: open, binary with a recognizable yes outcome, enough volume,
// a matched city, an event date inside the window, and a parsable
// threshold of a supported event type. Order is preserved; selection
// stops at MaxMarkets.
func SelectMarkets(markets []GammaMarket, cfg UniverseConfig, today time.Time) []models.MarketSpec {
	yesLabel := cfg.YesLabel
	if yesLabel == "" {
		yesLabel = DefaultYesLabel
	}

	var selected []models.MarketSpec
	for _, m := range markets {
		if cfg.MaxMarkets > 0 && len(selected) >= cfg.MaxMarkets {
			break
		}
		if m.Closed {
			continue
		}

		question := strings.TrimSpace(m.Question)
		if question == "" {
			question = strings.TrimSpace(m.Title)
		}
		if question == "" {
			continue
		}

		outcomes := decodeStringArray(m.Outcomes)
		if len(outcomes) != 2 {
			continue
		}
		hasYes := false
		for _, outcome := range outcomes {
			if strings.EqualFold(strings.TrimSpace(outcome), yesLabel) {
				hasYes = true
				break
			}
		}
		if !hasYes {
			continue
		}

		volume := firstFloat(m.Volume, m.VolumeNum)
		if volume == nil || *volume < cfg.MinVolumeUSD {
			continue
		}

		city := MatchCity(question, cfg.Cities)
		if city == nil {
			continue
		}

		eventDate, ok := InferEventDate(question, m, today)
		if !ok || !IsWithinWindow(eventDate, today, cfg.WindowDaysMin, cfg.WindowDaysMax) {
			continue
		}

		var eventType, thresholdUnit string
		var thresholdValue float64
		if v, ok := ParseTemperatureThreshold(question); ok {
			eventType, thresholdValue, thresholdUnit = EventTypeTempMax, v, "F"
		} else if v, ok := ParsePrecipThreshold(question); ok {
			eventType, thresholdValue, thresholdUnit = EventTypePrecipTotal, v, "in"
		} else {
			continue
		}
		if !containsString(cfg.SupportedEventTypes, eventType) {
			continue
		}

		slug := strings.TrimSpace(m.Slug)
		if slug == "" {
			slug = strings.TrimSpace(m.ID)
		}
		if slug == "" {
			continue
		}

		selected = append(selected, models.MarketSpec{
			MarketSlug:     slug,
			ConditionID:    m.ConditionID,
			Question:       question,
			EventType:      eventType,
			ThresholdValue: thresholdValue,
			ThresholdUnit:  thresholdUnit,
			EventDate:      eventDate,
			City:           *city,
			YesLabel:       yesLabel,
			Volume:         volume,
			Liquidity:      firstFloat(m.Liquidity, m.LiquidityNum),
			EventTitle:     m.EventTitle,
		})
	}
	return selected
}

func firstFloat(candidates ...*flexFloat) *float64 {
	for _, c := range candidates {
		if v := c.value(); v != nil {
			return v
		}
	}
	return nil
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

