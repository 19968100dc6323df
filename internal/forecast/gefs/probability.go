package gefs

import (
	"context"
	"fmt"
	"math"
	"time"

	"Zephyr/internal/domain/models"
	domsvc "Zephyr/internal/domain/service"
	applogger "Zephyr/pkg/logger"
)

// ModelName labels snapshots produced by this package.
const ModelName = "NOAA_GEFS"

// 31 ensemble members: control + 30 perturbations.
const lastMemberIdx = 30

const cumulativeTolerance = 1e-6

// eventWindow is the resolved slice of the run's time axis covering the
// requested local calendar date.
type eventWindow struct {
	run        *models.ForecastRun
	latIdx     int
	lonIdx     int
	timeStart  int
	timeEnd    int
	localTimes []time.Time // full axis, request-local
	targetDate time.Time
}

// resolveWindow runs the pipeline stages shared by both event types:
// run discovery, grid mapping, and timestep selection.
func (c *Client) resolveWindow(ctx context.Context, lat, lon float64, tzName string, eventDate *time.Time, lookbackDays int) (*eventWindow, error) {
	localTZ, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tzName, err)
	}

	latIdx, lonIdx, err := NearestGridIndices(lat, lon)
	if err != nil {
		return nil, err
	}

	run, err := c.FindLatestRun(ctx, lookbackDays)
	if err != nil {
		return nil, err
	}

	timeText, err := c.getText(ctx, c.http, run.DatasetBase+".ascii?time")
	if err != nil {
		return nil, err
	}
	timeAxis, err := ParseASCIIVector(timeText)
	if err != nil {
		return nil, err
	}
	if len(timeAxis) == 0 {
		return nil, fmt.Errorf("%w: time axis is empty", ErrParse)
	}

	localTimes := make([]time.Time, len(timeAxis))
	for i, v := range timeAxis {
		localTimes[i] = ordinalDayToUTC(v).In(localTZ)
	}

	var targetDate time.Time
	if eventDate != nil {
		targetDate = *eventDate
	} else {
		targetDate = c.now().In(localTZ).AddDate(0, 0, 1)
	}

	timeStart, timeEnd := -1, -1
	for i, lt := range localTimes {
		if sameDate(lt, targetDate) {
			if timeStart < 0 {
				timeStart = i
			}
			timeEnd = i
		}
	}
	if timeStart < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTimesteps, targetDate.Format("2006-01-02"))
	}

	return &eventWindow{
		run:        run,
		latIdx:     latIdx,
		lonIdx:     lonIdx,
		timeStart:  timeStart,
		timeEnd:    timeEnd,
		localTimes: localTimes,
		targetDate: targetDate,
	}, nil
}

// TemperatureProbability estimates P(daily max 2m temperature >= threshold)
// as the fraction of ensemble members whose window maximum clears the
// threshold in Kelvin.
func (c *Client) TemperatureProbability(ctx context.Context, req models.TemperatureEventRequest) (*models.ForecastSnapshot, error) {
	w, err := c.resolveWindow(ctx, req.Lat, req.Lon, req.TimezoneName, req.EventDate, req.LookbackDays)
	if err != nil {
		return nil, err
	}

	fieldURL := fmt.Sprintf("%s.ascii?tmp2m[0:1:%d][%d:1:%d][%d][%d]",
		w.run.DatasetBase, lastMemberIdx, w.timeStart, w.timeEnd, w.latIdx, w.lonIdx)
	fieldText, err := c.getText(ctx, c.http, fieldURL)
	if err != nil {
		return nil, err
	}
	matrix, skipped, err := ParseMemberTimeMatrix(fieldText)
	if err != nil {
		return nil, err
	}
	if skipped > 0 && c.l != nil {
		c.l.Warn("gefs matrix lines skipped",
			applogger.String("variable", "tmp2m"),
			applogger.Int("skipped", skipped),
		)
	}

	thresholdK := FahrenheitToKelvin(req.ThresholdF)
	var maxima []float64
	for _, row := range matrix {
		best := math.NaN()
		for _, v := range row {
			if !isValidValue(v) {
				continue
			}
			if math.IsNaN(best) || v > best {
				best = v
			}
		}
		if !math.IsNaN(best) {
			maxima = append(maxima, best)
		}
	}
	if len(maxima) == 0 {
		return nil, ErrNoValidMembers
	}

	exceeding := 0
	for _, m := range maxima {
		if m >= thresholdK {
			exceeding++
		}
	}
	probability := float64(exceeding) / float64(len(maxima))

	gridLat, gridLon := GridCoords(w.latIdx, w.lonIdx)
	eventID := fmt.Sprintf("tmp2m_max::%s::%s::ge_%.1fF",
		req.LocationLabel, w.targetDate.Format("2006-01-02"), req.ThresholdF)

	details := c.baseDetails(w, req.LocationLabel, req.Lat, req.Lon, gridLat, gridLon, req.TimezoneName, skipped)
	details["threshold_f"] = req.ThresholdF
	details["threshold_k"] = thresholdK
	details["runs_exceeding_threshold"] = exceeding
	details["total_runs"] = len(maxima)

	return c.snapshot(eventID, probability, details), nil
}

// PrecipProbability estimates P(accumulated precipitation >= threshold).
// The reported field may be a running accumulation since run start or a
// per-step increment; the matrix is classified and aggregated accordingly.
func (c *Client) PrecipProbability(ctx context.Context, req models.PrecipEventRequest) (*models.ForecastSnapshot, error) {
	w, err := c.resolveWindow(ctx, req.Lat, req.Lon, req.TimezoneName, req.EventDate, req.LookbackDays)
	if err != nil {
		return nil, err
	}

	// One extra pre-window step gives cumulative differencing a baseline.
	fetchStart := w.timeStart
	if fetchStart > 0 {
		fetchStart--
	}
	windowOffset := w.timeStart - fetchStart

	ddsText, err := c.getText(ctx, c.probe, w.run.DatasetBase+".dds")
	if err != nil {
		return nil, err
	}
	precipVar, err := FindPrecipVariable(ddsText)
	if err != nil {
		return nil, err
	}

	fieldURL := fmt.Sprintf("%s.ascii?%s[0:1:%d][%d:1:%d][%d][%d]",
		w.run.DatasetBase, precipVar, lastMemberIdx, fetchStart, w.timeEnd, w.latIdx, w.lonIdx)
	fieldText, err := c.getText(ctx, c.http, fieldURL)
	if err != nil {
		return nil, err
	}
	matrix, skipped, err := ParseMemberTimeMatrix(fieldText)
	if err != nil {
		return nil, err
	}
	if skipped > 0 && c.l != nil {
		c.l.Warn("gefs matrix lines skipped",
			applogger.String("variable", precipVar),
			applogger.Int("skipped", skipped),
		)
	}

	thresholdMM := InchesToMM(req.ThresholdIn)
	cumulative := IsCumulativeMatrix(matrix)

	var totals []float64
	for _, row := range matrix {
		if windowOffset >= len(row) {
			continue
		}
		dayValues := row[windowOffset:]

		var total float64
		if cumulative {
			endVal, endOK := lastValid(dayValues)
			var baseVal float64
			var baseOK bool
			if windowOffset > 0 {
				baseVal, baseOK = lastValid(row[:windowOffset])
			} else {
				baseVal, baseOK = firstValid(dayValues)
			}
			if !endOK || !baseOK {
				continue
			}
			total = math.Max(0.0, endVal-baseVal)
		} else {
			for _, v := range dayValues {
				if isValidValue(v) {
					total += v
				}
			}
		}
		totals = append(totals, total)
	}
	if len(totals) == 0 {
		return nil, ErrNoValidMembers
	}

	exceeding := 0
	for _, t := range totals {
		if t >= thresholdMM {
			exceeding++
		}
	}
	probability := float64(exceeding) / float64(len(totals))

	gridLat, gridLon := GridCoords(w.latIdx, w.lonIdx)
	eventID := fmt.Sprintf("precip_total::%s::%s::ge_%.2fin",
		req.LocationLabel, w.targetDate.Format("2006-01-02"), req.ThresholdIn)

	details := c.baseDetails(w, req.LocationLabel, req.Lat, req.Lon, gridLat, gridLon, req.TimezoneName, skipped)
	details["threshold_in"] = req.ThresholdIn
	details["threshold_mm"] = thresholdMM
	details["precip_variable"] = precipVar
	details["precip_is_cumulative"] = cumulative
	details["runs_exceeding_threshold"] = exceeding
	details["total_runs"] = len(totals)

	return c.snapshot(eventID, probability, details), nil
}

func (c *Client) baseDetails(w *eventWindow, label string, reqLat, reqLon, gridLat, gridLon float64, tzName string, skipped int) map[string]any {
	usedLocal := make([]string, 0, w.timeEnd-w.timeStart+1)
	for i := w.timeStart; i <= w.timeEnd; i++ {
		usedLocal = append(usedLocal, w.localTimes[i].Format(time.RFC3339))
	}
	return map[string]any{
		"run_date":             w.run.RunDate.Format("2006-01-02"),
		"run_cycle_hour_utc":   w.run.CycleHour,
		"location_label":       label,
		"requested_lat":        reqLat,
		"requested_lon":        reqLon,
		"grid_lat":             gridLat,
		"grid_lon":             gridLon,
		"timezone":             tzName,
		"target_local_date":    w.targetDate.Format("2006-01-02"),
		"timesteps_local":      usedLocal,
		"dataset_base":         w.run.DatasetBase,
		"skipped_matrix_lines": skipped,
	}
}

func (c *Client) snapshot(eventID string, probability float64, details map[string]any) *models.ForecastSnapshot {
	if c.metrics != nil {
		c.metrics.RecordProbability(eventID, probability)
	}
	return &models.ForecastSnapshot{
		EventID:        eventID,
		Model:          ModelName,
		Probability:    probability,
		GeneratedAtUTC: c.now().UTC(),
		Details:        details,
	}
}

// IsCumulativeMatrix reports whether the field looks like a running
// accumulation: any member whose valid values decrease by more than the
// tolerance makes the whole matrix incremental.
func IsCumulativeMatrix(matrix [][]float64) bool {
	for _, row := range matrix {
		prev := math.NaN()
		for _, v := range row {
			if !isValidValue(v) {
				continue
			}
			if !math.IsNaN(prev) && v+cumulativeTolerance < prev {
				return false
			}
			prev = v
		}
	}
	return true
}

func lastValid(values []float64) (float64, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		if isValidValue(values[i]) {
			return values[i], true
		}
	}
	return 0, false
}

func firstValid(values []float64) (float64, bool) {
	for _, v := range values {
		if isValidValue(v) {
			return v, true
		}
	}
	return 0, false
}

// ordinalDayToUTC converts a time-axis value (fractional days where day 1
// is 0001-01-01) to an absolute UTC instant.
func ordinalDayToUTC(value float64) time.Time {
	whole := int(math.Floor(value))
	frac := value - math.Floor(value)
	base := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, whole-1)
	return base.Add(time.Duration(frac * 24 * float64(time.Hour)))
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

var _ domsvc.Forecaster = (*Client)(nil)
