package gefs

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"Zephyr/internal/domain/models"
)

const testDDS = `Dataset {
    Float32 tmp2m[ens = 31][time = 6][lat = 361][lon = 720];
    Float32 apcpsfc[ens = 31][time = 6][lat = 361][lon = 720];
} gefs20260301/gefs_pgrb2ap5_all_18z;`

// toOrdinal is the inverse of ordinalDayToUTC for fixture construction.
// A single Duration back to year 1 saturates, so whole days are counted
// from the Unix epoch, which falls on ordinal day 719163.
func toOrdinal(tm time.Time) float64 {
	secs := tm.Unix()
	return float64(secs/86400+719163) + float64(secs%86400)/86400.0
}

func matrixText(name string, rows [][]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s, [%d][%d]\n", name, len(rows), len(rows[0]))
	for i, row := range rows {
		for j, v := range row {
			fmt.Fprintf(&b, "[%d][%d], %g\n", i, j, v)
		}
	}
	return b.String()
}

// newFakeNOMADS serves a single 18z run for 2026-03-01 with a six-step
// time axis whose middle four steps fall on 2026-03-02 UTC.
func newFakeNOMADS(t *testing.T) *httptest.Server {
	t.Helper()

	axis := []time.Time{
		time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
	}

	tempRows := [][]float64{
		{281, 283, 285, 284},
		{280, 284, 282, 281},
		{279, 280, 280, 279},
		{FillValue, FillValue, FillValue, FillValue},
	}
	precipRows := [][]float64{
		{0, 1, 2, 3, 4},
		{0, 0.5, 1, 1.5, 2},
		{FillValue, FillValue, FillValue, FillValue, FillValue},
		{0, 0, 1, 2, 3},
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "gefs20260301/gefs_pgrb2ap5_all_18z") {
			http.NotFound(w, r)
			return
		}
		switch {
		case strings.HasSuffix(r.URL.Path, ".dds"):
			fmt.Fprint(w, testDDS)
		case strings.HasPrefix(r.URL.RawQuery, "time"):
			vals := make([]string, len(axis))
			for i, tm := range axis {
				vals[i] = fmt.Sprintf("%.10f", toOrdinal(tm))
			}
			fmt.Fprintf(w, "time, [%d]\n%s\n", len(axis), strings.Join(vals, ", "))
		case strings.HasPrefix(r.URL.RawQuery, "tmp2m"):
			fmt.Fprint(w, matrixText("tmp2m", tempRows))
		case strings.HasPrefix(r.URL.RawQuery, "apcpsfc"):
			fmt.Fprint(w, matrixText("apcpsfc", precipRows))
		default:
			t.Errorf("unexpected request: %s?%s", r.URL.Path, r.URL.RawQuery)
			http.NotFound(w, r)
		}
	}))
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
}

func TestFindLatestRun(t *testing.T) {
	srv := newFakeNOMADS(t)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithClock(fixedClock))
	run, err := c.FindLatestRun(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.CycleHour != 18 {
		t.Fatalf("cycle = %d, want 18", run.CycleHour)
	}
	if got := run.RunDate.Format("2006-01-02"); got != "2026-03-01" {
		t.Fatalf("run date = %s, want 2026-03-01", got)
	}
	if !strings.HasSuffix(run.DatasetBase, "/gefs20260301/gefs_pgrb2ap5_all_18z") {
		t.Fatalf("unexpected dataset base %q", run.DatasetBase)
	}
}

func TestFindLatestRunExhaustsCandidates(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithClock(fixedClock))
	if _, err := c.FindLatestRun(context.Background(), 1); !errors.Is(err, ErrNoDatasetFound) {
		t.Fatalf("expected ErrNoDatasetFound, got %v", err)
	}
}

func TestTemperatureProbability(t *testing.T) {
	srv := newFakeNOMADS(t)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithClock(fixedClock))
	snap, err := c.TemperatureProbability(context.Background(), models.TemperatureEventRequest{
		Lat:           40.7128,
		Lon:           -74.0060,
		ThresholdF:    50,
		TimezoneName:  "UTC",
		LocationLabel: "nyc",
		LookbackDays:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 50F = 283.15K; member maxima 285, 284, 280, fourth row all fill.
	if want := 2.0 / 3.0; math.Abs(snap.Probability-want) > 1e-9 {
		t.Fatalf("probability = %v, want %v", snap.Probability, want)
	}
	if snap.Probability < 0 || snap.Probability > 1 {
		t.Fatalf("probability out of range: %v", snap.Probability)
	}
	if snap.EventID != "tmp2m_max::nyc::2026-03-02::ge_50.0F" {
		t.Fatalf("event id = %q", snap.EventID)
	}
	if snap.Model != ModelName {
		t.Fatalf("model = %q", snap.Model)
	}
	if got := snap.Details["total_runs"]; got != 3 {
		t.Fatalf("total_runs = %v, want 3", got)
	}
	if got := snap.Details["runs_exceeding_threshold"]; got != 2 {
		t.Fatalf("runs_exceeding_threshold = %v, want 2", got)
	}
}

func TestPrecipProbability(t *testing.T) {
	srv := newFakeNOMADS(t)
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithClock(fixedClock))
	snap, err := c.PrecipProbability(context.Background(), models.PrecipEventRequest{
		Lat:           40.7128,
		Lon:           -74.0060,
		ThresholdIn:   0.1,
		TimezoneName:  "UTC",
		LocationLabel: "nyc",
		LookbackDays:  2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Cumulative rows; window totals 4.0, 2.0, 3.0 mm against 2.54 mm.
	if want := 2.0 / 3.0; math.Abs(snap.Probability-want) > 1e-9 {
		t.Fatalf("probability = %v, want %v", snap.Probability, want)
	}
	if snap.EventID != "precip_total::nyc::2026-03-02::ge_0.10in" {
		t.Fatalf("event id = %q", snap.EventID)
	}
	if got := snap.Details["precip_variable"]; got != "apcpsfc" {
		t.Fatalf("precip_variable = %v, want apcpsfc", got)
	}
	if got := snap.Details["precip_is_cumulative"]; got != true {
		t.Fatalf("precip_is_cumulative = %v, want true", got)
	}
}

func TestResolveWindowNoTimesteps(t *testing.T) {
	srv := newFakeNOMADS(t)
	defer srv.Close()

	eventDate := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	c := NewClient(WithBaseURL(srv.URL), WithClock(fixedClock))
	_, err := c.TemperatureProbability(context.Background(), models.TemperatureEventRequest{
		Lat:           40.7128,
		Lon:           -74.0060,
		ThresholdF:    50,
		TimezoneName:  "UTC",
		EventDate:     &eventDate,
		LocationLabel: "nyc",
		LookbackDays:  2,
	})
	if !errors.Is(err, ErrNoTimesteps) {
		t.Fatalf("expected ErrNoTimesteps, got %v", err)
	}
}

func TestOrdinalDayRoundTrip(t *testing.T) {
	if got := toOrdinal(time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)); got != 719163 {
		t.Fatalf("unix epoch ordinal = %v, want 719163", got)
	}
	moments := []time.Time{
		time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 12, 31, 18, 0, 0, 0, time.UTC),
	}
	for _, m := range moments {
		got := ordinalDayToUTC(toOrdinal(m))
		if d := got.Sub(m); d < -time.Second || d > time.Second {
			t.Fatalf("%v round-trips to %v", m, got)
		}
	}
}
