package gefs

import (
	"errors"
	"math"
	"testing"
)

func TestNearestGridIndicesKnownPoints(t *testing.T) {
	cases := []struct {
		lat, lon float64
		latIdx   int
		lonIdx   int
	}{
		{-90, 0, 0, 0},
		{90, 0, 360, 0},
		{0, 0, 180, 0},
		{40.7128, -74.0060, 261, 572}, // New York
		{0, 359.6, 180, 719},          // last column
		{0, 359.9, 180, 0},            // wraps across the seam
		{51.5074, -0.1278, 283, 0},    // London, just west of the meridian
	}
	for _, c := range cases {
		latIdx, lonIdx, err := NearestGridIndices(c.lat, c.lon)
		if err != nil {
			t.Fatalf("(%v,%v): unexpected error: %v", c.lat, c.lon, err)
		}
		if latIdx != c.latIdx || lonIdx != c.lonIdx {
			t.Fatalf("(%v,%v) = (%d,%d), want (%d,%d)", c.lat, c.lon, latIdx, lonIdx, c.latIdx, c.lonIdx)
		}
	}
}

func TestNearestGridIndicesRejectsBadLatitude(t *testing.T) {
	if _, _, err := NearestGridIndices(90.5, 0); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
	if _, _, err := NearestGridIndices(-91, 0); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestGridRoundTripWithinHalfCell(t *testing.T) {
	points := []struct{ lat, lon float64 }{
		{40.7128, -74.0060},
		{51.5074, -0.1278},
		{-33.8688, 151.2093},
		{35.6762, 139.6503},
	}
	for _, p := range points {
		latIdx, lonIdx, err := NearestGridIndices(p.lat, p.lon)
		if err != nil {
			t.Fatalf("(%v,%v): unexpected error: %v", p.lat, p.lon, err)
		}
		gotLat, gotLon := GridCoords(latIdx, lonIdx)
		if math.Abs(gotLat-p.lat) > 0.25 {
			t.Fatalf("lat %v round-trips to %v", p.lat, gotLat)
		}
		dLon := math.Abs(gotLon - p.lon)
		if dLon > 180 {
			dLon = 360 - dLon
		}
		if dLon > 0.25 {
			t.Fatalf("lon %v round-trips to %v", p.lon, gotLon)
		}
	}
}

func TestFahrenheitToKelvin(t *testing.T) {
	if got := FahrenheitToKelvin(32); math.Abs(got-273.15) > 1e-9 {
		t.Fatalf("32F = %v K, want 273.15", got)
	}
	if got := FahrenheitToKelvin(212); math.Abs(got-373.15) > 1e-9 {
		t.Fatalf("212F = %v K, want 373.15", got)
	}
}

func TestInchesToMM(t *testing.T) {
	if got := InchesToMM(1); got != 25.4 {
		t.Fatalf("1in = %v mm, want 25.4", got)
	}
}

func TestIsValidValue(t *testing.T) {
	if isValidValue(FillValue) {
		t.Fatalf("fill value must be invalid")
	}
	if isValidValue(math.NaN()) || isValidValue(math.Inf(1)) {
		t.Fatalf("non-finite values must be invalid")
	}
	if !isValidValue(0) || !isValidValue(310.2) {
		t.Fatalf("ordinary values must be valid")
	}
}
