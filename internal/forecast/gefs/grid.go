package gefs

import "math"

// The GEFS pgrb2ap5 grid is a fixed 0.5-degree global lattice:
// latitude indices 0..360 (-90..90), longitude indices 0..719 (0..359.5).
const (
	gridStep  = 0.5
	maxLatIdx = 360
	maxLonIdx = 719

	// FillValue is the dataset's documented missing-data sentinel.
	FillValue = 9.999e20

	mmPerInch = 25.4
)

// NearestGridIndices maps geographic coordinates onto the lattice,
// rounding to the nearest cell. Latitude indices clamp at the poles;
// longitude is normalized into [0, 360) and wraps at the seam, so
// anything past 359.75 rounds to index 0, not 719.
func NearestGridIndices(lat, lon float64) (int, int, error) {
	if lat < -90.0 || lat > 90.0 {
		return 0, 0, ErrInvalidCoordinate
	}
	lon360 := math.Mod(lon, 360.0)
	if lon360 < 0 {
		lon360 += 360.0
	}
	latIdx := clampIdx(int(math.Round((lat+90.0)/gridStep)), maxLatIdx)
	lonIdx := int(math.Round(lon360/gridStep)) % (maxLonIdx + 1)
	return latIdx, lonIdx, nil
}

// GridCoords recovers the lattice point's actual coordinates, with
// longitude folded back into [-180, 180). For reporting only.
func GridCoords(latIdx, lonIdx int) (float64, float64) {
	lat := -90.0 + gridStep*float64(latIdx)
	lon360 := gridStep * float64(lonIdx)
	lon180 := math.Mod(lon360+180.0, 360.0) - 180.0
	return lat, lon180
}

func clampIdx(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

// FahrenheitToKelvin converts via the standard affine formula.
func FahrenheitToKelvin(tempF float64) float64 {
	return (tempF-32.0)*(5.0/9.0) + 273.15
}

// InchesToMM converts inches to millimeters.
func InchesToMM(valueIn float64) float64 {
	return valueIn * mmPerInch
}

// isValidValue rejects the fill sentinel and anything near it; the /10
// threshold absorbs both exact and near-fill encodings.
func isValidValue(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v < FillValue/10.0
}
