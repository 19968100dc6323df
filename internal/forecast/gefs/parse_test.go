package gefs

import (
	"errors"
	"math"
	"testing"
)

func TestParseASCIIVectorCollectsTokensInOrder(t *testing.T) {
	text := "time, [4]\n1.5, 2.0\n-3e2 4.25\n"
	got, err := ParseASCIIVector(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []float64{1.5, 2.0, -300, 4.25}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestParseASCIIVectorNeedsDataLines(t *testing.T) {
	if _, err := ParseASCIIVector("header only\n"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseMemberTimeMatrix(t *testing.T) {
	text := "tmp2m, [2][3]\n" +
		"[0][0], 280.5\n" +
		"[0][2], 281.0\n" +
		"[1][1], 9.999e20\n" +
		"garbage line\n" +
		"[5][0], 300.0\n" // out of declared bounds
	matrix, skipped, err := ParseMemberTimeMatrix(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matrix) != 2 || len(matrix[0]) != 3 {
		t.Fatalf("unexpected shape %dx%d", len(matrix), len(matrix[0]))
	}
	if skipped != 2 {
		t.Fatalf("skipped = %d, want 2", skipped)
	}
	if matrix[0][0] != 280.5 || matrix[0][2] != 281.0 {
		t.Fatalf("unexpected values: %v", matrix[0])
	}
	if !math.IsNaN(matrix[0][1]) || !math.IsNaN(matrix[1][0]) {
		t.Fatalf("unfilled cells should be NaN")
	}
	if matrix[1][1] != 9.999e20 {
		t.Fatalf("fill value should be stored as-is, got %v", matrix[1][1])
	}
}

func TestParseMemberTimeMatrixBadHeader(t *testing.T) {
	if _, _, err := ParseMemberTimeMatrix("tmp2m, [31]\n[0][0], 1.0\n"); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for single dimension, got %v", err)
	}
	if _, _, err := ParseMemberTimeMatrix(""); !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse for empty response, got %v", err)
	}
}

func TestFindPrecipVariablePrefersAPCPSFC(t *testing.T) {
	dds := `Dataset {
    Float32 prate[ens][time][lat][lon];
    Float32 apcpsfc[ens][time][lat][lon];
} gefs;`
	name, err := FindPrecipVariable(dds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "apcpsfc" {
		t.Fatalf("name = %q, want apcpsfc", name)
	}
}

func TestFindPrecipVariableSubstringFallback(t *testing.T) {
	dds := `Dataset {
    Float32 tmp2m[ens][time][lat][lon];
    Float32 total_precip_rate[ens][time][lat][lon];
} gefs;`
	name, err := FindPrecipVariable(dds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "total_precip_rate" {
		t.Fatalf("name = %q, want total_precip_rate", name)
	}
}

func TestFindPrecipVariableMissing(t *testing.T) {
	dds := "Dataset {\n    Float32 tmp2m[ens][time][lat][lon];\n} gefs;"
	if _, err := FindPrecipVariable(dds); !errors.Is(err, ErrNoPrecipVariable) {
		t.Fatalf("expected ErrNoPrecipVariable, got %v", err)
	}
}

func TestIsCumulativeMatrix(t *testing.T) {
	cumulative := [][]float64{
		{0.0, 0.2, 0.3},
		{0.0, 0.0, 0.1},
	}
	incremental := [][]float64{
		{0.2, 0.0, 0.1},
		{0.0, 0.1, 0.0},
	}
	if !IsCumulativeMatrix(cumulative) {
		t.Fatalf("non-decreasing rows should classify cumulative")
	}
	if IsCumulativeMatrix(incremental) {
		t.Fatalf("decreasing rows should classify incremental")
	}
	// fill values are ignored during classification
	withFill := [][]float64{{0.0, 9.999e20, 0.1, 0.2}}
	if !IsCumulativeMatrix(withFill) {
		t.Fatalf("fill values must not break cumulative classification")
	}
}
