package gefs

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// OPeNDAP ASCII responses are semi-structured text; these parsers keep the
// drop-malformed-fragment-and-continue policy rather than failing strict.

var (
	numberRe    = regexp.MustCompile(`[-+]?\d*\.?\d+(?:[eE][-+]?\d+)?`)
	bracketRe   = regexp.MustCompile(`\[(\d+)\]`)
	matrixRowRe = regexp.MustCompile(`^\s*((?:\[\d+\])+)\s*,\s*([-+]?\d*\.?\d+(?:[eE][-+]?\d+)?)\s*$`)
	ddsVarRe    = regexp.MustCompile(`^\s*\w+\s+([A-Za-z0-9_]+)\s*\[`)
)

// ParseASCIIVector reads a 1-D series: a header line followed by data
// lines whose numeric tokens are extracted in order, regardless of
// wrapping.
func ParseASCIIVector(text string) ([]float64, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w: ASCII vector needs a header and data lines", ErrParse)
	}
	blob := strings.Join(lines[1:], " ")
	tokens := numberRe.FindAllString(blob, -1)
	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
	}
	return values, nil
}

// ParseMemberTimeMatrix reads an ensemble x time matrix. The first line
// declares bracketed dimension sizes; each body line is "[i][j]..., value".
// Lines that fail the shape, or whose indices fall outside the declared
// bounds, are dropped; the count of dropped lines is returned for
// observability. Cells never filled stay NaN.
func ParseMemberTimeMatrix(text string) ([][]float64, int, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 || (len(lines) == 1 && strings.TrimSpace(lines[0]) == "") {
		return nil, 0, fmt.Errorf("%w: empty matrix response", ErrParse)
	}

	dims := parseBracketInts(lines[0])
	if len(dims) < 2 {
		return nil, 0, fmt.Errorf("%w: could not read matrix dimensions", ErrParse)
	}
	ensembleCount, timeCount := dims[0], dims[1]

	matrix := make([][]float64, ensembleCount)
	for i := range matrix {
		row := make([]float64, timeCount)
		for j := range row {
			row[j] = math.NaN()
		}
		matrix[i] = row
	}

	skipped := 0
	for _, line := range lines[1:] {
		s := strings.TrimSpace(line)
		if s == "" {
			continue
		}
		m := matrixRowRe.FindStringSubmatch(s)
		if m == nil {
			skipped++
			continue
		}
		indices := parseBracketInts(m[1])
		if len(indices) < 2 {
			skipped++
			continue
		}
		ensIdx, timeIdx := indices[0], indices[1]
		if ensIdx >= ensembleCount || timeIdx >= timeCount {
			skipped++
			continue
		}
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			skipped++
			continue
		}
		matrix[ensIdx][timeIdx] = v
	}
	return matrix, skipped, nil
}

// ParseDDSVariableNames returns the dataset's declared variable names in
// declaration order, from lines shaped like "<type> <name>[dim]...".
func ParseDDSVariableNames(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		if m := ddsVarRe.FindStringSubmatch(line); m != nil {
			names = append(names, m[1])
		}
	}
	return names
}

// FindPrecipVariable picks the accumulated-precipitation variable:
// exact apcpsfc, then apcp, then any name containing apcp or precip.
func FindPrecipVariable(ddsText string) (string, error) {
	names := ParseDDSVariableNames(ddsText)
	if len(names) == 0 {
		return "", fmt.Errorf("%w: no variables declared in DDS", ErrParse)
	}

	lower := make(map[string]string, len(names))
	for _, name := range names {
		if _, ok := lower[strings.ToLower(name)]; !ok {
			lower[strings.ToLower(name)] = name
		}
	}
	for _, preferred := range []string{"apcpsfc", "apcp"} {
		if name, ok := lower[preferred]; ok {
			return name, nil
		}
	}
	for _, name := range names {
		l := strings.ToLower(name)
		if strings.Contains(l, "apcp") || strings.Contains(l, "precip") {
			return name, nil
		}
	}
	return "", ErrNoPrecipVariable
}

func parseBracketInts(s string) []int {
	ms := bracketRe.FindAllStringSubmatch(s, -1)
	out := make([]int, 0, len(ms))
	for _, m := range ms {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
