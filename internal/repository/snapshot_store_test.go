package repository

import (
	"strings"
	"testing"
	"time"
)

func TestBacktestRowsQueryWindowBinding(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 30, 0, 0, time.FixedZone("EST", -5*3600))
	end := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)

	q, args := backtestRowsQuery("NOAA_GEFS", &start, &end)
	if !strings.Contains(q, "collected_at_utc >= ?") || !strings.Contains(q, "collected_at_utc < ?") {
		t.Fatalf("window predicates missing from query:\n%s", q)
	}
	if len(args) != 3 {
		t.Fatalf("args = %d, want 3", len(args))
	}
	// Bounds compare against RFC3339 text in UTC, matching the stored form.
	if got := args[1]; got != "2026-03-01T17:30:00Z" {
		t.Fatalf("start bound = %v, want 2026-03-01T17:30:00Z", got)
	}
	if got := args[2]; got != "2026-03-08T00:00:00Z" {
		t.Fatalf("end bound = %v, want 2026-03-08T00:00:00Z", got)
	}
}

func TestBacktestRowsQueryUnbounded(t *testing.T) {
	q, args := backtestRowsQuery("NOAA_GEFS", nil, nil)
	if strings.Contains(q, ">= ?") || strings.Contains(q, "< ?") {
		t.Fatalf("unexpected window predicate:\n%s", q)
	}
	if len(args) != 1 || args[0] != "NOAA_GEFS" {
		t.Fatalf("args = %v", args)
	}
}
