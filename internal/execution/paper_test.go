package execution

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"Zephyr/internal/domain/models"
)

func testSized() *models.SizedSignal {
	return &models.SizedSignal{
		Signal: models.Signal{
			EventID:                "ev1",
			ContractTicker:         "0xabc",
			Side:                   models.SideBuyYes,
			ForecastProbability:    0.72,
			MarketProbability:      0.54,
			Edge:                   0.18,
			ExpectedValuePerDollar: 0.3333,
		},
		FractionOfBankroll: 0.03,
		StakeDollars:       300,
	}
}

func TestExecuteAppendsLedger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger", "paper_orders.csv")
	fixed := func() time.Time { return time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC) }

	e, err := NewPaperExecutor(path, WithPaperClock(fixed))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	order, err := e.Execute(testSized())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.StakeDollars != 300 || order.Side != models.SideBuyYes {
		t.Fatalf("unexpected order: %+v", order)
	}

	if _, err := e.Execute(testSized()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read ledger: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d ledger lines, want header + 2 orders:\n%s", len(lines), data)
	}
	if !strings.HasPrefix(lines[0], "placed_at_utc,") {
		t.Fatalf("missing header: %q", lines[0])
	}
	if !strings.Contains(lines[1], "2026-08-29T12:00:00Z,ev1,0xabc,buy_yes,0.720000,0.540000") {
		t.Fatalf("unexpected record: %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], ",300.00") {
		t.Fatalf("stake formatting: %q", lines[1])
	}
}
