package polymarket

import "testing"

func TestDecodeTicksArrayFrame(t *testing.T) {
	frame := `[
		{"event_type": "price_change", "asset_id": "0xaaa", "price": "0.42", "size": "150", "timestamp": "1756468800000"},
		{"event_type": "book", "asset_id": "0xbbb"},
		{"event_type": "last_trade_price", "asset_id": "0xccc", "price": "0.55", "size": "10", "timestamp": "1756468805000"}
	]`
	ticks := decodeTicks([]byte(frame))
	if len(ticks) != 2 {
		t.Fatalf("got %d ticks, want 2", len(ticks))
	}
	if ticks[0].ContractTicker != "0xaaa" || ticks[0].YesPrice != 0.42 {
		t.Fatalf("unexpected first tick: %+v", ticks[0])
	}
	if ticks[0].Timestamp != 1756468800 {
		t.Fatalf("timestamp = %d, want seconds", ticks[0].Timestamp)
	}
	if ticks[0].Size != 150 {
		t.Fatalf("size = %v", ticks[0].Size)
	}
}

func TestDecodeTicksSingleFrame(t *testing.T) {
	frame := `{"event_type": "price_change", "asset_id": "0xaaa", "price": "0.42", "size": "1", "timestamp": "1756468800000"}`
	ticks := decodeTicks([]byte(frame))
	if len(ticks) != 1 {
		t.Fatalf("got %d ticks, want 1", len(ticks))
	}
}

func TestDecodeTicksDropsDegeneratePrices(t *testing.T) {
	frame := `[
		{"event_type": "price_change", "asset_id": "a", "price": "0", "size": "1", "timestamp": "1756468800000"},
		{"event_type": "price_change", "asset_id": "b", "price": "1", "size": "1", "timestamp": "1756468800000"},
		{"event_type": "price_change", "asset_id": "c", "price": "oops", "size": "1", "timestamp": "1756468800000"}
	]`
	if ticks := decodeTicks([]byte(frame)); len(ticks) != 0 {
		t.Fatalf("expected no ticks, got %+v", ticks)
	}
}

func TestDecodeTicksIgnoresGarbage(t *testing.T) {
	if ticks := decodeTicks([]byte("not json")); ticks != nil {
		t.Fatalf("expected nil, got %+v", ticks)
	}
}
