package alpaca

import (
	"math"
	"testing"
	"time"

	"marketeye/models"
)

var fixedNow = func() time.Time { return time.Unix(1700000000, 0) }

func TestDecodeCompactTrade(t *testing.T) {
	events := Decode([]byte(`[{"T":"t","S":"NVDA","p":902.5,"s":100,"t":1700000123.5,"tks":"B"}]`), fixedNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	tr := events[0].Trade
	if tr == nil {
		t.Fatalf("expected trade event")
	}
	if tr.Symbol != "NVDA" || tr.Price != 902.5 || tr.Size != 100 {
		t.Fatalf("unexpected trade %+v", tr)
	}
	if tr.Timestamp != 1700000123.5 {
		t.Fatalf("unexpected timestamp %v", tr.Timestamp)
	}
	if tr.Side != models.SideBuy {
		t.Fatalf("unexpected side %q", tr.Side)
	}
}

func TestDecodeVerboseAliases(t *testing.T) {
	events := Decode([]byte(`{"type":"trade","symbol":"BTC/USD","price":64218.0,"size":0.5,"side":"sell"}`), fixedNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	tr := events[0].Trade
	if tr.Symbol != "BTC/USD" || tr.Side != models.SideSell {
		t.Fatalf("unexpected trade %+v", tr)
	}
	// Missing timestamp defaults to processing time.
	if tr.Timestamp != 1700000000 {
		t.Fatalf("expected fallback timestamp, got %v", tr.Timestamp)
	}
}

func TestDecodeQuote(t *testing.T) {
	events := Decode([]byte(`[{"T":"q","S":"AAPL","bp":192.30,"ap":192.35,"bs":30,"as":70}]`), fixedNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	q := events[0].Quote
	if q == nil {
		t.Fatalf("expected quote event")
	}
	if q.Bid != 192.30 || q.Ask != 192.35 || q.BidSize != 30 || q.AskSize != 70 {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestDecodeQuoteMissingSizesDefaultToZero(t *testing.T) {
	events := Decode([]byte(`{"T":"q","S":"AAPL","bid":192.30,"ask":192.35}`), fixedNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	q := events[0].Quote
	if q.BidSize != 0 || q.AskSize != 0 {
		t.Fatalf("expected zero sizes, got %+v", q)
	}
}

func TestDecodeDropsMalformedAndUnknown(t *testing.T) {
	cases := map[string]string{
		"not json":         `{`,
		"missing symbol":   `{"T":"t","p":1,"s":1}`,
		"missing price":    `{"T":"t","S":"NVDA","s":1}`,
		"missing size":     `{"T":"t","S":"NVDA","p":1}`,
		"missing bid":      `{"T":"q","S":"NVDA","ap":1}`,
		"unknown type":     `{"T":"b","S":"NVDA","o":1,"c":2}`,
		"no discriminator": `{"S":"NVDA","p":1,"s":1}`,
		"array of scalars": `[1,2,3]`,
		"control message":  `[{"T":"success","msg":"connected"}]`,
	}
	for name, payload := range cases {
		if events := Decode([]byte(payload), fixedNow); len(events) != 0 {
			t.Fatalf("%s: expected drop, got %d events", name, len(events))
		}
	}
}

func TestDecodeMixedBatch(t *testing.T) {
	payload := `[
		{"T":"t","S":"NVDA","p":900,"s":10,"t":1},
		{"T":"q","S":"NVDA","bp":899,"ap":901},
		{"T":"success","msg":"authenticated"},
		{"T":"t","S":"AMD","p":168,"s":5,"t":2}
	]`
	events := Decode([]byte(payload), fixedNow)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Trade == nil || events[1].Quote == nil || events[2].Trade == nil {
		t.Fatalf("unexpected event shapes %+v", events)
	}
}

func TestDecodeRFC3339Timestamp(t *testing.T) {
	events := Decode([]byte(`{"T":"t","S":"NVDA","p":900,"s":10,"t":"2023-11-14T22:13:20Z"}`), fixedNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if got := events[0].Trade.Timestamp; math.Abs(got-1700000000) > 1e-6 {
		t.Fatalf("unexpected timestamp %v", got)
	}
}

func TestDecodeStringNumbers(t *testing.T) {
	events := Decode([]byte(`{"T":"t","S":"NVDA","p":"900.5","s":"10"}`), fixedNow)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Trade.Price != 900.5 || events[0].Trade.Size != 10 {
		t.Fatalf("unexpected trade %+v", events[0].Trade)
	}
}
