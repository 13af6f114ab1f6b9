package channel

import (
	"context"
	"testing"

	"marketeye/models"
)

func TestEventsSend(t *testing.T) {
	e := NewEvents(1)
	defer e.Close()

	ev := models.Event{Feed: "equities", Trade: &models.Trade{Symbol: "NVDA"}}
	if !e.Send(context.Background(), ev) {
		t.Fatalf("send into an empty buffer should succeed")
	}

	got := <-e.C
	if got.Trade == nil || got.Trade.Symbol != "NVDA" {
		t.Fatalf("unexpected event %+v", got)
	}
	if stats := e.GetStats(); stats.Sent != 1 || stats.Dropped != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestEventsSendEvictsOldestWhenFull(t *testing.T) {
	e := NewEvents(2)
	defer e.Close()

	ctx := context.Background()
	for _, sym := range []string{"NVDA", "AAPL", "TSLA"} {
		if !e.Send(ctx, models.Event{Feed: "equities", Trade: &models.Trade{Symbol: sym}}) {
			t.Fatalf("send of %s should succeed", sym)
		}
	}

	// NVDA, the oldest event, was evicted to make room for TSLA.
	first := <-e.C
	second := <-e.C
	if first.Trade.Symbol != "AAPL" || second.Trade.Symbol != "TSLA" {
		t.Fatalf("expected AAPL then TSLA, got %s then %s", first.Trade.Symbol, second.Trade.Symbol)
	}

	stats := e.GetStats()
	if stats.Sent != 3 || stats.Dropped != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestEventsSendCancelledContext(t *testing.T) {
	e := NewEvents(1)
	defer e.Close()

	e.C <- models.Event{} // fill the buffer
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A done context must refuse the send before any eviction happens.
	if e.Send(ctx, models.Event{Feed: "crypto"}) {
		t.Fatalf("send must fail when context is done")
	}
	if len(e.C) != 1 {
		t.Fatalf("buffered event must survive a refused send")
	}
}
