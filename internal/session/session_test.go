package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketeye/config"
	"marketeye/models"
)

type fakeConn struct {
	mu      sync.Mutex
	writes  []interface{}
	failAt  int // fail the nth write (1-based), 0 = never
	closed  bool
	written int
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written++
	if c.failAt > 0 && c.written >= c.failAt {
		return errors.New("subscriber gone")
	}
	c.writes = append(c.writes, v)
	return nil
}

func (c *fakeConn) SetWriteDeadline(time.Time) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) snapshot() []interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]interface{}, len(c.writes))
	copy(out, c.writes)
	return out
}

func testCfg(withCreds bool) *config.Config {
	cfg := &config.Config{
		Channels: config.ChannelsConfig{EventBuffer: 64},
	}
	if withCreds {
		cfg.Upstream.APIKey = "key"
		cfg.Upstream.SecretKey = "secret"
	}
	return cfg
}

// scriptedFeed pushes a fixed event sequence into the session and then
// blocks until cancelled, like a healthy feed with no more traffic.
type scriptedFeed struct {
	s      *Session
	events []models.Event
	err    error
}

func (f *scriptedFeed) Run(ctx context.Context) error {
	for _, ev := range f.events {
		f.s.events.Send(ctx, ev)
	}
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return nil
}

func tradeEvent(sym string, price, size, ts float64) models.Event {
	return models.Event{Feed: "equities", Trade: &models.Trade{Symbol: sym, Price: price, Size: size, Timestamp: ts}}
}

func quoteEvent(sym string, bid, ask, bs, as float64) models.Event {
	return models.Event{Feed: "equities", Quote: &models.Quote{Symbol: sym, Bid: bid, Ask: ask, BidSize: bs, AskSize: as}}
}

func TestSessionMissingCredentials(t *testing.T) {
	conn := &fakeConn{}
	s := New(testCfg(false), conn, []string{"NVDA"}, nil, ModeEye)

	if err := s.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	writes := conn.snapshot()
	if len(writes) != 1 {
		t.Fatalf("expected exactly one event, got %d", len(writes))
	}
	we, ok := writes[0].(models.WireError)
	if !ok || we.Type != "error" || we.Message != "ALPACA_KEYS_MISSING" {
		t.Fatalf("unexpected error event %+v", writes[0])
	}
	if !conn.closed {
		t.Fatalf("connection must be closed after the error event")
	}
}

func TestSessionAnomaliesPrecedeTrade(t *testing.T) {
	conn := &fakeConn{}
	s := New(testCfg(true), conn, []string{"NVDA"}, nil, ModeEye)
	s.newFeeds = func(ctx context.Context) []feedRunner {
		return []feedRunner{&scriptedFeed{s: s, events: []models.Event{
			tradeEvent("NVDA", 100, 10, 0),
			tradeEvent("NVDA", 103, 10, 1),
		}, err: errors.New("feed done")}}
	}

	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("expected feed error to surface")
	}

	writes := conn.snapshot()
	if len(writes) != 3 {
		t.Fatalf("expected trade, anomaly, trade — got %d events: %+v", len(writes), writes)
	}
	if _, ok := writes[0].(models.WireTrade); !ok {
		t.Fatalf("first event should be the quiet trade, got %+v", writes[0])
	}
	a, ok := writes[1].(models.WireAnomaly)
	if !ok || a.Kind != "FLASH_SPIKE" || a.Detail != "+3.00%" {
		t.Fatalf("expected FLASH_SPIKE before its trade, got %+v", writes[1])
	}
	tr, ok := writes[2].(models.WireTrade)
	if !ok || tr.Price != 103 {
		t.Fatalf("unexpected trailing trade %+v", writes[2])
	}
	if !conn.closed {
		t.Fatalf("connection must be closed on teardown")
	}
}

func TestSessionQuoteImbalance(t *testing.T) {
	conn := &fakeConn{}
	s := New(testCfg(true), conn, []string{"AAPL"}, nil, ModeEye)
	s.newFeeds = func(ctx context.Context) []feedRunner {
		return []feedRunner{&scriptedFeed{s: s, events: []models.Event{
			quoteEvent("AAPL", 192.30, 192.35, 30, 70),
		}, err: errors.New("feed done")}}
	}

	s.Run(context.Background())

	writes := conn.snapshot()
	if len(writes) != 1 {
		t.Fatalf("expected one quote, got %d", len(writes))
	}
	q, ok := writes[0].(models.WireQuote)
	if !ok || q.Imbalance != 0.30 {
		t.Fatalf("unexpected quote %+v", writes[0])
	}
}

func TestSessionSubscriberFailureTearsDown(t *testing.T) {
	conn := &fakeConn{failAt: 1}
	s := New(testCfg(true), conn, []string{"NVDA"}, nil, ModeEye)
	s.newFeeds = func(ctx context.Context) []feedRunner {
		return []feedRunner{&scriptedFeed{s: s, events: []models.Event{
			tradeEvent("NVDA", 100, 10, 0),
		}}}
	}

	done := make(chan error, 1)
	go func() { done <- s.Run(context.Background()) }()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("expected subscriber write error")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not tear down after send failure")
	}
	if !conn.closed {
		t.Fatalf("connection must be closed after send failure")
	}
}

func TestSessionTickerMode(t *testing.T) {
	conn := &fakeConn{}
	seeds := map[string]float64{"NVDA": 100}
	s := New(testCfg(true), conn, []string{"NVDA"}, seeds, ModeTicker)
	s.newFeeds = func(ctx context.Context) []feedRunner {
		return []feedRunner{&scriptedFeed{s: s, events: []models.Event{
			tradeEvent("NVDA", 102, 10, 0),
			quoteEvent("NVDA", 101, 103, 1, 1),
		}, err: errors.New("feed done")}}
	}

	s.Run(context.Background())

	writes := conn.snapshot()
	if len(writes) != 1 {
		t.Fatalf("ticker mode must drop quotes, got %d events", len(writes))
	}
	tr := writes[0].(models.WireTrade)
	if tr.ChgPct != 2.0 {
		t.Fatalf("expected +2%% vs seed price, got %v", tr.ChgPct)
	}
	if tr.Size != 0 || tr.Timestamp != 0 {
		t.Fatalf("ticker trades carry price and change only, got %+v", tr)
	}
}

func TestSessionContextCancel(t *testing.T) {
	conn := &fakeConn{}
	s := New(testCfg(true), conn, []string{"NVDA"}, nil, ModeEye)
	s.newFeeds = func(ctx context.Context) []feedRunner {
		return []feedRunner{&scriptedFeed{s: s}}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("cancel should end the session cleanly, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not stop on context cancel")
	}
	if !conn.closed {
		t.Fatalf("connection must be closed on shutdown")
	}
}
