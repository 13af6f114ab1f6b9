package detect

// windowSeconds is the trailing span a price window covers.
const windowSeconds = 60.0

type sample struct {
	ts    float64
	price float64
}

// WindowTracker keeps a bounded trailing window of (timestamp, price) samples
// per symbol and reports the percent change across the window. Samples are
// kept in arrival order; eviction assumes roughly increasing timestamps.
type WindowTracker struct {
	windows map[string][]sample
}

func NewWindowTracker() *WindowTracker {
	return &WindowTracker{windows: make(map[string][]sample)}
}

// Update appends a sample for symbol, evicts samples older than 60s relative
// to the new timestamp and returns the percent change from the oldest
// retained sample to the new price. The second return is false while the
// window holds fewer than two samples. The most recent sample is never
// evicted, so a window is never empty after its first insert.
func (t *WindowTracker) Update(symbol string, ts, price float64) (float64, bool) {
	w := append(t.windows[symbol], sample{ts: ts, price: price})

	cutoff := ts - windowSeconds
	for len(w) > 1 && w[0].ts < cutoff {
		w = w[1:]
	}
	t.windows[symbol] = w

	if len(w) < 2 {
		return 0, false
	}
	start := w[0].price
	if start == 0 {
		return 0, true
	}
	return (price - start) / start * 100, true
}

// Len reports the number of samples currently held for symbol.
func (t *WindowTracker) Len(symbol string) int {
	return len(t.windows[symbol])
}
