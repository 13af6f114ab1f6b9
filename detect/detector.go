package detect

import "marketeye/models"

// Detector owns all per-symbol rolling state for one session: price windows,
// size averages and last trade timestamps. It is not safe for concurrent
// use; the session routes every normalized event through a single goroutine.
type Detector struct {
	window    *WindowTracker
	sizes     *SizeEstimator
	lastTrade map[string]float64
}

func NewDetector() *Detector {
	return &Detector{
		window:    NewWindowTracker(),
		sizes:     NewSizeEstimator(),
		lastTrade: make(map[string]float64),
	}
}

// OnTrade folds one trade into the per-symbol state and returns the anomaly
// events it triggers. The gap and size baselines are evaluated against the
// state as it stood before this trade.
func (d *Detector) OnTrade(t models.Trade) []models.Anomaly {
	last, seen := d.lastTrade[t.Symbol]
	if !seen {
		last = t.Timestamp
	}
	d.lastTrade[t.Symbol] = t.Timestamp

	changePct, changeOK := d.window.Update(t.Symbol, t.Timestamp, t.Price)
	avg := d.sizes.Update(t.Symbol, t.Size)

	return Classify(t.Symbol, t.Price, t.Size, TradeContext{
		GapSeconds: t.Timestamp - last,
		AvgSize:    avg,
		ChangePct:  changePct,
		ChangeOK:   changeOK,
	})
}
