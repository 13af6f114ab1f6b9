package detect

// EWMA smoothing factors for trade size.
const (
	ewmaHistoryWeight = 0.92
	ewmaSampleWeight  = 0.08
)

// SizeEstimator maintains an exponentially-weighted average trade size per
// symbol. The first observed size seeds the average directly.
type SizeEstimator struct {
	avg map[string]float64
}

func NewSizeEstimator() *SizeEstimator {
	return &SizeEstimator{avg: make(map[string]float64)}
}

// Update folds size into the symbol's average and returns the average as it
// stood before this trade. Callers compare the incoming size against the
// returned baseline; folding happens after the comparison point so a spike
// does not dilute its own threshold.
func (e *SizeEstimator) Update(symbol string, size float64) float64 {
	prev, ok := e.avg[symbol]
	if !ok {
		prev = size
	}
	e.avg[symbol] = prev*ewmaHistoryWeight + size*ewmaSampleWeight
	return prev
}
