package models

// TradeSide is the aggressor side reported by the upstream feed, when known.
type TradeSide string

const (
	SideBuy     TradeSide = "buy"
	SideSell    TradeSide = "sell"
	SideUnknown TradeSide = ""
)

// Trade is a normalized trade event produced by the upstream fan-in.
// Timestamp is seconds since epoch.
type Trade struct {
	Symbol    string
	Price     float64
	Size      float64
	Timestamp float64
	Side      TradeSide
}

// Quote is a normalized top-of-book quote event.
type Quote struct {
	Symbol  string
	Bid     float64
	Ask     float64
	BidSize float64
	AskSize float64
}

// Event carries either a trade or a quote from a feed to the session's
// merge goroutine. Exactly one of Trade/Quote is non-nil.
type Event struct {
	Feed  string
	Trade *Trade
	Quote *Quote
}

// AnomalyKind enumerates the anomaly classes the detector emits.
type AnomalyKind string

const (
	AnomalyHaltResume AnomalyKind = "HALT_RESUME"
	AnomalyWhale      AnomalyKind = "WHALE_ALERT"
	AnomalyVolSpike   AnomalyKind = "VOL_SPIKE"
	AnomalyFlashSpike AnomalyKind = "FLASH_SPIKE"
	AnomalyFlashCrash AnomalyKind = "FLASH_CRASH"
)

// Anomaly is one detection result for a single trade.
type Anomaly struct {
	Kind   AnomalyKind
	Symbol string
	Detail string
	Price  float64
}
