package models

// Wire shapes serialized to the websocket subscriber. Field order and names
// match what the terminal frontend consumes.

type WireTrade struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size,omitempty"`
	Timestamp float64 `json:"ts,omitempty"`
	Side      string  `json:"side,omitempty"`
	ChgPct    float64 `json:"chgPct,omitempty"`
}

type WireQuote struct {
	Type      string  `json:"type"`
	Symbol    string  `json:"symbol"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	BidSize   float64 `json:"bidSize"`
	AskSize   float64 `json:"askSize"`
	Imbalance float64 `json:"imbalance"`
}

type WireAnomaly struct {
	Type   string  `json:"type"`
	Symbol string  `json:"symbol"`
	Kind   string  `json:"kind"`
	Detail string  `json:"detail"`
	Price  float64 `json:"price"`
}

type WireError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func NewWireTrade(t Trade) WireTrade {
	return WireTrade{
		Type:      "trade",
		Symbol:    t.Symbol,
		Price:     t.Price,
		Size:      t.Size,
		Timestamp: t.Timestamp,
		Side:      string(t.Side),
	}
}

func NewWireQuote(q Quote, imbalance float64) WireQuote {
	return WireQuote{
		Type:      "quote",
		Symbol:    q.Symbol,
		Bid:       q.Bid,
		Ask:       q.Ask,
		BidSize:   q.BidSize,
		AskSize:   q.AskSize,
		Imbalance: imbalance,
	}
}

func NewWireAnomaly(a Anomaly) WireAnomaly {
	return WireAnomaly{
		Type:   "anomaly",
		Symbol: a.Symbol,
		Kind:   string(a.Kind),
		Detail: a.Detail,
		Price:  a.Price,
	}
}
