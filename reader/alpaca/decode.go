package alpaca

import (
	"encoding/json"
	"strconv"
	"time"

	"marketeye/internal/metrics"
	"marketeye/models"
)

// Accepted field-name aliases, compact upstream code first, verbose form
// second. A required field missing in both forms drops the message.
var (
	symbolKeys    = []string{"S", "symbol"}
	typeKeys      = []string{"T", "type"}
	priceKeys     = []string{"p", "price"}
	sizeKeys      = []string{"s", "size"}
	timestampKeys = []string{"t", "timestamp"}
	sideKeys      = []string{"tks", "side"}
	bidKeys       = []string{"bp", "bid"}
	askKeys       = []string{"ap", "ask"}
	bidSizeKeys   = []string{"bs", "bid_size"}
	askSizeKeys   = []string{"as", "ask_size"}
)

// Decode turns one inbound feed message into zero or more normalized events.
// A message may be a single object or an array of objects. Unrecognized
// message types and objects missing required fields are dropped without
// error. now supplies the fallback timestamp for trades that carry none.
func Decode(data []byte, now func() time.Time) []models.Event {
	var payload interface{}
	if err := json.Unmarshal(data, &payload); err != nil {
		metrics.UpstreamDropped.WithLabelValues("malformed").Inc()
		return nil
	}

	var items []interface{}
	switch v := payload.(type) {
	case []interface{}:
		items = v
	default:
		items = []interface{}{payload}
	}

	var events []models.Event
	for _, raw := range items {
		item, ok := raw.(map[string]interface{})
		if !ok {
			metrics.UpstreamDropped.WithLabelValues("malformed").Inc()
			continue
		}
		if ev, ok := decodeItem(item, now); ok {
			events = append(events, ev)
		}
	}
	return events
}

func decodeItem(item map[string]interface{}, now func() time.Time) (models.Event, bool) {
	symbol, ok := getString(item, symbolKeys)
	if !ok || symbol == "" {
		metrics.UpstreamDropped.WithLabelValues("missing_field").Inc()
		return models.Event{}, false
	}

	msgType, _ := getString(item, typeKeys)
	switch msgType {
	case "t", "trade", "T":
		return decodeTrade(symbol, item, now)
	case "q", "quote", "Q":
		return decodeQuote(symbol, item)
	default:
		metrics.UpstreamDropped.WithLabelValues("unknown_type").Inc()
		return models.Event{}, false
	}
}

func decodeTrade(symbol string, item map[string]interface{}, now func() time.Time) (models.Event, bool) {
	price, okPrice := getFloat(item, priceKeys)
	size, okSize := getFloat(item, sizeKeys)
	if !okPrice || !okSize {
		metrics.UpstreamDropped.WithLabelValues("missing_field").Inc()
		return models.Event{}, false
	}

	ts, ok := getTimestamp(item)
	if !ok {
		ts = float64(now().UnixNano()) / float64(time.Second)
	}

	side := models.SideUnknown
	if raw, ok := getString(item, sideKeys); ok {
		switch raw {
		case "B", "b", "buy":
			side = models.SideBuy
		case "S", "s", "sell":
			side = models.SideSell
		}
	}

	return models.Event{Trade: &models.Trade{
		Symbol:    symbol,
		Price:     price,
		Size:      size,
		Timestamp: ts,
		Side:      side,
	}}, true
}

func decodeQuote(symbol string, item map[string]interface{}) (models.Event, bool) {
	bid, okBid := getFloat(item, bidKeys)
	ask, okAsk := getFloat(item, askKeys)
	if !okBid || !okAsk {
		metrics.UpstreamDropped.WithLabelValues("missing_field").Inc()
		return models.Event{}, false
	}

	bidSize, _ := getFloat(item, bidSizeKeys)
	askSize, _ := getFloat(item, askSizeKeys)

	return models.Event{Quote: &models.Quote{
		Symbol:  symbol,
		Bid:     bid,
		Ask:     ask,
		BidSize: bidSize,
		AskSize: askSize,
	}}, true
}

func getString(item map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		if v, ok := item[k]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

func getFloat(item map[string]interface{}, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// getTimestamp accepts epoch seconds as a number or an RFC3339 string, the
// two timestamp shapes the upstream emits.
func getTimestamp(item map[string]interface{}) (float64, bool) {
	for _, k := range timestampKeys {
		v, ok := item[k]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n, true
		case string:
			if t, err := time.Parse(time.RFC3339Nano, n); err == nil {
				return float64(t.UnixNano()) / float64(time.Second), true
			}
			if f, err := strconv.ParseFloat(n, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}
