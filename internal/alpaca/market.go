package alpaca

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// LatestTrade is the subset of Alpaca's latest-trade payload the service
// needs to refresh reference prices.
type LatestTrade struct {
	Price float64 `json:"p"`
}

type latestTradesResponse struct {
	Trades map[string]LatestTrade `json:"trades"`
}

// LatestStockTrades fetches the most recent trade per equity symbol.
func (c *Client) LatestStockTrades(ctx context.Context, symbols []string) (map[string]LatestTrade, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))
	params.Set("feed", c.cfg.Feed)

	var resp latestTradesResponse
	if err := c.DataGet(ctx, "/v2/stocks/trades/latest", params, &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}

// LatestCryptoTrades fetches the most recent trade per crypto pair.
func (c *Client) LatestCryptoTrades(ctx context.Context, symbols []string) (map[string]LatestTrade, error) {
	params := url.Values{}
	params.Set("symbols", strings.Join(symbols, ","))

	var resp latestTradesResponse
	if err := c.DataGet(ctx, "/v1beta3/crypto/us/latest/trades", params, &resp); err != nil {
		return nil, err
	}
	return resp.Trades, nil
}

type barsResponse struct {
	Bars map[string]json.RawMessage `json:"bars"`
}

// Bars fetches historical bars for one symbol, using the crypto or equity
// endpoint depending on the symbol shape. The bar array is passed through
// as raw JSON.
func (c *Client) Bars(ctx context.Context, symbol, timeframe string, limit int) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("symbols", symbol)
	params.Set("timeframe", timeframe)
	params.Set("limit", strconv.Itoa(limit))

	path := "/v2/stocks/bars"
	if strings.Contains(symbol, "/") {
		path = "/v1beta3/crypto/us/bars"
	} else {
		params.Set("feed", c.cfg.Feed)
	}

	var resp barsResponse
	if err := c.DataGet(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	if bars, ok := resp.Bars[symbol]; ok {
		return bars, nil
	}
	return json.RawMessage("[]"), nil
}

// OrderRequest mirrors the order placement payload accepted by the API.
type OrderRequest struct {
	Symbol      string                 `json:"symbol"`
	Side        string                 `json:"side"`
	Qty         float64                `json:"qty"`
	Type        string                 `json:"type"`
	TimeInForce string                 `json:"time_in_force"`
	TakeProfit  map[string]interface{} `json:"take_profit,omitempty"`
	StopLoss    map[string]interface{} `json:"stop_loss,omitempty"`
}

// CreateOrder submits an order and returns the upstream response verbatim.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (json.RawMessage, error) {
	if req.Type == "" {
		req.Type = "market"
	}
	if req.TimeInForce == "" {
		req.TimeInForce = "gtc"
	}
	return c.Post(ctx, "/v2/orders", req)
}
