package server

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"marketeye/internal/alpaca"
	"marketeye/internal/store"
	"marketeye/internal/symbols"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ts":     time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// handleClock proxies the upstream market clock; without credentials the
// fallback approximates US equity hours in UTC.
func (s *Server) handleClock(c *gin.Context) {
	if raw, err := s.client.Get(c.Request.Context(), "/v2/clock", nil); err == nil {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	now := time.Now().UTC()
	marketOpen := now.Weekday() >= time.Monday && now.Weekday() <= time.Friday &&
		now.Hour() >= 13 && now.Hour() < 20
	c.JSON(http.StatusOK, gin.H{
		"is_open":    marketOpen,
		"timestamp":  now.Format(time.RFC3339Nano),
		"next_open":  nil,
		"next_close": nil,
	})
}

func (s *Server) handleAccount(c *gin.Context) {
	if raw, err := s.client.Get(c.Request.Context(), "/v2/account", nil); err == nil {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, s.store.Account())
}

func (s *Server) handleConnectivity(c *gin.Context) {
	conn := s.store.Connectivity()
	c.JSON(http.StatusOK, gin.H{
		"alpacaStatus":        conn.AlpacaStatus,
		"wsLatencyMs":         conn.WSLatencyMs,
		"buyingPower":         conn.BuyingPower,
		"buyingPowerMultiple": conn.BuyingPowerMultiple,
		"dayTradesRemaining":  conn.DayTradesRemaining,
		"feed":                s.cfg.Upstream.Feed,
		"paper":               s.cfg.Upstream.Paper,
	})
}

// handleMarket serves the reference dataset, refreshed with the latest
// upstream trade per symbol when credentials allow. chgPct becomes the move
// against the reference price. Any upstream failure falls back to the
// untouched dataset.
func (s *Server) handleMarket(c *gin.Context) {
	rows := s.store.Market()
	if !s.client.HasCredentials() {
		c.JSON(http.StatusOK, rows)
		return
	}

	equities, crypto := symbols.Split(s.store.Symbols())
	latest := make(map[string]alpaca.LatestTrade, len(rows))

	if len(equities) > 0 {
		trades, err := s.client.LatestStockTrades(c.Request.Context(), equities)
		if err != nil {
			c.JSON(http.StatusOK, rows)
			return
		}
		for sym, t := range trades {
			latest[sym] = t
		}
	}
	if len(crypto) > 0 {
		trades, err := s.client.LatestCryptoTrades(c.Request.Context(), crypto)
		if err != nil {
			c.JSON(http.StatusOK, rows)
			return
		}
		for sym, t := range trades {
			latest[sym] = t
		}
	}

	out := make([]store.MarketRow, 0, len(rows))
	for _, row := range rows {
		if t, ok := latest[row.Symbol]; ok && t.Price != 0 && row.Last != 0 {
			base := row.Last
			row.Last = t.Price
			row.ChgPct = (t.Price - base) / base * 100
		}
		out = append(out, row)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handlePositions(c *gin.Context) {
	raw, err := s.client.Get(c.Request.Context(), "/v2/positions", nil)
	if err == nil && !emptyPayload(raw) {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, s.store.Positions())
}

func (s *Server) handleStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Strategies())
}

func (s *Server) handleLogs(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Logs())
}

func (s *Server) handlePortfolioHistory(c *gin.Context) {
	params := url.Values{}
	params.Set("period", c.DefaultQuery("period", "1M"))
	params.Set("timeframe", c.DefaultQuery("timeframe", "1D"))

	if raw, err := s.client.Get(c.Request.Context(), "/v2/account/portfolio/history", params); err == nil {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"timestamp": []int64{time.Now().UTC().Unix()},
		"equity":    []float64{s.store.Account().AUM},
	})
}

func (s *Server) handleBars(c *gin.Context) {
	symbol := c.Query("symbol")
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol is required"})
		return
	}
	timeframe := c.DefaultQuery("timeframe", "1D")
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if err != nil || limit <= 0 {
		limit = 200
	}

	bars, err := s.client.Bars(c.Request.Context(), symbol, timeframe, limit)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"bars": []interface{}{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bars": bars})
}

func (s *Server) handleAsset(c *gin.Context) {
	symbol := c.Param("symbol")
	if raw, err := s.client.Get(c.Request.Context(), "/v2/assets/"+symbol, nil); err == nil {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"symbol":         symbol,
		"shortable":      false,
		"easy_to_borrow": false,
	})
}

func (s *Server) handleCreateOrder(c *gin.Context) {
	var req alpaca.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Symbol == "" || req.Side == "" || req.Qty <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "symbol, side and qty are required"})
		return
	}
	if req.Type == "" {
		req.Type = "market"
	}
	if req.TimeInForce == "" {
		req.TimeInForce = "gtc"
	}

	if raw, err := s.client.CreateOrder(c.Request.Context(), req); err == nil {
		c.Data(http.StatusOK, "application/json", raw)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":            "MOCK-ORDER",
		"status":        "accepted",
		"symbol":        req.Symbol,
		"side":          req.Side,
		"qty":           req.Qty,
		"type":          req.Type,
		"time_in_force": req.TimeInForce,
	})
}

func emptyPayload(raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "[]" || trimmed == "null" || trimmed == "{}"
}
