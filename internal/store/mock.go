package store

import "sync"

// Account is the portfolio summary snapshot served when no upstream
// credentials are configured.
type Account struct {
	AUM       float64 `json:"aum"`
	PnL       float64 `json:"pnl"`
	CashRatio float64 `json:"cashRatio"`
	VaR       float64 `json:"var"`
	Exposure  float64 `json:"exposure"`
}

type Connectivity struct {
	AlpacaStatus        string `json:"alpacaStatus"`
	WSLatencyMs         int    `json:"wsLatencyMs"`
	BuyingPower         int    `json:"buyingPower"`
	BuyingPowerMultiple int    `json:"buyingPowerMultiple"`
	DayTradesRemaining  int    `json:"dayTradesRemaining"`
}

// MarketRow is one instrument in the reference dataset. Last doubles as the
// seed price for streaming sessions.
type MarketRow struct {
	Symbol string  `json:"symbol"`
	Last   float64 `json:"last"`
	ChgPct float64 `json:"chgPct"`
	Score  int     `json:"score"`
	VolMA  float64 `json:"volMa"`
	Signal string  `json:"signal"`
	Asset  string  `json:"asset"`
	Sector string  `json:"sector"`
	Volume int64   `json:"volume"`
}

type Position struct {
	Symbol string  `json:"symbol"`
	Cost   float64 `json:"cost"`
	Last   float64 `json:"last"`
	PnLPct float64 `json:"pnlPct"`
	Stop   float64 `json:"stop"`
}

type Strategy struct {
	Name      string  `json:"name"`
	PnL       float64 `json:"pnl"`
	Positions int     `json:"positions"`
	Status    string  `json:"status"`
}

// Store holds the in-memory reference dataset. Reads are served to the REST
// layer; the market rows also define the symbol universe every streaming
// session subscribes to.
type Store struct {
	mu sync.RWMutex

	account      Account
	connectivity Connectivity
	market       []MarketRow
	positions    []Position
	strategies   []Strategy
	logs         []string
}

// NewStore builds the default dataset.
func NewStore() *Store {
	return &Store{
		account: Account{
			AUM:       128_400_220,
			PnL:       1_482_120,
			CashRatio: 0.30,
			VaR:       3_200_000,
			Exposure:  1.2,
		},
		connectivity: Connectivity{
			AlpacaStatus:        "CONNECTED",
			WSLatencyMs:         12,
			BuyingPower:         100_000,
			BuyingPowerMultiple: 4,
			DayTradesRemaining:  1,
		},
		market: []MarketRow{
			{Symbol: "NVDA", Last: 902.14, ChgPct: 3.42, Score: 92, VolMA: 4.8, Signal: "STRONG BUY", Asset: "Equity", Sector: "Semis", Volume: 38_120_000},
			{Symbol: "AAPL", Last: 192.38, ChgPct: 0.82, Score: 71, VolMA: 1.2, Signal: "WAIT", Asset: "Equity", Sector: "Mega Cap", Volume: 71_200_000},
			{Symbol: "BTC/USD", Last: 64218.0, ChgPct: 1.18, Score: 69, VolMA: 2.2, Signal: "WAIT", Asset: "Crypto", Sector: "Crypto", Volume: 12_500},
			{Symbol: "TSLA", Last: 238.09, ChgPct: -2.14, Score: 39, VolMA: 3.1, Signal: "SELL", Asset: "Equity", Sector: "Auto", Volume: 46_800_000},
			{Symbol: "MSFT", Last: 402.01, ChgPct: 1.06, Score: 66, VolMA: 0.9, Signal: "WAIT", Asset: "Equity", Sector: "Mega Cap", Volume: 30_100_000},
			{Symbol: "AMD", Last: 168.44, ChgPct: 2.41, Score: 84, VolMA: 1.7, Signal: "BUY", Asset: "Equity", Sector: "Semis", Volume: 51_200_000},
			{Symbol: "META", Last: 488.61, ChgPct: -0.74, Score: 58, VolMA: 1.0, Signal: "WAIT", Asset: "Equity", Sector: "Mega Cap", Volume: 20_900_000},
			{Symbol: "COIN", Last: 224.2, ChgPct: 1.74, Score: 76, VolMA: 1.5, Signal: "WAIT", Asset: "Equity", Sector: "Crypto Proxy", Volume: 18_200_000},
		},
		positions: []Position{
			{Symbol: "NVDA", Cost: 842.1, Last: 902.14, PnLPct: 7.1, Stop: 860.0},
			{Symbol: "AAPL", Cost: 186.0, Last: 192.38, PnLPct: 3.4, Stop: 180.5},
			{Symbol: "TSLA", Cost: 246.9, Last: 238.09, PnLPct: -3.6, Stop: 232.0},
		},
		strategies: []Strategy{
			{Name: "Strategy_Tech_Momentum_v2", PnL: 482_210, Positions: 14, Status: "RUNNING"},
			{Name: "Strategy_Defensive_Alpha", PnL: 91_120, Positions: 6, Status: "PAUSED"},
			{Name: "Strategy_Crypto_Liq", PnL: -14_802, Positions: 3, Status: "RUNNING"},
		},
		logs: []string{
			"[10:00:01] INFO: Scanning AAPL... RSI=72, Overbought.",
			"[10:00:02] WARN: TSLA Volatility Spike detected!",
			"[10:00:05] EXEC: Placing ORDER -> BUY 100 NVDA @ MKT",
		},
	}
}

func (s *Store) Account() Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *Store) Connectivity() Connectivity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connectivity
}

func (s *Store) Market() []MarketRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MarketRow, len(s.market))
	copy(out, s.market)
	return out
}

func (s *Store) Positions() []Position {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Position, len(s.positions))
	copy(out, s.positions)
	return out
}

func (s *Store) Strategies() []Strategy {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Strategy, len(s.strategies))
	copy(out, s.strategies)
	return out
}

func (s *Store) Logs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

// Symbols lists the tracked instrument universe in dataset order.
func (s *Store) Symbols() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.market))
	for _, row := range s.market {
		out = append(out, row.Symbol)
	}
	return out
}

// LastPrices maps each tracked symbol to its reference price.
func (s *Store) LastPrices() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, len(s.market))
	for _, row := range s.market {
		out[row.Symbol] = row.Last
	}
	return out
}
