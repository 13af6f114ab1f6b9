package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"marketeye/config"
	"marketeye/detect"
	"marketeye/internal/channel"
	"marketeye/internal/metrics"
	"marketeye/internal/symbols"
	"marketeye/logger"
	"marketeye/models"
	alpacafeed "marketeye/reader/alpaca"
)

// Mode selects what a session streams to its subscriber.
type Mode int

const (
	// ModeEye streams trades, quotes and anomaly events.
	ModeEye Mode = iota
	// ModeTicker streams trades with a percent change against the last
	// seen price only.
	ModeTicker
)

// Session lifecycle states.
const (
	stateRunning int32 = iota
	stateClosing
	stateClosed
)

const errKeysMissing = "ALPACA_KEYS_MISSING"

// feedRunner lets tests substitute the websocket feeds.
type feedRunner interface {
	Run(ctx context.Context) error
}

// Session owns one subscriber's streaming connection: at most one upstream
// feed per asset class fanning into a bounded channel, a single merge
// goroutine owning all per-symbol detection state, and a dispatcher pushing
// events back out. Any terminal failure, upstream or subscriber side, tears
// the whole session down.
type Session struct {
	ID string

	cfg        *config.Config
	mode       Mode
	symbols    []string
	lastPrices map[string]float64

	dispatcher *Dispatcher
	events     *channel.Events
	detector   *detect.Detector
	state      atomic.Int32
	log        *logger.Log

	newFeeds func(ctx context.Context) []feedRunner
}

// New builds a session for one subscriber. lastPrices seeds the ticker
// mode's reference prices; the map is copied so callers can reuse theirs.
func New(cfg *config.Config, conn Conn, syms []string, lastPrices map[string]float64, mode Mode) *Session {
	seeds := make(map[string]float64, len(lastPrices))
	for k, v := range lastPrices {
		seeds[k] = v
	}

	s := &Session{
		ID:         uuid.New().String(),
		cfg:        cfg,
		mode:       mode,
		symbols:    syms,
		lastPrices: seeds,
		dispatcher: NewDispatcher(conn),
		events:     channel.NewEvents(cfg.Channels.EventBuffer),
		detector:   detect.NewDetector(),
		log:        logger.GetLogger(),
	}
	s.newFeeds = s.buildFeeds
	return s
}

// buildFeeds creates one feed per asset class present in the symbol set.
// The equity feed subscribes to quotes as well in eye mode; the crypto
// stream carries trades only.
func (s *Session) buildFeeds(ctx context.Context) []feedRunner {
	equities, crypto := symbols.Split(s.symbols)
	up := s.cfg.Upstream

	var feeds []feedRunner
	if len(equities) > 0 {
		quotes := equities
		if s.mode == ModeTicker {
			quotes = nil
		}
		feeds = append(feeds, alpacafeed.NewFeed(
			"equities", up.EquityStreamURL(), up.APIKey, up.SecretKey, equities, quotes, s.events))
	}
	if len(crypto) > 0 {
		feeds = append(feeds, alpacafeed.NewFeed(
			"crypto", up.CryptoStreamURL, up.APIKey, up.SecretKey, crypto, nil, s.events))
	}
	return feeds
}

// Run streams until the subscriber disconnects, a feed fails or ctx is
// cancelled. Without credentials it emits a single structured error event
// and closes, producing no trade, quote or anomaly events at all.
func (s *Session) Run(ctx context.Context) error {
	log := s.log.WithComponent("session").WithFields(logger.Fields{
		"session_id": s.ID,
		"symbols":    len(s.symbols),
	})

	metrics.SessionsTotal.Inc()
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()
	defer s.close()

	if !s.cfg.Upstream.HasCredentials() {
		log.Warn("no upstream credentials, closing session")
		if err := s.dispatcher.Send(models.WireError{Type: "error", Message: errKeysMissing}); err != nil {
			return err
		}
		metrics.EventsDispatched.WithLabelValues("error").Inc()
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	feeds := s.newFeeds(ctx)
	if len(feeds) == 0 {
		log.Warn("no symbols to subscribe, closing session")
		return nil
	}

	log.Info("session started")

	// One goroutine per feed; the first terminal error ends the session
	// and cancellation stops the siblings.
	feedErrs := make(chan error, len(feeds))
	var wg sync.WaitGroup
	for _, f := range feeds {
		wg.Add(1)
		go func(f feedRunner) {
			defer wg.Done()
			feedErrs <- f.Run(ctx)
		}(f)
	}
	defer wg.Wait()
	defer cancel()

	err := s.mergeLoop(ctx, feedErrs)
	if err != nil {
		log.WithError(err).Warn("session ended")
	} else {
		log.Info("session ended")
	}
	return err
}

// mergeLoop is the single consumer of all feed events; it alone touches the
// per-symbol detection state, so the state needs no locking.
func (s *Session) mergeLoop(ctx context.Context, feedErrs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-feedErrs:
			// Flush what the feed already delivered, then surface its
			// terminal error. A nil feed error is a context-driven
			// shutdown.
			if derr := s.drain(); derr != nil {
				return derr
			}
			return err
		case ev := <-s.events.C:
			if err := s.handleEvent(ev); err != nil {
				return err
			}
		}
	}
}

// drain dispatches events still buffered at shutdown.
func (s *Session) drain() error {
	for {
		select {
		case ev := <-s.events.C:
			if err := s.handleEvent(ev); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (s *Session) handleEvent(ev models.Event) error {
	switch {
	case ev.Trade != nil:
		if s.mode == ModeTicker {
			return s.sendTicker(*ev.Trade)
		}
		return s.sendTrade(*ev.Trade)
	case ev.Quote != nil:
		if s.mode == ModeTicker {
			return nil
		}
		return s.sendQuote(*ev.Quote)
	default:
		return nil
	}
}

// sendTrade emits the anomalies a trade triggers, then the trade itself.
func (s *Session) sendTrade(t models.Trade) error {
	s.lastPrices[t.Symbol] = t.Price

	for _, a := range s.detector.OnTrade(t) {
		metrics.Anomalies.WithLabelValues(string(a.Kind)).Inc()
		if err := s.dispatcher.Send(models.NewWireAnomaly(a)); err != nil {
			return err
		}
		metrics.EventsDispatched.WithLabelValues("anomaly").Inc()
	}

	if err := s.dispatcher.Send(models.NewWireTrade(t)); err != nil {
		return err
	}
	metrics.EventsDispatched.WithLabelValues("trade").Inc()
	return nil
}

func (s *Session) sendQuote(q models.Quote) error {
	imb := detect.Imbalance(q.BidSize, q.AskSize)
	if err := s.dispatcher.Send(models.NewWireQuote(q, imb)); err != nil {
		return err
	}
	metrics.EventsDispatched.WithLabelValues("quote").Inc()
	return nil
}

// sendTicker emits a minimal trade event with the percent change against
// the previously seen price, seeded from the reference dataset.
func (s *Session) sendTicker(t models.Trade) error {
	prev, ok := s.lastPrices[t.Symbol]
	if !ok {
		prev = t.Price
	}
	s.lastPrices[t.Symbol] = t.Price

	chgPct := 0.0
	if prev != 0 {
		chgPct = (t.Price - prev) / prev * 100
	}

	wire := models.WireTrade{Type: "trade", Symbol: t.Symbol, Price: t.Price, ChgPct: chgPct}
	if err := s.dispatcher.Send(wire); err != nil {
		return err
	}
	metrics.EventsDispatched.WithLabelValues("trade").Inc()
	return nil
}

// close walks the Running -> Closing -> Closed transition exactly once.
func (s *Session) close() {
	if !s.state.CompareAndSwap(stateRunning, stateClosing) {
		return
	}
	s.dispatcher.Close()
	s.state.Store(stateClosed)
}
