package alpaca

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"marketeye/internal/channel"
	"marketeye/logger"
)

const keepAliveInterval = 20 * time.Second

type authMessage struct {
	Action string `json:"action"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

type subscribeMessage struct {
	Action string   `json:"action"`
	Trades []string `json:"trades,omitempty"`
	Quotes []string `json:"quotes,omitempty"`
}

// Feed is one upstream stream connection scoped to a single asset class.
// A feed authenticates, subscribes to its symbol set and pushes decoded
// events into the session's fan-in channel until the connection or the
// context ends. Feeds do not reconnect: any terminal error is fatal to the
// owning session.
type Feed struct {
	Name string

	url    string
	key    string
	secret string
	trades []string
	quotes []string
	events *channel.Events
	log    *logger.Log
	nowFn  func() time.Time
}

// NewFeed builds a feed for one asset class. quotes may be nil for feeds
// that subscribe to trades only.
func NewFeed(name, url, key, secret string, trades, quotes []string, events *channel.Events) *Feed {
	return &Feed{
		Name:   name,
		url:    url,
		key:    key,
		secret: secret,
		trades: trades,
		quotes: quotes,
		events: events,
		log:    logger.GetLogger(),
		nowFn:  time.Now,
	}
}

// Run connects and streams until ctx is cancelled or the connection fails.
// The returned error is nil only for a context-driven shutdown.
func (f *Feed) Run(ctx context.Context) error {
	log := f.log.WithComponent("alpaca_feed").WithFields(logger.Fields{
		"feed": f.Name,
		"url":  f.url,
	})

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s feed: %w", f.Name, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(authMessage{Action: "auth", Key: f.key, Secret: f.secret}); err != nil {
		return fmt.Errorf("failed to authenticate %s feed: %w", f.Name, err)
	}
	if err := conn.WriteJSON(subscribeMessage{Action: "subscribe", Trades: f.trades, Quotes: f.quotes}); err != nil {
		return fmt.Errorf("failed to subscribe %s feed: %w", f.Name, err)
	}

	log.WithFields(logger.Fields{
		"trades": len(f.trades),
		"quotes": len(f.quotes),
	}).Info("feed subscribed")

	pingCancel := startPingLoop(ctx, conn, keepAliveInterval, log)
	defer pingCancel()

	// Unblock ReadMessage when the session shuts down.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		if ctx.Err() != nil {
			return nil
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("%s feed read failed: %w", f.Name, err)
		}

		for _, ev := range Decode(msg, f.nowFn) {
			ev.Feed = f.Name
			f.events.Send(ctx, ev)
		}
	}
}

func startPingLoop(ctx context.Context, conn *websocket.Conn, interval time.Duration, log *logger.Entry) context.CancelFunc {
	if interval <= 0 {
		interval = keepAliveInterval
	}
	pingCtx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-pingCtx.Done():
				return
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(time.Second))
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
					log.WithError(err).Warn("failed to send websocket ping")
					cancel()
					return
				}
			}
		}
	}()
	return cancel
}
