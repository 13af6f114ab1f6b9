package session

import (
	"sync"
	"time"

	"marketeye/logger"
)

// Conn is the subscriber connection surface the session needs. It is
// satisfied by *websocket.Conn.
type Conn interface {
	WriteJSON(v interface{}) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

const writeTimeout = 10 * time.Second

// Dispatcher serializes events onto the single subscriber connection.
// Writes are mutex-guarded because anomaly, trade and quote events for one
// inbound message are emitted back-to-back, and Close may race a write
// during teardown. The connection is closed exactly once.
type Dispatcher struct {
	conn      Conn
	mu        sync.Mutex
	closeOnce sync.Once
	log       *logger.Log
}

func NewDispatcher(conn Conn) *Dispatcher {
	return &Dispatcher{conn: conn, log: logger.GetLogger()}
}

// Send writes one event to the subscriber. Any error means the subscriber
// is gone; the caller must treat it as session-ending.
func (d *Dispatcher) Send(v interface{}) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return d.conn.WriteJSON(v)
}

// Close shuts the subscriber connection. Safe to call more than once.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		if err := d.conn.Close(); err != nil {
			d.log.WithComponent("dispatcher").WithError(err).Debug("subscriber close")
		}
	})
}
