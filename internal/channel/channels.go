package channel

import (
	"context"
	"sync"

	"marketeye/internal/metrics"
	"marketeye/logger"
	"marketeye/models"
)

type Stats struct {
	Sent    int64
	Dropped int64
}

// Events is the bounded fan-in channel between a session's feed goroutines
// and its single merge consumer. Sends never block: when the buffer is full
// the oldest buffered event is evicted and counted, keeping a slow
// subscriber from backing up the feed readers.
type Events struct {
	C chan models.Event

	stats      Stats
	statsMutex sync.RWMutex
	log        *logger.Log
}

func NewEvents(bufferSize int) *Events {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Events{
		C:   make(chan models.Event, bufferSize),
		log: logger.GetLogger(),
	}
}

func (e *Events) Close() {
	close(e.C)
}

// Send delivers ev to the consumer without ever blocking. When the buffer
// is full the oldest buffered event is evicted so the freshest market data
// wins; every eviction increments the drop counter. Returns false only when
// the context is done or the event could not be buffered at all.
func (e *Events) Send(ctx context.Context, ev models.Event) bool {
	if ctx.Err() != nil {
		return false
	}

	select {
	case e.C <- ev:
		e.statsMutex.Lock()
		e.stats.Sent++
		e.statsMutex.Unlock()
		return true
	default:
	}

	// Buffer full: evict the oldest event, then retry once.
	select {
	case stale := <-e.C:
		e.dropped(stale)
	default:
	}
	select {
	case e.C <- ev:
		e.statsMutex.Lock()
		e.stats.Sent++
		e.statsMutex.Unlock()
		return true
	default:
		// Another producer refilled the slot between evict and send.
		e.dropped(ev)
		return false
	}
}

func (e *Events) dropped(ev models.Event) {
	e.statsMutex.Lock()
	e.stats.Dropped++
	e.statsMutex.Unlock()
	metrics.ChannelDropped.Inc()
	e.log.WithComponent("event_channel").WithFields(logger.Fields{
		"feed":   ev.Feed,
		"buffer": cap(e.C),
	}).Warn("event channel full, dropping event")
}

func (e *Events) GetStats() Stats {
	e.statsMutex.RLock()
	defer e.statsMutex.RUnlock()
	return e.stats
}
