package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsDispatched counts events delivered to subscribers by wire type.
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketeye_events_dispatched_total",
		Help: "Events delivered to websocket subscribers, by type.",
	}, []string{"type"})

	// Anomalies counts classifier hits by kind.
	Anomalies = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketeye_anomalies_total",
		Help: "Anomaly events emitted, by kind.",
	}, []string{"kind"})

	// UpstreamDropped counts upstream messages discarded during decoding.
	UpstreamDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketeye_upstream_dropped_total",
		Help: "Upstream messages dropped, by reason.",
	}, []string{"reason"})

	// ChannelDropped counts events lost to a full session buffer.
	ChannelDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketeye_channel_dropped_total",
		Help: "Events dropped because a session buffer was full.",
	})

	// SessionsActive tracks currently connected streaming subscribers.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "marketeye_sessions_active",
		Help: "Streaming sessions currently connected.",
	})

	// SessionsTotal counts streaming sessions since start.
	SessionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "marketeye_sessions_total",
		Help: "Streaming sessions accepted since process start.",
	})
)

// Handler exposes the default prometheus registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
