package ws

import "github.com/prometheus/client_golang/prometheus"

var (
	wsClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "droidspec_ws_clients",
		Help: "Open WebSocket notification streams.",
	})
	wsBroadcasts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "droidspec_ws_broadcasts_total",
			Help: "Change notifications broadcast, by message type.",
		},
		[]string{"type"},
	)
	wsEvicted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "droidspec_ws_evicted_messages_total",
		Help: "Queued notifications evicted because a tab fell behind.",
	})
)

func init() {
	prometheus.MustRegister(wsClients, wsBroadcasts, wsEvicted)
}
