package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the messaging core. Registered on the default registry and
// exposed by the /metrics endpoint in cmd/api.
var (
	MessagesAppended = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_messages_appended_total",
		Help: "Messages durably committed to the message log.",
	})

	FanoutPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_fanout_published_total",
		Help: "message.sent events handed to the pub/sub transport. Each message counts once per topic it fans out to.",
	})

	FanoutFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chat_fanout_publish_failures_total",
		Help: "Publish attempts the transport rejected. Failures are logged and swallowed, never surfaced to senders.",
	})

	SocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chat_socket_connections",
		Help: "Currently attached websocket connections.",
	})
)
