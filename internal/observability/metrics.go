package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	datagramsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "udp",
			Name:      "datagrams_sent_total",
			Help:      "Datagrams written to the socket.",
		},
		[]string{"result"},
	)
	datagramsReceived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "udp",
			Name:      "datagrams_received_total",
			Help:      "Datagrams read by listen sessions.",
		},
		[]string{"result"},
	)
	datagramBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgewire",
			Subsystem: "udp",
			Name:      "datagram_bytes",
			Help:      "Encoded datagram size in bytes.",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 6),
		},
		[]string{"direction"},
	)
	listenSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "udp",
			Name:      "listen_sessions_total",
			Help:      "Listen sessions by terminal state.",
		},
		[]string{"state"},
	)
	adminRequests = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "edgewire",
			Subsystem: "admin",
			Name:      "request_duration_seconds",
			Help:      "Admin HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"node", "path", "status"},
	)
	submits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "edgewire",
			Subsystem: "channel",
			Name:      "submits_total",
			Help:      "Submit round trips by outcome.",
		},
		[]string{"outcome"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(datagramsSent, datagramsReceived, datagramBytes, listenSessions, adminRequests, submits)
	})
}

func RecordDatagramSent(size int, err error) {
	RegisterMetrics()
	datagramsSent.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		datagramBytes.WithLabelValues("out").Observe(float64(size))
	}
}

// RecordDatagramReceived labels one inbound datagram: ok, malformed, skipped or undeliverable.
func RecordDatagramReceived(size int, result string) {
	RegisterMetrics()
	datagramsReceived.WithLabelValues(result).Inc()
	datagramBytes.WithLabelValues("in").Observe(float64(size))
}

func RecordListenSession(state string) {
	RegisterMetrics()
	listenSessions.WithLabelValues(state).Inc()
}

func RecordSubmit(outcome string) {
	RegisterMetrics()
	submits.WithLabelValues(outcome).Inc()
}

func RecordAdminRequest(node, path string, status int, duration time.Duration) {
	RegisterMetrics()
	adminRequests.WithLabelValues(node, path, strconv.Itoa(status)).Observe(duration.Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
