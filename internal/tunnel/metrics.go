package tunnel

import "github.com/prometheus/client_golang/prometheus"

var (
	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vncd",
			Subsystem: "tunnel",
			Name:      "sessions_active",
			Help:      "Tunnel sessions currently connecting or piping",
		},
	)

	sessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vncd",
			Subsystem: "tunnel",
			Name:      "sessions_total",
			Help:      "Finished tunnel sessions by result",
		},
		[]string{"result"},
	)

	bytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vncd",
			Subsystem: "tunnel",
			Name:      "bytes_total",
			Help:      "Bytes relayed through the tunnel",
		},
		[]string{"direction"},
	)

	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vncd",
			Subsystem: "tunnel",
			Name:      "rejected_total",
			Help:      "Upgrade requests closed without a session",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(sessionsActive, sessionsTotal, bytesTotal, rejectedTotal)
}
