package supervisor

import "github.com/prometheus/client_golang/prometheus"

var (
	spawnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vncd",
			Subsystem: "process",
			Name:      "spawns_total",
			Help:      "Process spawn attempts by role and result",
		},
		[]string{"role", "result"},
	)

	exitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vncd",
			Subsystem: "process",
			Name:      "exits_total",
			Help:      "Process exits by role; expected=false means a crash",
		},
		[]string{"role", "expected"},
	)

	stackRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "vncd",
			Subsystem: "stack",
			Name:      "running",
			Help:      "1 when display, desktop server and bridge are all alive",
		},
	)

	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vncd",
			Subsystem: "stack",
			Name:      "transitions_total",
			Help:      "Start/stop transitions by outcome",
		},
		[]string{"op", "result"},
	)
)

func init() {
	prometheus.MustRegister(spawnsTotal, exitsTotal, stackRunning, transitionsTotal)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
