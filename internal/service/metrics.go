package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics 采集相关指标，nil 时所有方法为空操作
type Metrics struct {
	ticksTotal       *prometheus.CounterVec
	tickDuration     prometheus.Histogram
	trackedAgents    prometheus.Gauge
	trackedSites     prometheus.Gauge
	discoveredAgents prometheus.Counter
}

// NewMetrics 在 reg 上注册采集指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ticksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leaderboard",
			Subsystem: "collector",
			Name:      "ticks_total",
			Help:      "Total number of collector ticks by result.",
		}, []string{"result"}),
		tickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "leaderboard",
			Subsystem: "collector",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a collector tick including all remote calls.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		trackedAgents: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "leaderboard",
			Subsystem: "collector",
			Name:      "tracked_agents",
			Help:      "Number of agents tracked in the current reset.",
		}),
		trackedSites: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "leaderboard",
			Subsystem: "collector",
			Name:      "tracked_construction_sites",
			Help:      "Number of jump gate construction sites tracked in the current reset.",
		}),
		discoveredAgents: f.NewCounter(prometheus.CounterOpts{
			Namespace: "leaderboard",
			Subsystem: "collector",
			Name:      "discovered_agents_total",
			Help:      "Total number of agents discovered and added to tracking.",
		}),
	}
}

func (m *Metrics) observeTick(err error, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.ticksTotal.WithLabelValues(result).Inc()
	m.tickDuration.Observe(d.Seconds())
}

func (m *Metrics) setTracked(agents, sites int) {
	if m == nil {
		return
	}
	m.trackedAgents.Set(float64(agents))
	m.trackedSites.Set(float64(sites))
}

func (m *Metrics) addDiscovered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.discoveredAgents.Add(float64(n))
}
