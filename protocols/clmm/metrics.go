package clmm

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	operations   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	swapSteps    prometheus.Histogram
	ticksCrossed prometheus.Counter
	forfeits     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clmm",
			Name:      "operations_total",
			Help:      "Engine operations by kind and result.",
		}, []string{"operation", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clmm",
			Name:      "operation_duration_seconds",
			Help:      "Time spent in engine operations.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"operation"}),
		swapSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clmm",
			Name:      "swap_steps",
			Help:      "Price steps taken per swap.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		ticksCrossed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clmm",
			Name:      "ticks_crossed_total",
			Help:      "Initialized ticks crossed by swaps.",
		}),
		forfeits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clmm",
			Name:      "forfeited_deltas_total",
			Help:      "Fee and reward deltas dropped because they overflowed.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.operations, m.duration, m.swapSteps, m.ticksCrossed, m.forfeits)
	return m
}
