package observability

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/circuitry/internal/logging"
	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/history"
)

// Metrics groups the collectors reported by the engine.
type Metrics struct {
	SettleEvaluations prometheus.Histogram
	SettleDuration    prometheus.Histogram
	Cycles            prometheus.Counter
	HistoryOps        *prometheus.CounterVec
	StoreOps          *prometheus.CounterVec
	StoreDuration     *prometheus.HistogramVec

	logger *slog.Logger
}

// Option configures Metrics.
type Option func(*Metrics)

// WithLogger logs cycles and store failures alongside the counters.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Metrics) {
		m.logger = logger
	}
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer, opts ...Option) (*Metrics, error) {
	m := &Metrics{
		SettleEvaluations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "circuitry_settle_evaluations",
			Help:    "Component evaluations per propagation run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		SettleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "circuitry_settle_duration_seconds",
			Help:    "Duration of propagation runs",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		Cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "circuitry_cycles_total",
			Help: "Propagation runs aborted because the circuit did not settle",
		}),
		HistoryOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "circuitry_history_ops_total",
			Help: "Recorded edits, undos and redos",
		}, []string{"op", "command"}),
		StoreOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "circuitry_store_ops_total",
			Help: "Document store operations",
		}, []string{"op", "result"}),
		StoreDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "circuitry_store_duration_seconds",
			Help: "Duration of document store operations",
		}, []string{"op"}),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	for _, c := range []prometheus.Collector{
		m.SettleEvaluations, m.SettleDuration, m.Cycles,
		m.HistoryOps, m.StoreOps, m.StoreDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// CircuitHooks returns propagation hooks that feed the settle collectors.
func (m *Metrics) CircuitHooks() domain.Hooks {
	return domain.Hooks{
		OnSettle: func(ev domain.SettleEvent) {
			m.SettleEvaluations.Observe(float64(ev.Evaluations))
			m.SettleDuration.Observe(ev.Duration.Seconds())
		},
		OnCycle: func(err *domain.CycleError) {
			m.Cycles.Inc()
			m.logger.Warn("circuit did not settle",
				"component", err.Label,
				"evaluations", err.Evaluations,
				"limit", err.Limit,
			)
		},
	}
}

// HistoryObserver counts history transitions by command name.
func (m *Metrics) HistoryObserver() history.Observer {
	return func(op history.Op, cmd history.Command) {
		m.HistoryOps.WithLabelValues(string(op), history.Name(cmd)).Inc()
	}
}

// ObserveStore records one store operation.
func (m *Metrics) ObserveStore(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StoreOps.WithLabelValues(op, result).Inc()
	m.StoreDuration.WithLabelValues(op).Observe(d.Seconds())
}
