package jwt

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for credential verification.
type Metrics struct {
	verificationTotal    *prometheus.CounterVec
	verificationDuration prometheus.Histogram
}

// NewMetrics creates a new Metrics instance. Collectors are not registered
// until MustRegister is called.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "gateway"
	}

	return &Metrics{
		verificationTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "jwt",
				Name:      "verification_total",
				Help:      "Total number of credential verifications by outcome",
			},
			[]string{"outcome"},
		),
		verificationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "jwt",
				Name:      "verification_duration_seconds",
				Help:      "Credential verification duration in seconds",
				Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
			},
		),
	}
}

// Init pre-populates outcome labels so they show up before first use.
func (m *Metrics) Init() {
	for _, outcome := range []string{"valid", "expired", "invalid", "malformed"} {
		m.verificationTotal.WithLabelValues(outcome)
	}
}

// RecordVerification records one verification.
func (m *Metrics) RecordVerification(outcome string, duration time.Duration) {
	m.verificationTotal.WithLabelValues(outcome).Inc()
	m.verificationDuration.Observe(duration.Seconds())
}

// MustRegister registers the metrics with registry. Collectors that are
// already registered are ignored.
func (m *Metrics) MustRegister(registry prometheus.Registerer) {
	for _, c := range []prometheus.Collector{m.verificationTotal, m.verificationDuration} {
		if err := registry.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}
