// Package metrics exposes Prometheus instrumentation for signers.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/xueqianLu/txsigner/pkg/signer"
)

const codeOK = "ok"

// Metrics holds the signing collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the signing collectors on reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "txsigner_sign_requests_total",
			Help: "Number of sign requests by signer kind and result code",
		}, []string{"kind", "code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "txsigner_sign_duration_seconds",
			Help:    "Latency of sign requests in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(kind signer.Kind, err error, d time.Duration) {
	if m == nil {
		return
	}
	code := codeOK
	if err != nil {
		code = string(signer.CodeOf(err))
		if code == "" {
			code = "unknown"
		}
	}
	m.requests.WithLabelValues(kind.String(), code).Inc()
	m.duration.WithLabelValues(kind.String()).Observe(d.Seconds())
}

// InstrumentedSigner records a sample for every SignTransaction call and
// otherwise behaves exactly like the wrapped signer.
type InstrumentedSigner struct {
	next    signer.Signer
	metrics *Metrics
}

var _ signer.Signer = (*InstrumentedSigner)(nil)

// NewInstrumentedSigner wraps s and registers its collectors on reg.
func NewInstrumentedSigner(s signer.Signer, reg prometheus.Registerer) *InstrumentedSigner {
	return &InstrumentedSigner{next: s, metrics: NewMetrics(reg)}
}

func (s *InstrumentedSigner) SignTransaction(ctx context.Context, unsignedTx string) (string, error) {
	start := time.Now()
	out, err := s.next.SignTransaction(ctx, unsignedTx)
	s.metrics.observe(s.next.Kind(), err, time.Since(start))
	return out, err
}

func (s *InstrumentedSigner) Kind() signer.Kind {
	return s.next.Kind()
}

// Unwrap returns the wrapped signer.
func (s *InstrumentedSigner) Unwrap() signer.Signer {
	return s.next
}
