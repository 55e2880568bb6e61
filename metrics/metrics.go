// Package metrics exposes Prometheus metrics for the agent on a dedicated
// listener, separate from the API address.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves /metrics and owns the payment counters.
type MetricsServer struct {
	srv      *http.Server
	registry *prometheus.Registry

	paymentsSettled  prometheus.Counter
	paymentsDeclined prometheus.Counter
	paymentFailures  prometheus.Counter
}

// New creates a metrics server listening on addr with process and Go runtime
// collectors plus the agent's payment counters, all under namespace.
func New(namespace, addr string) (*MetricsServer, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(registry)
	m := &MetricsServer{
		registry: registry,
		paymentsSettled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_settled_total",
			Help:      "Payments confirmed settled by the publisher.",
		}),
		paymentsDeclined: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_declined_total",
			Help:      "Payments declined by the publisher.",
		}),
		paymentFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_failures_total",
			Help:      "Payment attempts that failed before reaching a terminal stage.",
		}),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	m.srv = &http.Server{Addr: addr, Handler: mux}

	return m, nil
}

// RecordSettled counts one settled payment.
func (m *MetricsServer) RecordSettled() { m.paymentsSettled.Inc() }

// RecordDeclined counts one declined payment.
func (m *MetricsServer) RecordDeclined() { m.paymentsDeclined.Inc() }

// RecordFailure counts one payment attempt that errored without settling or
// being declined.
func (m *MetricsServer) RecordFailure() { m.paymentFailures.Inc() }

func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
