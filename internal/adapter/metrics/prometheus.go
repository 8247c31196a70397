package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "storefront"

// Prometheus implements port.Metrics and carries the HTTP request metrics.
// Each instance owns its registry so several can coexist in tests.
type Prometheus struct {
	registry *prometheus.Registry

	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	cartChanges    *prometheus.CounterVec
	ordersPlaced   *prometheus.CounterVec
	ordersCanceled prometheus.Counter
	corruptRecords *prometheus.CounterVec
}

func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		}, []string{"handler"}),
		cartChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_changes_total",
			Help:      "Cart mutations by operation.",
		}, []string{"op"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed by payment method.",
		}, []string{"payment_method"}),
		ordersCanceled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_cancelled_total",
			Help:      "Orders cancelled by customers.",
		}),
		corruptRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "corrupt_records_total",
			Help:      "Persisted records that failed validation, by kind.",
		}, []string{"kind"}),
	}

	p.registry.MustRegister(
		p.Requests,
		p.LatencyMS,
		p.cartChanges,
		p.ordersPlaced,
		p.ordersCanceled,
		p.corruptRecords,
		collectors.NewGoCollector(),
	)
	return p
}

func (p *Prometheus) CartChanged(op string) {
	p.cartChanges.WithLabelValues(op).Inc()
}

func (p *Prometheus) OrderPlaced(method string) {
	p.ordersPlaced.WithLabelValues(method).Inc()
}

func (p *Prometheus) OrderCancelled() {
	p.ordersCanceled.Inc()
}

func (p *Prometheus) CorruptRecord(kind string) {
	p.corruptRecords.WithLabelValues(kind).Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
