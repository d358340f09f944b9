package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusCollector owns a private registry, so several collectors (one per
// test) never clash on metric names.
type PrometheusCollector struct {
	registry *prometheus.Registry

	chatSubscribers       prometheus.Gauge
	chatMessagesPublished *prometheus.CounterVec
	chatMessagesMissed    prometheus.Counter

	loginAttempts *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	p := &PrometheusCollector{
		registry: prometheus.NewRegistry(),

		chatSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "streamie_chat_subscribers",
			Help: "Number of connected chat subscribers",
		}),

		chatMessagesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamie_chat_messages_published_total",
			Help: "Total number of chat messages published",
		}, []string{"room"}),

		chatMessagesMissed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "streamie_chat_messages_missed_total",
			Help: "Total number of chat messages skipped by lagging subscribers",
		}),

		loginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamie_login_attempts_total",
			Help: "Login attempts by result",
		}, []string{"result"}),

		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "streamie_http_requests_total",
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "streamie_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}

	p.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.chatSubscribers,
		p.chatMessagesPublished,
		p.chatMessagesMissed,
		p.loginAttempts,
		p.httpRequests,
		p.httpDuration,
	)
	return p
}

func (p *PrometheusCollector) ChatSubscriberAdded() {
	p.chatSubscribers.Inc()
}

func (p *PrometheusCollector) ChatSubscriberRemoved() {
	p.chatSubscribers.Dec()
}

// Room labels are bounded by the 30 character room field but are still user
// input; an empty room is reported as "none".
func (p *PrometheusCollector) ChatMessagePublished(room string) {
	if room == "" {
		room = "none"
	}
	p.chatMessagesPublished.WithLabelValues(room).Inc()
}

func (p *PrometheusCollector) ChatMessagesMissed(n uint64) {
	p.chatMessagesMissed.Add(float64(n))
}

func (p *PrometheusCollector) RecordLogin(result string) {
	p.loginAttempts.WithLabelValues(result).Inc()
}

func (p *PrometheusCollector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusCollector) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (p *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}
