// Package metrics は Prometheus のメトリクスを提供します。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nanasync"

// 認証試行の結果ラベル。
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

// Metrics はアプリケーションのメトリクスを保持します。
// グローバルレジストリを汚さないよう専用のレジストリに登録します。
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
	AuthAttempts    *prometheus.CounterVec
	ClockEvents     *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
}

// New は Metrics を生成し、Go ランタイムとプロセスのコレクタも登録します。
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		AuthAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "attempts_total",
			Help:      "Login attempts by principal kind and outcome.",
		}, []string{"principal", "outcome"}), // principal: company, employee
		ClockEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "timeclock",
			Name:      "events_total",
			Help:      "Recorded clock events by type.",
		}, []string{"type"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Domain events handed to the publisher by type.",
		}, []string{"type"}),
	}
}

// ObserveHTTPRequest は HTTP リクエストの件数と処理時間を記録します。
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordAuthAttempt はログイン試行を記録します。
func (m *Metrics) RecordAuthAttempt(principal, outcome string) {
	if m == nil {
		return
	}
	m.AuthAttempts.WithLabelValues(principal, outcome).Inc()
}

// RecordClockEvent は打刻を記録します。
func (m *Metrics) RecordClockEvent(eventType string) {
	if m == nil {
		return
	}
	m.ClockEvents.WithLabelValues(eventType).Inc()
}

// RecordEventPublished はドメインイベントの発行を記録します。
func (m *Metrics) RecordEventPublished(eventType string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(eventType).Inc()
}

// Registry は内部のレジストリを返します。
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler は /metrics 用の HTTP ハンドラを返します。
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
