// Package metrics exposes Prometheus metrics for monitor runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "ot_monitor"

// Metrics holds the run counters. A nil *Metrics records nothing.
type Metrics struct {
	RunsTotal          *prometheus.CounterVec
	RunDurationSeconds *prometheus.HistogramVec
	PagesScrapedTotal  prometheus.Counter
	PostingsTotal      *prometheus.CounterVec
	MessagesSentTotal  *prometheus.CounterVec
	SeenSetSize        prometheus.Gauge
	LastSuccess        prometheus.Gauge
}

// NewMetrics creates and registers all metrics on reg, or on the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Total number of monitor runs",
			},
			[]string{"mode", "status"},
		),
		RunDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of monitor runs in seconds",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
			[]string{"mode"},
		),
		PagesScrapedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "pages_scraped_total",
				Help:      "Total number of listing pages extracted",
			},
		),
		PostingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "postings_total",
				Help:      "Postings seen by classification result",
			},
			[]string{"result"},
		),
		MessagesSentTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "messages_sent_total",
				Help:      "Telegram messages delivered by kind",
			},
			[]string{"kind"},
		),
		SeenSetSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "seen_set_size",
				Help:      "Number of posting ids in the seen set",
			},
		),
		LastSuccess: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful run",
			},
		),
	}
}

func (m *Metrics) ObserveRun(mode string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	} else {
		m.LastSuccess.SetToCurrentTime()
	}
	m.RunsTotal.WithLabelValues(mode, status).Inc()
	m.RunDurationSeconds.WithLabelValues(mode).Observe(d.Seconds())
}

func (m *Metrics) AddPages(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PagesScrapedTotal.Add(float64(n))
}

func (m *Metrics) AddPostings(result string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.PostingsTotal.WithLabelValues(result).Add(float64(n))
}

func (m *Metrics) AddMessages(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MessagesSentTotal.WithLabelValues(kind).Add(float64(n))
}

func (m *Metrics) SetSeen(n int) {
	if m == nil {
		return
	}
	m.SeenSetSize.Set(float64(n))
}
