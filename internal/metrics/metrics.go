// Package metrics holds the Prometheus collectors for feed generation and
// catalog ingest. Collectors are registered on the registerer passed to New,
// so tests can use an isolated registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "shopfeed"

type Metrics struct {
	// FeedRunsTotal counts feed generations by channel and status
	// (completed, failed).
	FeedRunsTotal *prometheus.CounterVec

	FeedItemsTotal         *prometheus.CounterVec
	FeedImagesSkippedTotal *prometheus.CounterVec

	FeedDurationSeconds *prometheus.HistogramVec
	FeedBytes           *prometheus.GaugeVec

	// IngestProductsTotal counts ingested products by disposition.
	IngestProductsTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		FeedRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "runs_total",
			Help:      "Feed generations by channel and status.",
		}, []string{"channel", "status"}),

		FeedItemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "items_total",
			Help:      "Items written to completed feeds.",
		}, []string{"channel"}),

		FeedImagesSkippedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "images_skipped_total",
			Help:      "Gallery images left out because no usable rendition was available.",
		}, []string{"channel"}),

		FeedDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "duration_seconds",
			Help:      "Feed generation duration.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"channel"}),

		FeedBytes: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "bytes",
			Help:      "Size of the last completed feed document.",
		}, []string{"channel"}),

		IngestProductsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "products_total",
			Help:      "Ingested products by disposition.",
		}, []string{"disposition"}),
	}
}

type FeedRun struct {
	Channel       string
	Status        string
	Items         int
	ImagesSkipped int
	Bytes         int
	Duration      time.Duration
}

// ObserveFeedRun is nil-safe so callers can leave metrics unset.
func (m *Metrics) ObserveFeedRun(r FeedRun) {
	if m == nil {
		return
	}

	m.FeedRunsTotal.WithLabelValues(r.Channel, r.Status).Inc()
	m.FeedDurationSeconds.WithLabelValues(r.Channel).Observe(r.Duration.Seconds())

	if r.Status != "completed" {
		return
	}
	m.FeedItemsTotal.WithLabelValues(r.Channel).Add(float64(r.Items))
	m.FeedImagesSkippedTotal.WithLabelValues(r.Channel).Add(float64(r.ImagesSkipped))
	m.FeedBytes.WithLabelValues(r.Channel).Set(float64(r.Bytes))
}

func (m *Metrics) ObserveIngest(disposition string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IngestProductsTotal.WithLabelValues(disposition).Add(float64(n))
}
